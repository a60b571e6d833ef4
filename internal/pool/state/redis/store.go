// Package redis persists pool state in Redis. Each shelter is a hash, balances
// share one hash keyed by wallet, and membership order is a list. Amounts are
// decimal strings.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/redis/go-redis/v9"

	"donationpool/internal/pool/models"
	"donationpool/pkg/domain"
	"donationpool/pkg/platform/sentinel"
)

const defaultPrefix = "donationpool"

const (
	fieldName          = "name"
	fieldTotalReceived = "total_received"
	fieldActive        = "active"
)

// Store implements state.Store on a Redis connection.
type Store struct {
	client redis.UniversalClient
	prefix string
}

type Option func(*Store)

// WithPrefix namespaces every key, letting several pools share one database.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{client: client, prefix: defaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(parts ...string) string {
	k := s.prefix
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

func (s *Store) shelterKey(wallet domain.Address) string {
	return s.key("shelter", wallet.Hex())
}

func (s *Store) Admin(ctx context.Context) (domain.Address, error) {
	value, err := s.client.Get(ctx, s.key("admin")).Result()
	if errors.Is(err, redis.Nil) {
		return domain.ZeroAddress, nil
	}
	if err != nil {
		return domain.ZeroAddress, storeErr("read admin", err)
	}
	return parseAddress(value)
}

func (s *Store) SetAdmin(ctx context.Context, admin domain.Address) error {
	var err error
	if admin == domain.ZeroAddress {
		err = s.client.Del(ctx, s.key("admin")).Err()
	} else {
		err = s.client.Set(ctx, s.key("admin"), admin.Hex(), 0).Err()
	}
	if err != nil {
		return storeErr("write admin", err)
	}
	return nil
}

func (s *Store) Shelter(ctx context.Context, wallet domain.Address) (models.Shelter, bool, error) {
	fields, err := s.client.HGetAll(ctx, s.shelterKey(wallet)).Result()
	if err != nil {
		return models.Shelter{}, false, storeErr("read shelter", err)
	}
	if len(fields) == 0 {
		return models.EmptyShelter(wallet), false, nil
	}
	total, err := parseAmount(fields[fieldTotalReceived])
	if err != nil {
		return models.Shelter{}, false, err
	}
	return models.Shelter{
		Name:          fields[fieldName],
		Wallet:        wallet,
		TotalReceived: total,
		Active:        fields[fieldActive] == "1",
	}, true, nil
}

func (s *Store) SetShelter(ctx context.Context, shelter models.Shelter) error {
	active := "0"
	if shelter.Active {
		active = "1"
	}
	err := s.client.HSet(ctx, s.shelterKey(shelter.Wallet),
		fieldName, shelter.Name,
		fieldTotalReceived, formatAmount(shelter.TotalReceived),
		fieldActive, active,
	).Err()
	if err != nil {
		return storeErr("write shelter", err)
	}
	return nil
}

func (s *Store) DeleteShelter(ctx context.Context, wallet domain.Address) error {
	if err := s.client.Del(ctx, s.shelterKey(wallet)).Err(); err != nil {
		return storeErr("delete shelter", err)
	}
	return nil
}

func (s *Store) Balance(ctx context.Context, wallet domain.Address) (*uint256.Int, error) {
	value, err := s.client.HGet(ctx, s.key("balances"), wallet.Hex()).Result()
	if errors.Is(err, redis.Nil) {
		return new(uint256.Int), nil
	}
	if err != nil {
		return nil, storeErr("read balance", err)
	}
	return parseAmount(value)
}

func (s *Store) SetBalance(ctx context.Context, wallet domain.Address, amount *uint256.Int) error {
	if err := s.client.HSet(ctx, s.key("balances"), wallet.Hex(), formatAmount(amount)).Err(); err != nil {
		return storeErr("write balance", err)
	}
	return nil
}

func (s *Store) Members(ctx context.Context) ([]domain.Address, error) {
	values, err := s.client.LRange(ctx, s.key("members"), 0, -1).Result()
	if err != nil {
		return nil, storeErr("read members", err)
	}
	members := make([]domain.Address, 0, len(values))
	for _, v := range values {
		address, err := parseAddress(v)
		if err != nil {
			return nil, err
		}
		members = append(members, address)
	}
	return members, nil
}

// SetMembers replaces the list in one MULTI/EXEC block.
func (s *Store) SetMembers(ctx context.Context, members []domain.Address) error {
	key := s.key("members")
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(members) == 0 {
			return nil
		}
		values := make([]any, len(members))
		for i, m := range members {
			values[i] = m.Hex()
		}
		pipe.RPush(ctx, key, values...)
		return nil
	})
	if err != nil {
		return storeErr("write members", err)
	}
	return nil
}

func (s *Store) TotalDonations(ctx context.Context) (*uint256.Int, error) {
	value, err := s.client.Get(ctx, s.key("total_donations")).Result()
	if errors.Is(err, redis.Nil) {
		return new(uint256.Int), nil
	}
	if err != nil {
		return nil, storeErr("read total donations", err)
	}
	return parseAmount(value)
}

func (s *Store) SetTotalDonations(ctx context.Context, total *uint256.Int) error {
	if err := s.client.Set(ctx, s.key("total_donations"), formatAmount(total), 0).Err(); err != nil {
		return storeErr("write total donations", err)
	}
	return nil
}

func formatAmount(amount *uint256.Int) string {
	if amount == nil {
		return "0"
	}
	return amount.Dec()
}

func parseAmount(value string) (*uint256.Int, error) {
	if value == "" {
		return new(uint256.Int), nil
	}
	amount, err := uint256.FromDecimal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: amount %q: %v", sentinel.ErrCorrupt, value, err)
	}
	return amount, nil
}

func parseAddress(value string) (domain.Address, error) {
	if !common.IsHexAddress(value) {
		return domain.ZeroAddress, fmt.Errorf("%w: address %q", sentinel.ErrCorrupt, value)
	}
	return common.HexToAddress(value), nil
}
