// Package postgres persists pool state in PostgreSQL. Amounts are stored as
// NUMERIC(78,0), wide enough for any 256-bit value.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"donationpool/internal/pool/models"
	"donationpool/pkg/domain"
	"donationpool/pkg/platform/sentinel"
	txcontext "donationpool/pkg/platform/tx"
)

//go:embed schema.sql
var schema string

// Migrate creates the pool tables if they do not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return storeErr("apply pool schema", err)
	}
	return nil
}

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements state.Store. When the context carries a SQL transaction
// every statement runs inside it.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) q(ctx context.Context) dbtx {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Store) Admin(ctx context.Context) (domain.Address, error) {
	var admin sql.NullString
	err := s.q(ctx).QueryRowContext(ctx, `SELECT admin FROM pool_meta WHERE id = 1`).Scan(&admin)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ZeroAddress, nil
	}
	if err != nil {
		return domain.ZeroAddress, storeErr("read admin", err)
	}
	if !admin.Valid {
		return domain.ZeroAddress, nil
	}
	return parseAddress(admin.String)
}

func (s *Store) SetAdmin(ctx context.Context, admin domain.Address) error {
	var value sql.NullString
	if admin != domain.ZeroAddress {
		value = sql.NullString{String: admin.Hex(), Valid: true}
	}
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO pool_meta (id, admin) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET admin = EXCLUDED.admin`, value)
	if err != nil {
		return storeErr("write admin", err)
	}
	return nil
}

func (s *Store) Shelter(ctx context.Context, wallet domain.Address) (models.Shelter, bool, error) {
	var (
		name     string
		received string
		active   bool
	)
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT name, total_received::TEXT, active FROM shelters WHERE wallet = $1`, wallet.Hex(),
	).Scan(&name, &received, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return models.EmptyShelter(wallet), false, nil
	}
	if err != nil {
		return models.Shelter{}, false, storeErr("read shelter", err)
	}
	total, err := parseAmount(received)
	if err != nil {
		return models.Shelter{}, false, err
	}
	return models.Shelter{Name: name, Wallet: wallet, TotalReceived: total, Active: active}, true, nil
}

func (s *Store) SetShelter(ctx context.Context, shelter models.Shelter) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO shelters (wallet, name, total_received, active)
		VALUES ($1, $2, $3::NUMERIC, $4)
		ON CONFLICT (wallet) DO UPDATE
		SET name = EXCLUDED.name, total_received = EXCLUDED.total_received, active = EXCLUDED.active`,
		shelter.Wallet.Hex(), shelter.Name, formatAmount(shelter.TotalReceived), shelter.Active)
	if err != nil {
		return storeErr("write shelter", err)
	}
	return nil
}

func (s *Store) DeleteShelter(ctx context.Context, wallet domain.Address) error {
	if _, err := s.q(ctx).ExecContext(ctx, `DELETE FROM shelters WHERE wallet = $1`, wallet.Hex()); err != nil {
		return storeErr("delete shelter", err)
	}
	return nil
}

func (s *Store) Balance(ctx context.Context, wallet domain.Address) (*uint256.Int, error) {
	var amount string
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT amount::TEXT FROM shelter_balances WHERE wallet = $1`, wallet.Hex(),
	).Scan(&amount)
	if errors.Is(err, sql.ErrNoRows) {
		return new(uint256.Int), nil
	}
	if err != nil {
		return nil, storeErr("read balance", err)
	}
	return parseAmount(amount)
}

func (s *Store) SetBalance(ctx context.Context, wallet domain.Address, amount *uint256.Int) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO shelter_balances (wallet, amount) VALUES ($1, $2::NUMERIC)
		ON CONFLICT (wallet) DO UPDATE SET amount = EXCLUDED.amount`,
		wallet.Hex(), formatAmount(amount))
	if err != nil {
		return storeErr("write balance", err)
	}
	return nil
}

func (s *Store) Members(ctx context.Context) ([]domain.Address, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `SELECT wallet FROM shelter_members ORDER BY position`)
	if err != nil {
		return nil, storeErr("read members", err)
	}
	defer rows.Close()

	var members []domain.Address
	for rows.Next() {
		var wallet string
		if err := rows.Scan(&wallet); err != nil {
			return nil, storeErr("scan member", err)
		}
		address, err := parseAddress(wallet)
		if err != nil {
			return nil, err
		}
		members = append(members, address)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate members", err)
	}
	return members, nil
}

// SetMembers replaces the membership list. Callers that need the replace to
// be atomic run it inside a SQL transaction.
func (s *Store) SetMembers(ctx context.Context, members []domain.Address) error {
	q := s.q(ctx)
	if _, err := q.ExecContext(ctx, `DELETE FROM shelter_members`); err != nil {
		return storeErr("clear members", err)
	}
	for i, wallet := range members {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO shelter_members (position, wallet) VALUES ($1, $2)`, i, wallet.Hex()); err != nil {
			return storeErr("write member", err)
		}
	}
	return nil
}

func (s *Store) TotalDonations(ctx context.Context) (*uint256.Int, error) {
	var total string
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT total_donations::TEXT FROM pool_meta WHERE id = 1`,
	).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return new(uint256.Int), nil
	}
	if err != nil {
		return nil, storeErr("read total donations", err)
	}
	return parseAmount(total)
}

func (s *Store) SetTotalDonations(ctx context.Context, total *uint256.Int) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO pool_meta (id, total_donations) VALUES (1, $1::NUMERIC)
		ON CONFLICT (id) DO UPDATE SET total_donations = EXCLUDED.total_donations`,
		formatAmount(total))
	if err != nil {
		return storeErr("write total donations", err)
	}
	return nil
}

// Health pings the database.
func (s *Store) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func formatAmount(amount *uint256.Int) string {
	if amount == nil {
		return "0"
	}
	return amount.Dec()
}

func parseAmount(value string) (*uint256.Int, error) {
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
