// Package registry maintains shelter records and the ordered membership list
// used to enumerate them. Access control is the caller's job; the registry
// only enforces its own state rules.
package registry

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"

	"donationpool/internal/pool/models"
	"donationpool/pkg/domain"
	dErrors "donationpool/pkg/domain-errors"
)

// Store is the slice of pool state the registry reads and writes.
type Store interface {
	Shelter(ctx context.Context, wallet domain.Address) (models.Shelter, bool, error)
	SetShelter(ctx context.Context, shelter models.Shelter) error
	Members(ctx context.Context) ([]domain.Address, error)
	SetMembers(ctx context.Context, members []domain.Address) error
}

// Emitter receives notifications for successful registry changes.
type Emitter interface {
	Emit(event models.Event)
}

type Registry struct {
	store   Store
	emitter Emitter
}

func New(store Store, emitter Emitter) *Registry {
	return &Registry{store: store, emitter: emitter}
}

// Register creates (or overwrites an inactive) record for wallet and appends
// it to the membership list.
func (r *Registry) Register(ctx context.Context, wallet domain.Address, name string) error {
	if wallet == domain.ZeroAddress {
		return dErrors.New(dErrors.CodeInvalidIdentity, "invalid shelter address")
	}
	current, _, err := r.store.Shelter(ctx, wallet)
	if err != nil {
		return fmt.Errorf("load shelter: %w", err)
	}
	if current.Active {
		return dErrors.New(dErrors.CodeAlreadyActive, "shelter already exists")
	}

	shelter := models.Shelter{
		Name:          name,
		Wallet:        wallet,
		TotalReceived: new(uint256.Int),
		Active:        true,
	}
	if err := r.store.SetShelter(ctx, shelter); err != nil {
		return fmt.Errorf("store shelter: %w", err)
	}

	members, err := r.store.Members(ctx)
	if err != nil {
		return fmt.Errorf("load members: %w", err)
	}
	if err := r.store.SetMembers(ctx, append(members, wallet)); err != nil {
		return fmt.Errorf("store members: %w", err)
	}

	r.emitter.Emit(models.ShelterAdded(wallet, name))
	return nil
}

// Deregister marks wallet inactive and swap-removes its first occurrence from
// the membership list. Balance and lifetime totals are left untouched.
func (r *Registry) Deregister(ctx context.Context, wallet domain.Address) error {
	shelter, _, err := r.store.Shelter(ctx, wallet)
	if err != nil {
		return fmt.Errorf("load shelter: %w", err)
	}
	if !shelter.Active {
		return dErrors.New(dErrors.CodeNotFound, "shelter not found")
	}

	shelter.Active = false
	if err := r.store.SetShelter(ctx, shelter); err != nil {
		return fmt.Errorf("store shelter: %w", err)
	}

	members, err := r.store.Members(ctx)
	if err != nil {
		return fmt.Errorf("load members: %w", err)
	}
	if i := indexOf(members, wallet); i >= 0 {
		last := len(members) - 1
		members[i] = members[last]
		if err := r.store.SetMembers(ctx, members[:last]); err != nil {
			return fmt.Errorf("store members: %w", err)
		}
	}

	r.emitter.Emit(models.ShelterRemoved(wallet))
	return nil
}

// CreditReceived adds a net credit to the lifetime total of wallet.
func (r *Registry) CreditReceived(ctx context.Context, wallet domain.Address, amount *uint256.Int) error {
	shelter, _, err := r.store.Shelter(ctx, wallet)
	if err != nil {
		return fmt.Errorf("load shelter: %w", err)
	}
	total, overflow := new(uint256.Int).AddOverflow(shelter.TotalReceived, amount)
	if overflow {
		return dErrors.New(dErrors.CodeOverflow, "shelter total received overflows")
	}
	shelter.TotalReceived = total
	if err := r.store.SetShelter(ctx, shelter); err != nil {
		return fmt.Errorf("store shelter: %w", err)
	}
	return nil
}

func (r *Registry) IsActive(ctx context.Context, wallet domain.Address) (bool, error) {
	shelter, _, err := r.store.Shelter(ctx, wallet)
	if err != nil {
		return false, fmt.Errorf("load shelter: %w", err)
	}
	return shelter.Active, nil
}

// Get returns a snapshot of the record, or an inactive empty record for
// identities never registered.
func (r *Registry) Get(ctx context.Context, wallet domain.Address) (models.Shelter, error) {
	shelter, _, err := r.store.Shelter(ctx, wallet)
	if err != nil {
		return models.Shelter{}, fmt.Errorf("load shelter: %w", err)
	}
	return shelter, nil
}

// CountActive counts membership entries whose record is active.
func (r *Registry) CountActive(ctx context.Context) (uint64, error) {
	active, err := r.ListActive(ctx)
	if err != nil {
		return 0, err
	}
	return uint64(len(active)), nil
}

// ListActive returns active members in current membership-list order.
func (r *Registry) ListActive(ctx context.Context) ([]domain.Address, error) {
	members, err := r.store.Members(ctx)
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	active := make([]domain.Address, 0, len(members))
	for _, wallet := range members {
		shelter, _, err := r.store.Shelter(ctx, wallet)
		if err != nil {
			return nil, fmt.Errorf("load shelter: %w", err)
		}
		if shelter.Active {
			active = append(active, wallet)
		}
	}
	return active, nil
}

func indexOf(members []domain.Address, wallet domain.Address) int {
	for i, m := range members {
		if m == wallet {
			return i
		}
	}
	return -1
}
