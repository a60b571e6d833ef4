// Package state defines the key-indexed storage the pool runs on and the
// undo journal that makes every pool call all-or-nothing.
package state

import (
	"context"

	"github.com/holiman/uint256"

	"donationpool/internal/pool/models"
	"donationpool/pkg/domain"
)

// Store is the pool's persistent state. Implementations own the encoding;
// the pool only ever sees typed values. Amount getters return zero, never
// nil, for keys that were never written. Returned values are copies.
type Store interface {
	Admin(ctx context.Context) (domain.Address, error)
	SetAdmin(ctx context.Context, admin domain.Address) error

	// Shelter returns the record for wallet and whether one was ever stored.
	Shelter(ctx context.Context, wallet domain.Address) (models.Shelter, bool, error)
	SetShelter(ctx context.Context, shelter models.Shelter) error
	// DeleteShelter exists only so a rolled-back first registration leaves
	// no record behind. Pool operations never delete shelters.
	DeleteShelter(ctx context.Context, wallet domain.Address) error

	Balance(ctx context.Context, wallet domain.Address) (*uint256.Int, error)
	SetBalance(ctx context.Context, wallet domain.Address, amount *uint256.Int) error

	// Members is the ordered membership list used for enumeration.
	Members(ctx context.Context) ([]domain.Address, error)
	SetMembers(ctx context.Context, members []domain.Address) error

	TotalDonations(ctx context.Context) (*uint256.Int, error)
	SetTotalDonations(ctx context.Context, total *uint256.Int) error
}
