package service

import (
	"context"

	"github.com/holiman/uint256"

	"donationpool/internal/pool/models"
	"donationpool/pkg/domain"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks Custody,Publisher

// Custody is the host's value boundary: the pool never holds value itself.
type Custody interface {
	// Balance is the total value currently held for the pool.
	Balance(ctx context.Context) (*uint256.Int, error)
	// Transfer pays amount to recipient out of custody. The recipient may
	// call back into the pool with ctx before Transfer returns.
	Transfer(ctx context.Context, to domain.Address, amount *uint256.Int) error
}

// Publisher delivers notifications to observers. Failures are logged and
// never fail the operation that produced the events.
type Publisher interface {
	Publish(ctx context.Context, events []models.Event) error
}
