// Package host is the execution environment around the pool: it serialises
// calls, attaches donated value to custody and pays withdrawals out of it.
package host

import (
	"context"
	"log/slog"
	"sync"

	"github.com/holiman/uint256"

	"donationpool/internal/pool/models"
	"donationpool/pkg/domain"
	"donationpool/pkg/platform/tx"
)

// Pool is the pool surface the host drives.
type Pool interface {
	Initialize(ctx context.Context, caller domain.Address) error
	RegisterShelter(ctx context.Context, caller, wallet domain.Address, name string) error
	RemoveShelter(ctx context.Context, caller, wallet domain.Address) error
	DonateToShelter(ctx context.Context, donor, wallet domain.Address, gross *uint256.Int) error
	DonateToPool(ctx context.Context, donor domain.Address, gross *uint256.Int) error
	Withdraw(ctx context.Context, caller domain.Address) (*uint256.Int, error)
	WithdrawFees(ctx context.Context, caller domain.Address) (*uint256.Int, error)
	ShelterInfo(ctx context.Context, wallet domain.Address) (*models.ShelterInfo, error)
	ActiveShelters(ctx context.Context) ([]domain.Address, error)
	Stats(ctx context.Context) (*models.PoolStats, error)
}

// Host runs pool calls one at a time. Calls made from a receive hook with the
// hook's context run inline as part of the call that triggered the payment.
type Host struct {
	mu     sync.Mutex
	pool   Pool
	vault  *Vault
	runner tx.Runner
	logger *slog.Logger
}

type Option func(*Host)

// WithRunner wraps every top-level call in runner's transaction.
func WithRunner(runner tx.Runner) Option {
	return func(h *Host) {
		if runner != nil {
			h.runner = runner
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) {
		h.logger = logger
	}
}

func New(pool Pool, vault *Vault, opts ...Option) *Host {
	h := &Host{pool: pool, vault: vault, runner: tx.Passthrough{}}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type inCallKey struct{}

func (h *Host) call(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(inCallKey{}) != nil {
		return fn(ctx)
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	// the host owns the commit hooks so notifications wait for any runner,
	// including ones that fail after fn returns
	ctx, hooks, _ := tx.WithCommitHooks(context.WithValue(ctx, inCallKey{}, struct{}{}))
	snap := h.vault.snapshot()
	if err := h.runner.RunInTx(ctx, fn); err != nil {
		// value moved by reentrant calls is undone with the rest of the call
		h.vault.restore(snap)
		hooks.Discard()
		return err
	}
	hooks.Run()
	return nil
}

// withValue deposits value for the duration of fn and refunds it if the call
// does not complete.
func (h *Host) withValue(ctx context.Context, value *uint256.Int, fn func(ctx context.Context) error) error {
	return h.call(ctx, func(ctx context.Context) error {
		if value == nil || value.IsZero() {
			return fn(ctx)
		}
		if err := h.vault.Deposit(value); err != nil {
			return err
		}
		if err := fn(ctx); err != nil {
			if rerr := h.vault.Refund(value); rerr != nil && h.logger != nil {
				h.logger.ErrorContext(ctx, "failed to refund attached value", "amount", value.Dec(), "error", rerr)
			}
			return err
		}
		return nil
	})
}

func (h *Host) Initialize(ctx context.Context, caller domain.Address) error {
	return h.call(ctx, func(ctx context.Context) error {
		return h.pool.Initialize(ctx, caller)
	})
}

func (h *Host) RegisterShelter(ctx context.Context, caller, wallet domain.Address, name string) error {
	return h.call(ctx, func(ctx context.Context) error {
		return h.pool.RegisterShelter(ctx, caller, wallet, name)
	})
}

func (h *Host) RemoveShelter(ctx context.Context, caller, wallet domain.Address) error {
	return h.call(ctx, func(ctx context.Context) error {
		return h.pool.RemoveShelter(ctx, caller, wallet)
	})
}

// DonateToShelter attaches value to custody and credits its net to wallet.
func (h *Host) DonateToShelter(ctx context.Context, donor, wallet domain.Address, value *uint256.Int) error {
	return h.withValue(ctx, value, func(ctx context.Context) error {
		return h.pool.DonateToShelter(ctx, donor, wallet, value)
	})
}

// DonateToPool attaches value to custody and splits its net across active shelters.
func (h *Host) DonateToPool(ctx context.Context, donor domain.Address, value *uint256.Int) error {
	return h.withValue(ctx, value, func(ctx context.Context) error {
		return h.pool.DonateToPool(ctx, donor, value)
	})
}

func (h *Host) Withdraw(ctx context.Context, caller domain.Address) (*uint256.Int, error) {
	var amount *uint256.Int
	err := h.call(ctx, func(ctx context.Context) error {
		var err error
		amount, err = h.pool.Withdraw(ctx, caller)
		return err
	})
	return amount, err
}

func (h *Host) WithdrawFees(ctx context.Context, caller domain.Address) (*uint256.Int, error) {
	var amount *uint256.Int
	err := h.call(ctx, func(ctx context.Context) error {
		var err error
		amount, err = h.pool.WithdrawFees(ctx, caller)
		return err
	})
	return amount, err
}

func (h *Host) ShelterInfo(ctx context.Context, wallet domain.Address) (*models.ShelterInfo, error) {
	var info *models.ShelterInfo
	err := h.call(ctx, func(ctx context.Context) error {
		var err error
		info, err = h.pool.ShelterInfo(ctx, wallet)
		return err
	})
	return info, err
}

func (h *Host) ActiveShelters(ctx context.Context) ([]domain.Address, error) {
	var active []domain.Address
	err := h.call(ctx, func(ctx context.Context) error {
		var err error
		active, err = h.pool.ActiveShelters(ctx)
		return err
	})
	return active, err
}

func (h *Host) Stats(ctx context.Context) (*models.PoolStats, error) {
	var stats *models.PoolStats
	err := h.call(ctx, func(ctx context.Context) error {
		var err error
		stats, err = h.pool.Stats(ctx)
		return err
	})
	return stats, err
}

// Vault exposes custody for receive hooks and payout inspection.
func (h *Host) Vault() *Vault {
	return h.vault
}
