// Package ledger tracks the withdrawable balance owed to each shelter.
package ledger

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"

	"donationpool/pkg/domain"
	dErrors "donationpool/pkg/domain-errors"
)

// Store is the slice of pool state the ledger reads and writes.
type Store interface {
	Balance(ctx context.Context, wallet domain.Address) (*uint256.Int, error)
	SetBalance(ctx context.Context, wallet domain.Address, amount *uint256.Int) error
}

type Ledger struct {
	store Store
}

func New(store Store) *Ledger {
	return &Ledger{store: store}
}

// Balance returns the unwithdrawn balance of wallet.
func (l *Ledger) Balance(ctx context.Context, wallet domain.Address) (*uint256.Int, error) {
	b, err := l.store.Balance(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("load balance: %w", err)
	}
	return b, nil
}

// Credit adds amount to wallet's balance, failing rather than wrapping.
func (l *Ledger) Credit(ctx context.Context, wallet domain.Address, amount *uint256.Int) error {
	current, err := l.Balance(ctx, wallet)
	if err != nil {
		return err
	}
	next, overflow := new(uint256.Int).AddOverflow(current, amount)
	if overflow {
		return dErrors.New(dErrors.CodeOverflow, "shelter balance overflows")
	}
	if err := l.store.SetBalance(ctx, wallet, next); err != nil {
		return fmt.Errorf("store balance: %w", err)
	}
	return nil
}

// WithdrawAll zeroes wallet's balance and returns what it held. The balance
// is zero in the store before this returns, so any payout the caller makes
// afterwards cannot be claimed twice by a reentrant withdrawal.
func (l *Ledger) WithdrawAll(ctx context.Context, wallet domain.Address) (*uint256.Int, error) {
	amount, err := l.Balance(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if amount.IsZero() {
		return nil, dErrors.New(dErrors.CodeNothingToWithdraw, "no funds to withdraw")
	}
	if err := l.store.SetBalance(ctx, wallet, new(uint256.Int)); err != nil {
		return nil, fmt.Errorf("store balance: %w", err)
	}
	return amount, nil
}
