package state

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/holiman/uint256"

	"donationpool/internal/pool/models"
	"donationpool/pkg/domain"
)

// Tx is an undo journal over a Store. Writes go straight through to the
// underlying store and record how to restore the previous value; notifications
// are buffered until the owner decides the call succeeded.
//
// A Tx is confined to one logical call (including any reentrant calls made
// with the same context) and is not safe for concurrent use.
type Tx struct {
	base   Store
	undo   []func(ctx context.Context) error
	events []models.Event
}

// Revision marks a point a Tx can be reverted to.
type Revision struct {
	undo   int
	events int
}

// Begin opens a journal over base.
func Begin(base Store) *Tx {
	return &Tx{base: base}
}

// Snapshot returns the current revision.
func (t *Tx) Snapshot() Revision {
	return Revision{undo: len(t.undo), events: len(t.events)}
}

// RevertTo undoes every write made after rev, newest first, and drops the
// notifications buffered after it.
func (t *Tx) RevertTo(ctx context.Context, rev Revision) error {
	var errs []error
	for i := len(t.undo) - 1; i >= rev.undo; i-- {
		if err := t.undo[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	t.undo = t.undo[:rev.undo]
	t.events = t.events[:rev.events]
	if len(errs) > 0 {
		return fmt.Errorf("revert journal: %w", errors.Join(errs...))
	}
	return nil
}

// Emit buffers a notification.
func (t *Tx) Emit(event models.Event) {
	t.events = append(t.events, event)
}

// Events returns the buffered notifications in emission order.
func (t *Tx) Events() []models.Event {
	return slices.Clone(t.events)
}

func (t *Tx) Admin(ctx context.Context) (domain.Address, error) {
	return t.base.Admin(ctx)
}

func (t *Tx) SetAdmin(ctx context.Context, admin domain.Address) error {
	prev, err := t.base.Admin(ctx)
	if err != nil {
		return err
	}
	if err := t.base.SetAdmin(ctx, admin); err != nil {
		return err
	}
	t.record(func(ctx context.Context) error { return t.base.SetAdmin(ctx, prev) })
	return nil
}

func (t *Tx) Shelter(ctx context.Context, wallet domain.Address) (models.Shelter, bool, error) {
	return t.base.Shelter(ctx, wallet)
}

func (t *Tx) SetShelter(ctx context.Context, shelter models.Shelter) error {
	prev, existed, err := t.base.Shelter(ctx, shelter.Wallet)
	if err != nil {
		return err
	}
	if err := t.base.SetShelter(ctx, shelter); err != nil {
		return err
	}
	wallet := shelter.Wallet
	t.record(func(ctx context.Context) error {
		if !existed {
			return t.base.DeleteShelter(ctx, wallet)
		}
		return t.base.SetShelter(ctx, prev)
	})
	return nil
}

func (t *Tx) DeleteShelter(ctx context.Context, wallet domain.Address) error {
	prev, existed, err := t.base.Shelter(ctx, wallet)
	if err != nil {
		return err
	}
	if !existed {
		return nil
	}
	if err := t.base.DeleteShelter(ctx, wallet); err != nil {
		return err
	}
	t.record(func(ctx context.Context) error { return t.base.SetShelter(ctx, prev) })
	return nil
}

func (t *Tx) Balance(ctx context.Context, wallet domain.Address) (*uint256.Int, error) {
	return t.base.Balance(ctx, wallet)
}

func (t *Tx) SetBalance(ctx context.Context, wallet domain.Address, amount *uint256.Int) error {
	prev, err := t.base.Balance(ctx, wallet)
	if err != nil {
		return err
	}
	if err := t.base.SetBalance(ctx, wallet, amount); err != nil {
		return err
	}
	t.record(func(ctx context.Context) error { return t.base.SetBalance(ctx, wallet, prev) })
	return nil
}

func (t *Tx) Members(ctx context.Context) ([]domain.Address, error) {
	return t.base.Members(ctx)
}

func (t *Tx) SetMembers(ctx context.Context, members []domain.Address) error {
	prev, err := t.base.Members(ctx)
	if err != nil {
		return err
	}
	if err := t.base.SetMembers(ctx, members); err != nil {
		return err
	}
	t.record(func(ctx context.Context) error { return t.base.SetMembers(ctx, prev) })
	return nil
}

func (t *Tx) TotalDonations(ctx context.Context) (*uint256.Int, error) {
	return t.base.TotalDonations(ctx)
}

func (t *Tx) SetTotalDonations(ctx context.Context, total *uint256.Int) error {
	prev, err := t.base.TotalDonations(ctx)
	if err != nil {
		return err
	}
	if err := t.base.SetTotalDonations(ctx, total); err != nil {
		return err
	}
	t.record(func(ctx context.Context) error { return t.base.SetTotalDonations(ctx, prev) })
	return nil
}

func (t *Tx) record(undo func(ctx context.Context) error) {
	t.undo = append(t.undo, undo)
}

type txCtxKey struct{}

// WithTx attaches an open journal to ctx so reentrant calls join it.
func WithTx(ctx context.Context, tx *Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txCtxKey{}, tx)
}

// TxFrom returns the journal attached to ctx, if any.
func TxFrom(ctx context.Context) (*Tx, bool) {
	tx, ok := ctx.Value(txCtxKey{}).(*Tx)
	return tx, ok
}
