package host

import (
	"context"
	"fmt"
	"sync"

	"github.com/holiman/uint256"

	"donationpool/pkg/domain"
	dErrors "donationpool/pkg/domain-errors"
)

// ReceiveHook runs when a recipient is paid. It may call back into the pool
// with ctx; returning an error rejects the payment.
type ReceiveHook func(ctx context.Context, amount *uint256.Int) error

// Vault holds the value attached to donations and pays it out on request.
// It stands in for the account balance of a deployed pool.
type Vault struct {
	mu      sync.Mutex
	balance *uint256.Int
	payouts map[domain.Address]*uint256.Int
	hooks   map[domain.Address]ReceiveHook
}

func NewVault() *Vault {
	return &Vault{
		balance: new(uint256.Int),
		payouts: make(map[domain.Address]*uint256.Int),
		hooks:   make(map[domain.Address]ReceiveHook),
	}
}

// OnReceive installs hook for recipient, replacing any previous one. A nil
// hook removes it.
func (v *Vault) OnReceive(recipient domain.Address, hook ReceiveHook) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if hook == nil {
		delete(v.hooks, recipient)
		return
	}
	v.hooks[recipient] = hook
}

// Deposit adds attached value to custody.
func (v *Vault) Deposit(amount *uint256.Int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	next, overflow := new(uint256.Int).AddOverflow(v.balance, amount)
	if overflow {
		return dErrors.New(dErrors.CodeOverflow, "custody balance overflows")
	}
	v.balance = next
	return nil
}

// Refund returns attached value of a call that did not go through.
func (v *Vault) Refund(amount *uint256.Int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if amount.Gt(v.balance) {
		return fmt.Errorf("refund %s exceeds custody balance %s", amount.Dec(), v.balance.Dec())
	}
	v.balance = new(uint256.Int).Sub(v.balance, amount)
	return nil
}

func (v *Vault) Balance(_ context.Context) (*uint256.Int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.balance.Clone(), nil
}

// Transfer debits custody and credits the recipient's payouts, then runs the
// recipient hook. A hook error undoes the payment.
func (v *Vault) Transfer(ctx context.Context, to domain.Address, amount *uint256.Int) error {
	v.mu.Lock()
	if amount.Gt(v.balance) {
		v.mu.Unlock()
		return fmt.Errorf("insufficient custody balance: have %s, need %s", v.balance.Dec(), amount.Dec())
	}
	v.balance = new(uint256.Int).Sub(v.balance, amount)
	prev := v.payoutLocked(to)
	v.payouts[to] = new(uint256.Int).Add(prev, amount)
	hook := v.hooks[to]
	v.mu.Unlock()

	if hook == nil {
		return nil
	}
	// the hook may reenter and move value, so only undo this payment's delta
	if err := hook(ctx, amount.Clone()); err != nil {
		v.mu.Lock()
		v.balance = new(uint256.Int).Add(v.balance, amount)
		v.payouts[to] = new(uint256.Int).Sub(v.payoutLocked(to), amount)
		v.mu.Unlock()
		return fmt.Errorf("recipient rejected payment: %w", err)
	}
	return nil
}

// Payouts returns the cumulative value paid to recipient.
func (v *Vault) Payouts(recipient domain.Address) *uint256.Int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.payoutLocked(recipient).Clone()
}

func (v *Vault) payoutLocked(recipient domain.Address) *uint256.Int {
	if p, ok := v.payouts[recipient]; ok {
		return p
	}
	return new(uint256.Int)
}

type vaultSnapshot struct {
	balance *uint256.Int
	payouts map[domain.Address]*uint256.Int
}

func (v *Vault) snapshot() vaultSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	payouts := make(map[domain.Address]*uint256.Int, len(v.payouts))
	for k, p := range v.payouts {
		payouts[k] = p.Clone()
	}
	return vaultSnapshot{balance: v.balance.Clone(), payouts: payouts}
}

func (v *Vault) restore(snap vaultSnapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.balance = snap.balance
	v.payouts = snap.payouts
}
