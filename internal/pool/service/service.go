package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/holiman/uint256"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"donationpool/internal/pool/fee"
	"donationpool/internal/pool/ledger"
	"donationpool/internal/pool/metrics"
	"donationpool/internal/pool/models"
	"donationpool/internal/pool/registry"
	"donationpool/internal/pool/state"
	"donationpool/pkg/domain"
	dErrors "donationpool/pkg/domain-errors"
	"donationpool/pkg/platform/sentinel"
	ptx "donationpool/pkg/platform/tx"
	"donationpool/pkg/requestcontext"
)

const tracerName = "donationpool/internal/pool/service"

// Service is the donation pool. It enforces access control, drives the
// registry and ledger, and keeps the running donation total.
//
// Calls must be serialised by the host. A call made from inside a custody
// transfer with the transfer's context is treated as reentrant: it joins the
// open journal and sees every write the outer call has made so far.
type Service struct {
	store     state.Store
	custody   Custody
	publisher Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithPublisher(publisher Publisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// New constructs a Service.
func New(store state.Store, custody Custody, opts ...Option) *Service {
	s := &Service{store: store, custody: custody}
	for _, opt := range opts {
		opt(s)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	return s
}

// Initialize records caller as the pool administrator. It succeeds once;
// later calls fail with already_initialized and leave the recorded admin in
// place, so the admin cannot be replaced after initialization.
func (s *Service) Initialize(ctx context.Context, caller domain.Address) error {
	err := s.execute(ctx, "initialize", func(ctx context.Context, tx *state.Tx) error {
		if caller == domain.ZeroAddress {
			return dErrors.New(dErrors.CodeInvalidIdentity, "admin cannot be the zero address")
		}
		admin, err := tx.Admin(ctx)
		if err != nil {
			return err
		}
		if admin != domain.ZeroAddress {
			return dErrors.New(dErrors.CodeAlreadyInitialized, "pool is already initialized")
		}
		return tx.SetAdmin(ctx, caller)
	})
	if err != nil {
		return err
	}
	s.logAudit(ctx, "pool_initialized", "admin", caller.Hex())
	return nil
}

// RegisterShelter adds or re-activates a shelter. Admin only.
func (s *Service) RegisterShelter(ctx context.Context, caller, wallet domain.Address, name string) error {
	var active uint64
	err := s.execute(ctx, "register_shelter", func(ctx context.Context, tx *state.Tx) error {
		if err := requireAdmin(ctx, tx, caller); err != nil {
			return err
		}
		reg := registry.New(tx, tx)
		if err := reg.Register(ctx, wallet, name); err != nil {
			return err
		}
		count, err := reg.CountActive(ctx)
		active = count
		return err
	})
	if err != nil {
		return err
	}
	s.logAudit(ctx, "shelter_added", "shelter", wallet.Hex(), "name", name)
	s.setActiveGauge(ctx, active)
	return nil
}

// RemoveShelter deactivates a shelter. Its balance stays in the ledger but
// can no longer be withdrawn unless the shelter is registered again. Admin only.
func (s *Service) RemoveShelter(ctx context.Context, caller, wallet domain.Address) error {
	var active uint64
	err := s.execute(ctx, "remove_shelter", func(ctx context.Context, tx *state.Tx) error {
		if err := requireAdmin(ctx, tx, caller); err != nil {
			return err
		}
		reg := registry.New(tx, tx)
		if err := reg.Deregister(ctx, wallet); err != nil {
			return err
		}
		count, err := reg.CountActive(ctx)
		active = count
		return err
	})
	if err != nil {
		return err
	}
	s.logAudit(ctx, "shelter_removed", "shelter", wallet.Hex())
	s.setActiveGauge(ctx, active)
	return nil
}

// DonateToShelter credits the net of gross to one active shelter.
func (s *Service) DonateToShelter(ctx context.Context, donor, wallet domain.Address, gross *uint256.Int) error {
	var net *uint256.Int
	err := s.execute(ctx, "donate_to_shelter", func(ctx context.Context, tx *state.Tx) error {
		if err := requirePositive(gross); err != nil {
			return err
		}
		reg := registry.New(tx, tx)
		active, err := reg.IsActive(ctx, wallet)
		if err != nil {
			return err
		}
		if !active {
			return dErrors.New(dErrors.CodeShelterInactive, "shelter not active")
		}
		if _, net, err = fee.Split(gross); err != nil {
			return err
		}
		if err := credit(ctx, tx, reg, wallet, net); err != nil {
			return err
		}
		if err := addTotalDonations(ctx, tx, gross); err != nil {
			return err
		}
		tx.Emit(models.DonationMade(donor, wallet, net))
		return nil
	})
	if err != nil {
		return err
	}
	s.logAudit(ctx, "donation_made", "donor", donor.Hex(), "shelter", wallet.Hex(),
		"gross", gross.Dec(), "net", net.Dec())
	s.incrementDonation(ctx, "shelter")
	return nil
}

// DonateToPool splits the net of gross evenly across active shelters in
// membership order. The remainder of the division stays in custody.
func (s *Service) DonateToPool(ctx context.Context, donor domain.Address, gross *uint256.Int) error {
	var perShelter *uint256.Int
	var recipients int
	err := s.execute(ctx, "donate_to_pool", func(ctx context.Context, tx *state.Tx) error {
		if err := requirePositive(gross); err != nil {
			return err
		}
		reg := registry.New(tx, tx)
		active, err := reg.ListActive(ctx)
		if err != nil {
			return err
		}
		if len(active) == 0 {
			return dErrors.New(dErrors.CodeNoActiveShelters, "no active shelters")
		}
		_, net, err := fee.Split(gross)
		if err != nil {
			return err
		}
		perShelter = new(uint256.Int).Div(net, uint256.NewInt(uint64(len(active))))
		for _, wallet := range active {
			if err := credit(ctx, tx, reg, wallet, perShelter); err != nil {
				return err
			}
			tx.Emit(models.DonationMade(donor, wallet, perShelter))
		}
		recipients = len(active)
		return addTotalDonations(ctx, tx, gross)
	})
	if err != nil {
		return err
	}
	s.logAudit(ctx, "pool_donation_made", "donor", donor.Hex(), "gross", gross.Dec(),
		"per_shelter", perShelter.Dec(), "recipients", recipients)
	s.incrementDonation(ctx, "pool")
	return nil
}

// Withdraw pays caller its whole balance. The balance is zeroed before the
// transfer is requested and restored if the transfer fails.
func (s *Service) Withdraw(ctx context.Context, caller domain.Address) (*uint256.Int, error) {
	var amount *uint256.Int
	err := s.execute(ctx, "withdraw", func(ctx context.Context, tx *state.Tx) error {
		active, err := registry.New(tx, tx).IsActive(ctx, caller)
		if err != nil {
			return err
		}
		if !active {
			return dErrors.New(dErrors.CodeShelterInactive, "only registered shelters can withdraw")
		}
		if amount, err = ledger.New(tx).WithdrawAll(ctx, caller); err != nil {
			return err
		}
		if err := s.custody.Transfer(ctx, caller, amount); err != nil {
			return dErrors.Wrap(err, dErrors.CodeTransferFailed, "transfer to shelter failed")
		}
		tx.Emit(models.FundsWithdrawn(caller, amount))
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, "funds_withdrawn", "shelter", caller.Hex(), "amount", amount.Dec())
	s.incrementWithdrawal(ctx, "shelter")
	return amount, nil
}

// WithdrawFees pays the admin the entire custody balance. That balance
// includes shelter funds not yet withdrawn, not only accrued fees.
func (s *Service) WithdrawFees(ctx context.Context, caller domain.Address) (*uint256.Int, error) {
	var amount *uint256.Int
	err := s.execute(ctx, "withdraw_fees", func(ctx context.Context, tx *state.Tx) error {
		if err := requireAdmin(ctx, tx, caller); err != nil {
			return err
		}
		balance, err := s.custody.Balance(ctx)
		if err != nil {
			return err
		}
		if balance.IsZero() {
			return dErrors.New(dErrors.CodeNothingToWithdraw, "no fees to withdraw")
		}
		if err := s.custody.Transfer(ctx, caller, balance); err != nil {
			return dErrors.Wrap(err, dErrors.CodeTransferFailed, "transfer to admin failed")
		}
		amount = balance
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, "fees_withdrawn", "admin", caller.Hex(), "amount", amount.Dec())
	s.incrementWithdrawal(ctx, "fees")
	return amount, nil
}

// ShelterInfo returns the record and balance of wallet. Unknown wallets
// yield an inactive, empty record.
func (s *Service) ShelterInfo(ctx context.Context, wallet domain.Address) (*models.ShelterInfo, error) {
	var info *models.ShelterInfo
	err := s.execute(ctx, "get_shelter_info", func(ctx context.Context, tx *state.Tx) error {
		shelter, err := registry.New(tx, tx).Get(ctx, wallet)
		if err != nil {
			return err
		}
		balance, err := ledger.New(tx).Balance(ctx, wallet)
		if err != nil {
			return err
		}
		info = &models.ShelterInfo{
			Wallet:        wallet,
			Name:          shelter.Name,
			Balance:       balance,
			TotalReceived: shelter.TotalReceived,
			Active:        shelter.Active,
		}
		return nil
	})
	return info, err
}

// ActiveShelters lists active shelters in membership order.
func (s *Service) ActiveShelters(ctx context.Context) ([]domain.Address, error) {
	var active []domain.Address
	err := s.execute(ctx, "get_active_shelters", func(ctx context.Context, tx *state.Tx) error {
		var err error
		active, err = registry.New(tx, tx).ListActive(ctx)
		return err
	})
	return active, err
}

// Stats reports the donation total, active shelter count and custody balance.
func (s *Service) Stats(ctx context.Context) (*models.PoolStats, error) {
	var stats *models.PoolStats
	err := s.execute(ctx, "get_pool_stats", func(ctx context.Context, tx *state.Tx) error {
		total, err := tx.TotalDonations(ctx)
		if err != nil {
			return err
		}
		count, err := registry.New(tx, tx).CountActive(ctx)
		if err != nil {
			return err
		}
		custody, err := s.custody.Balance(ctx)
		if err != nil {
			return err
		}
		stats = &models.PoolStats{TotalDonations: total, ActiveCount: count, CustodyBalance: custody}
		return nil
	})
	return stats, err
}

// execute runs fn as one all-or-nothing frame. The outermost frame owns the
// journal and publishes its notifications once the enclosing unit of work
// commits; nested frames only revert their own writes on failure.
func (s *Service) execute(ctx context.Context, op string, fn func(ctx context.Context, tx *state.Tx) error) (err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "pool."+op)
	defer func() {
		s.finish(ctx, span, op, start, err)
	}()

	tx, nested := state.TxFrom(ctx)
	if !nested {
		tx = state.Begin(s.store)
		ctx = state.WithTx(ctx, tx)
	}
	span.SetAttributes(attribute.Bool("pool.reentrant", nested))

	rev := tx.Snapshot()
	if ferr := fn(ctx, tx); ferr != nil {
		if rerr := tx.RevertTo(ctx, rev); rerr != nil {
			return dErrors.Wrap(errors.Join(ferr, rerr), dErrors.CodeInternal, op+": failed to roll back state")
		}
		var de *dErrors.Error
		switch {
		case errors.As(ferr, &de):
			return ferr
		case errors.Is(ferr, sentinel.ErrUnavailable):
			return dErrors.Wrap(ferr, dErrors.CodeUnavailable, op+": store unavailable")
		default:
			return dErrors.Wrap(ferr, dErrors.CodeInternal, op+" failed")
		}
	}
	if !nested {
		events := tx.Events()
		ptx.AfterCommit(ctx, func() { s.publish(ctx, events) })
	}
	return nil
}

func (s *Service) finish(ctx context.Context, span trace.Span, op string, start time.Time, err error) {
	defer span.End()
	outcome := "ok"
	if err != nil {
		outcome = string(dErrors.CodeOf(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		if s.logger != nil {
			s.logger.DebugContext(ctx, "pool operation rejected", "operation", op, "code", outcome, "error", err)
		}
	}
	span.SetAttributes(attribute.String("pool.outcome", outcome))
	if s.metrics != nil {
		s.metrics.ObserveOperation(op, outcome, start)
	}
}

func (s *Service) publish(ctx context.Context, events []models.Event) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to publish pool events", "count", len(events), "error", err)
	}
}

// logAudit writes an audit line once the call's unit of work commits.
func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if s.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	ptx.AfterCommit(ctx, func() {
		s.logger.InfoContext(ctx, event, args...)
	})
}

func (s *Service) setActiveGauge(ctx context.Context, count uint64) {
	if s.metrics == nil {
		return
	}
	ptx.AfterCommit(ctx, func() { s.metrics.SetActiveShelters(count) })
}

func (s *Service) incrementDonation(ctx context.Context, path string) {
	if s.metrics == nil {
		return
	}
	ptx.AfterCommit(ctx, func() { s.metrics.IncrementDonation(path) })
}

func (s *Service) incrementWithdrawal(ctx context.Context, kind string) {
	if s.metrics == nil {
		return
	}
	ptx.AfterCommit(ctx, func() { s.metrics.IncrementWithdrawal(kind) })
}

func requireAdmin(ctx context.Context, store state.Store, caller domain.Address) error {
	admin, err := store.Admin(ctx)
	if err != nil {
		return err
	}
	if admin == domain.ZeroAddress || caller != admin {
		return dErrors.New(dErrors.CodeNotAuthorized, "only admin can call this function")
	}
	return nil
}

func requirePositive(amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return dErrors.New(dErrors.CodeInvalidAmount, "donation amount must be greater than 0")
	}
	return nil
}

// credit adds a net amount to both the withdrawable balance and the lifetime
// total of wallet.
func credit(ctx context.Context, tx *state.Tx, reg *registry.Registry, wallet domain.Address, amount *uint256.Int) error {
	if err := ledger.New(tx).Credit(ctx, wallet, amount); err != nil {
		return err
	}
	return reg.CreditReceived(ctx, wallet, amount)
}

func addTotalDonations(ctx context.Context, tx *state.Tx, gross *uint256.Int) error {
	total, err := tx.TotalDonations(ctx)
	if err != nil {
		return err
	}
	next, overflow := new(uint256.Int).AddOverflow(total, gross)
	if overflow {
		return dErrors.New(dErrors.CodeOverflow, "total donations overflows")
	}
	return tx.SetTotalDonations(ctx, next)
}
