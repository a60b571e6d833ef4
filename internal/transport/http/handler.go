package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/holiman/uint256"

	"donationpool/internal/events/memory"
	"donationpool/internal/platform/middleware"
	"donationpool/internal/pool/models"
	"donationpool/pkg/domain"
	dErrors "donationpool/pkg/domain-errors"
	"donationpool/pkg/platform/httputil"
	"donationpool/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service is the pool as the API sees it: donations carry attached value.
type Service interface {
	RegisterShelter(ctx context.Context, caller, wallet domain.Address, name string) error
	RemoveShelter(ctx context.Context, caller, wallet domain.Address) error
	DonateToShelter(ctx context.Context, donor, wallet domain.Address, value *uint256.Int) error
	DonateToPool(ctx context.Context, donor domain.Address, value *uint256.Int) error
	Withdraw(ctx context.Context, caller domain.Address) (*uint256.Int, error)
	WithdrawFees(ctx context.Context, caller domain.Address) (*uint256.Int, error)
	ShelterInfo(ctx context.Context, wallet domain.Address) (*models.ShelterInfo, error)
	ActiveShelters(ctx context.Context) ([]domain.Address, error)
	Stats(ctx context.Context) (*models.PoolStats, error)
}

// EventFeed serves recently published notifications.
type EventFeed interface {
	Recent(limit int) []memory.Record
}

const (
	defaultEventLimit = 100
	maxEventLimit     = 1000
	maxBodyBytes      = 1 << 16
)

// Handler serves the pool API.
type Handler struct {
	pool         Service
	events       EventFeed
	logger       *slog.Logger
	jwtValidator middleware.JWTValidator
}

func New(pool Service, events EventFeed, jwtValidator middleware.JWTValidator, logger *slog.Logger) *Handler {
	return &Handler{
		pool:         pool,
		events:       events,
		logger:       logger,
		jwtValidator: jwtValidator,
	}
}

// Register mounts the pool routes. Reads are public; every write needs a
// caller token.
func (h *Handler) Register(r chi.Router) {
	r.Get("/shelters", h.handleListShelters)
	r.Get("/shelters/{address}", h.handleGetShelter)
	r.Get("/pool/stats", h.handleStats)
	r.Get("/events", h.handleEvents)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireCaller(h.jwtValidator, h.logger))
		r.Post("/shelters", h.handleRegisterShelter)
		r.Delete("/shelters/{address}", h.handleRemoveShelter)
		r.Post("/shelters/{address}/donations", h.handleDonateToShelter)
		r.Post("/pool/donations", h.handleDonateToPool)
		r.Post("/withdrawals", h.handleWithdraw)
		r.Post("/pool/fees/withdrawals", h.handleWithdrawFees)
	})
}

func (h *Handler) handleRegisterShelter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req registerShelterRequest
	if !h.decode(w, r, &req) {
		return
	}
	wallet, err := domain.ParseAddress(req.Address)
	if err != nil {
		h.fail(ctx, w, "register shelter", err)
		return
	}
	if err := h.pool.RegisterShelter(ctx, caller, wallet, req.Name); err != nil {
		h.fail(ctx, w, "register shelter", err)
		return
	}
	h.writeShelter(w, r, wallet, http.StatusCreated)
}

func (h *Handler) handleRemoveShelter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	wallet, ok := h.pathAddress(w, r)
	if !ok {
		return
	}
	if err := h.pool.RemoveShelter(ctx, caller, wallet); err != nil {
		h.fail(ctx, w, "remove shelter", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListShelters(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	active, err := h.pool.ActiveShelters(ctx)
	if err != nil {
		h.fail(ctx, w, "list shelters", err)
		return
	}
	resp := ActiveSheltersResponse{Shelters: make([]string, 0, len(active)), Count: len(active)}
	for _, wallet := range active {
		resp.Shelters = append(resp.Shelters, wallet.Hex())
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetShelter(w http.ResponseWriter, r *http.Request) {
	wallet, ok := h.pathAddress(w, r)
	if !ok {
		return
	}
	h.writeShelter(w, r, wallet, http.StatusOK)
}

func (h *Handler) handleDonateToShelter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	donor, ok := h.caller(w, r)
	if !ok {
		return
	}
	wallet, ok := h.pathAddress(w, r)
	if !ok {
		return
	}
	value, ok := h.donationValue(w, r)
	if !ok {
		return
	}
	if err := h.pool.DonateToShelter(ctx, donor, wallet, value); err != nil {
		h.fail(ctx, w, "donate to shelter", err)
		return
	}
	h.writeShelter(w, r, wallet, http.StatusOK)
}

func (h *Handler) handleDonateToPool(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	donor, ok := h.caller(w, r)
	if !ok {
		return
	}
	value, ok := h.donationValue(w, r)
	if !ok {
		return
	}
	if err := h.pool.DonateToPool(ctx, donor, value); err != nil {
		h.fail(ctx, w, "donate to pool", err)
		return
	}
	h.writeStats(w, r)
}

func (h *Handler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	amount, err := h.pool.Withdraw(ctx, caller)
	if err != nil {
		h.fail(ctx, w, "withdraw", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, WithdrawalResponse{Recipient: caller.Hex(), Amount: newAmount(amount)})
}

func (h *Handler) handleWithdrawFees(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	amount, err := h.pool.WithdrawFees(ctx, caller)
	if err != nil {
		h.fail(ctx, w, "withdraw fees", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, WithdrawalResponse{Recipient: caller.Hex(), Amount: newAmount(amount)})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	h.writeStats(w, r)
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer"))
			return
		}
		limit = min(n, maxEventLimit)
	}

	resp := EventsResponse{Events: []EventResponse{}}
	if h.events != nil {
		for _, record := range h.events.Recent(limit) {
			resp.Events = append(resp.Events, newEventResponse(record))
		}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeShelter(w http.ResponseWriter, r *http.Request, wallet domain.Address, status int) {
	ctx := r.Context()
	info, err := h.pool.ShelterInfo(ctx, wallet)
	if err != nil {
		h.fail(ctx, w, "get shelter", err)
		return
	}
	httputil.WriteJSON(w, status, newShelterResponse(info))
}

func (h *Handler) writeStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := h.pool.Stats(ctx)
	if err != nil {
		h.fail(ctx, w, "get stats", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, StatsResponse{
		TotalDonations: newAmount(stats.TotalDonations),
		ActiveShelters: stats.ActiveCount,
		CustodyBalance: newAmount(stats.CustodyBalance),
	})
}

// caller returns the authenticated caller set by RequireCaller.
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (domain.Address, bool) {
	caller, ok := requestcontext.Caller(r.Context())
	if !ok {
		// RequireCaller guards every route that reaches here
		h.logger.ErrorContext(r.Context(), "caller missing from context despite auth middleware",
			"request_id", requestcontext.RequestID(r.Context()),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return domain.ZeroAddress, false
	}
	return caller, true
}

func (h *Handler) pathAddress(w http.ResponseWriter, r *http.Request) (domain.Address, bool) {
	wallet, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return domain.ZeroAddress, false
	}
	return wallet, true
}

func (h *Handler) donationValue(w http.ResponseWriter, r *http.Request) (*uint256.Int, bool) {
	var req donationRequest
	if !h.decode(w, r, &req) {
		return nil, false
	}
	value, err := req.value()
	if err != nil {
		httputil.WriteError(w, err)
		return nil, false
	}
	return value, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		h.logger.WarnContext(r.Context(), "invalid request body",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return false
	}
	return true
}

// fail writes err, logging unexpected failures at error level and rejected
// requests at warn.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, action string, err error) {
	requestID := requestcontext.RequestID(ctx)
	if httputil.StatusFor(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, "failed to "+action,
			"request_id", requestID,
			"error", err.Error(),
		)
	} else {
		h.logger.WarnContext(ctx, action+" rejected",
			"request_id", requestID,
			"code", string(dErrors.CodeOf(err)),
		)
	}
	httputil.WriteError(w, err)
}
