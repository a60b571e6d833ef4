package httptransport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"donationpool/internal/events/memory"
	"donationpool/internal/platform/middleware"
	"donationpool/internal/pool/models"
	"donationpool/internal/transport/http/mocks"
	"donationpool/pkg/domain"
	dErrors "donationpool/pkg/domain-errors"
	"donationpool/pkg/testutil"
)

var (
	admin    = common.HexToAddress("0x00000000000000000000000000000000000000ad")
	donor    = common.HexToAddress("0x00000000000000000000000000000000000000d0")
	shelterA = common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
)

// tokenValidator accepts "Bearer <hex address>" as that caller.
type tokenValidator struct{}

func (tokenValidator) ValidateToken(token string) (*middleware.CallerClaims, error) {
	if !common.IsHexAddress(token) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	return &middleware.CallerClaims{Caller: common.HexToAddress(token)}, nil
}

type HandlerSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	service  *mocks.MockService
	recorder *memory.Recorder
	router   http.Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest()    { s.reset() }
func (s *HandlerSuite) SetupSubTest() { s.reset() }

func (s *HandlerSuite) reset() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.recorder = memory.NewRecorder(10)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := New(s.service, s.recorder, tokenValidator{}, logger)
	s.router = NewRouter(handler, RouterConfig{
		Logger:         logger,
		MetricsHandler: promhttp.Handler(),
		RequestTimeout: 5 * time.Second,
	})
}

func (s *HandlerSuite) do(method, path string, caller *domain.Address, body string) *httptest.ResponseRecorder {
	req := testutil.NewRequest(s.T(), method, path, body)
	if caller != nil {
		testutil.WithBearer(req, caller.Hex())
	}
	return testutil.DoRequest(s.router, req)
}

func decode[T any](s *HandlerSuite, rr *httptest.ResponseRecorder) T {
	return testutil.UnmarshalResponse[T](s.T(), rr)
}

func shelterInfo(balance, received uint64, active bool) *models.ShelterInfo {
	return &models.ShelterInfo{
		Wallet:        shelterA,
		Name:          "Happy Paws",
		Balance:       uint256.NewInt(balance),
		TotalReceived: uint256.NewInt(received),
		Active:        active,
	}
}

func (s *HandlerSuite) TestWritesRequireCaller() {
	for _, route := range []struct{ method, path string }{
		{http.MethodPost, "/shelters"},
		{http.MethodDelete, "/shelters/" + shelterA.Hex()},
		{http.MethodPost, "/shelters/" + shelterA.Hex() + "/donations"},
		{http.MethodPost, "/pool/donations"},
		{http.MethodPost, "/withdrawals"},
		{http.MethodPost, "/pool/fees/withdrawals"},
	} {
		rr := s.do(route.method, route.path, nil, `{}`)
		s.Equal(http.StatusUnauthorized, rr.Code, route.path)
	}
}

func (s *HandlerSuite) TestRegisterShelter() {
	s.Run("registers and returns the record", func() {
		s.service.EXPECT().RegisterShelter(gomock.Any(), admin, shelterA, "Happy Paws").Return(nil)
		s.service.EXPECT().ShelterInfo(gomock.Any(), shelterA).Return(shelterInfo(0, 0, true), nil)

		rr := s.do(http.MethodPost, "/shelters", &admin,
			`{"address":"`+strings.ToLower(shelterA.Hex())+`","name":"Happy Paws"}`)
		s.Equal(http.StatusCreated, rr.Code)
		resp := decode[ShelterResponse](s, rr)
		s.Equal(shelterA.Hex(), resp.Address)
		s.True(resp.Active)
		s.Equal("0", resp.Balance.Wei)
	})

	s.Run("non-admin is forbidden", func() {
		s.service.EXPECT().RegisterShelter(gomock.Any(), donor, shelterA, "x").
			Return(dErrors.New(dErrors.CodeNotAuthorized, "only admin can call this function"))

		rr := s.do(http.MethodPost, "/shelters", &donor, `{"address":"`+shelterA.Hex()+`","name":"x"}`)
		s.Equal(http.StatusForbidden, rr.Code)
		resp := decode[map[string]string](s, rr)
		s.Equal("not_authorized", resp["error"])
	})

	s.Run("zero address is rejected before the service", func() {
		rr := s.do(http.MethodPost, "/shelters", &admin,
			`{"address":"0x0000000000000000000000000000000000000000","name":"x"}`)
		s.Equal(http.StatusBadRequest, rr.Code)
		s.Equal("invalid_identity", decode[map[string]string](s, rr)["error"])
	})

	s.Run("unknown fields are rejected", func() {
		rr := s.do(http.MethodPost, "/shelters", &admin, `{"address":"`+shelterA.Hex()+`","owner":"me"}`)
		s.Equal(http.StatusBadRequest, rr.Code)
		s.Equal("bad_request", decode[map[string]string](s, rr)["error"])
	})
}

func (s *HandlerSuite) TestRemoveShelter() {
	s.service.EXPECT().RemoveShelter(gomock.Any(), admin, shelterA).Return(nil)
	rr := s.do(http.MethodDelete, "/shelters/"+shelterA.Hex(), &admin, "")
	s.Equal(http.StatusNoContent, rr.Code)

	s.service.EXPECT().RemoveShelter(gomock.Any(), admin, shelterA).
		Return(dErrors.New(dErrors.CodeNotFound, "shelter not found"))
	rr = s.do(http.MethodDelete, "/shelters/"+shelterA.Hex(), &admin, "")
	s.Equal(http.StatusNotFound, rr.Code)
}

func (s *HandlerSuite) TestDonateToShelter() {
	path := "/shelters/" + shelterA.Hex() + "/donations"

	s.Run("amount in wei", func() {
		s.service.EXPECT().DonateToShelter(gomock.Any(), donor, shelterA, uint256.NewInt(10000)).Return(nil)
		s.service.EXPECT().ShelterInfo(gomock.Any(), shelterA).Return(shelterInfo(9750, 9750, true), nil)

		rr := s.do(http.MethodPost, path, &donor, `{"amount":"10000"}`)
		s.Equal(http.StatusOK, rr.Code)
		resp := decode[ShelterResponse](s, rr)
		s.Equal("9750", resp.Balance.Wei)
		s.Equal("0.00000000000000975", resp.Balance.Ether)
	})

	s.Run("amount in ether", func() {
		oneAndHalf, _ := uint256.FromDecimal("1500000000000000000")
		s.service.EXPECT().DonateToShelter(gomock.Any(), donor, shelterA, oneAndHalf).Return(nil)
		s.service.EXPECT().ShelterInfo(gomock.Any(), shelterA).Return(shelterInfo(0, 0, true), nil)

		rr := s.do(http.MethodPost, path, &donor, `{"amount_eth":"1.5"}`)
		s.Equal(http.StatusOK, rr.Code)
	})

	s.Run("both units is a bad request", func() {
		rr := s.do(http.MethodPost, path, &donor, `{"amount":"1","amount_eth":"1"}`)
		s.Equal(http.StatusBadRequest, rr.Code)
	})

	s.Run("missing amount is invalid", func() {
		rr := s.do(http.MethodPost, path, &donor, `{}`)
		s.Equal(http.StatusBadRequest, rr.Code)
		s.Equal("invalid_amount", decode[map[string]string](s, rr)["error"])
	})

	s.Run("sub-wei ether is invalid", func() {
		rr := s.do(http.MethodPost, path, &donor, `{"amount_eth":"0.0000000000000000001"}`)
		s.Equal(http.StatusBadRequest, rr.Code)
	})

	s.Run("inactive shelter", func() {
		s.service.EXPECT().DonateToShelter(gomock.Any(), donor, shelterA, gomock.Any()).
			Return(dErrors.New(dErrors.CodeShelterInactive, "shelter not active"))
		rr := s.do(http.MethodPost, path, &donor, `{"amount":"5"}`)
		s.Equal(http.StatusUnprocessableEntity, rr.Code)
		s.Equal("shelter_inactive", decode[map[string]string](s, rr)["error"])
	})
}

func (s *HandlerSuite) TestDonateToPool() {
	s.service.EXPECT().DonateToPool(gomock.Any(), donor, uint256.NewInt(10001)).Return(nil)
	s.service.EXPECT().Stats(gomock.Any()).Return(&models.PoolStats{
		TotalDonations: uint256.NewInt(10001),
		ActiveCount:    3,
		CustodyBalance: uint256.NewInt(10001),
	}, nil)

	rr := s.do(http.MethodPost, "/pool/donations", &donor, `{"amount":"10001"}`)
	s.Equal(http.StatusOK, rr.Code)
	resp := decode[StatsResponse](s, rr)
	s.Equal("10001", resp.TotalDonations.Wei)
	s.Equal(uint64(3), resp.ActiveShelters)

	s.service.EXPECT().DonateToPool(gomock.Any(), donor, gomock.Any()).
		Return(dErrors.New(dErrors.CodeNoActiveShelters, "no active shelters"))
	rr = s.do(http.MethodPost, "/pool/donations", &donor, `{"amount":"1"}`)
	s.Equal(http.StatusConflict, rr.Code)

	// rejected before the service is reached
	rr = s.do(http.MethodPost, "/pool/donations", &donor, `{"amount_eth":"1e100000000"}`)
	testutil.AssertError(s.T(), rr, http.StatusBadRequest, "invalid_amount")
}

func (s *HandlerSuite) TestWithdraw() {
	s.Run("pays the caller", func() {
		s.service.EXPECT().Withdraw(gomock.Any(), shelterA).Return(uint256.NewInt(9750), nil)
		rr := s.do(http.MethodPost, "/withdrawals", &shelterA, "")
		s.Equal(http.StatusOK, rr.Code)
		resp := decode[WithdrawalResponse](s, rr)
		s.Equal(shelterA.Hex(), resp.Recipient)
		s.Equal("9750", resp.Amount.Wei)
	})

	s.Run("transfer failure is a bad gateway", func() {
		s.service.EXPECT().Withdraw(gomock.Any(), shelterA).
			Return(nil, dErrors.Wrap(errors.New("insufficient custody"), dErrors.CodeTransferFailed, "transfer to shelter failed"))
		rr := s.do(http.MethodPost, "/withdrawals", &shelterA, "")
		s.Equal(http.StatusBadGateway, rr.Code)
	})

	s.Run("internal errors hide their description", func() {
		s.service.EXPECT().Withdraw(gomock.Any(), shelterA).Return(nil, errors.New("redis: connection refused"))
		rr := s.do(http.MethodPost, "/withdrawals", &shelterA, "")
		s.Equal(http.StatusInternalServerError, rr.Code)
		s.NotContains(rr.Body.String(), "redis")
	})
}

func (s *HandlerSuite) TestWithdrawFees() {
	s.service.EXPECT().WithdrawFees(gomock.Any(), admin).Return(uint256.NewInt(250), nil)
	rr := s.do(http.MethodPost, "/pool/fees/withdrawals", &admin, "")
	s.Equal(http.StatusOK, rr.Code)
	s.Equal("250", decode[WithdrawalResponse](s, rr).Amount.Wei)

	s.service.EXPECT().WithdrawFees(gomock.Any(), admin).
		Return(nil, dErrors.New(dErrors.CodeNothingToWithdraw, "no fees to withdraw"))
	rr = s.do(http.MethodPost, "/pool/fees/withdrawals", &admin, "")
	s.Equal(http.StatusConflict, rr.Code)
}

func (s *HandlerSuite) TestReads() {
	s.Run("active shelters", func() {
		s.service.EXPECT().ActiveShelters(gomock.Any()).Return([]domain.Address{shelterA}, nil)
		rr := s.do(http.MethodGet, "/shelters", nil, "")
		s.Equal(http.StatusOK, rr.Code)
		resp := decode[ActiveSheltersResponse](s, rr)
		s.Equal([]string{shelterA.Hex()}, resp.Shelters)
		s.Equal(1, resp.Count)
	})

	s.Run("shelter info for unknown wallet is an empty record", func() {
		s.service.EXPECT().ShelterInfo(gomock.Any(), shelterA).Return(&models.ShelterInfo{
			Wallet: shelterA, Balance: new(uint256.Int), TotalReceived: new(uint256.Int),
		}, nil)
		rr := s.do(http.MethodGet, "/shelters/"+shelterA.Hex(), nil, "")
		s.Equal(http.StatusOK, rr.Code)
		s.False(decode[ShelterResponse](s, rr).Active)
	})

	s.Run("malformed path address", func() {
		rr := s.do(http.MethodGet, "/shelters/not-an-address", nil, "")
		s.Equal(http.StatusBadRequest, rr.Code)
	})

	s.Run("events feed", func() {
		s.Require().NoError(s.recorder.Publish(context.Background(), []models.Event{
			models.ShelterAdded(shelterA, "Happy Paws"),
			models.DonationMade(donor, shelterA, uint256.NewInt(9750)),
		}))
		rr := s.do(http.MethodGet, "/events?limit=1", nil, "")
		s.Equal(http.StatusOK, rr.Code)
		resp := decode[EventsResponse](s, rr)
		s.Require().Len(resp.Events, 1)
		s.Equal("donation_made", resp.Events[0].Kind)
		s.Equal(donor.Hex(), resp.Events[0].Donor)
		s.Equal("9750", resp.Events[0].Amount.Wei)

		rr = s.do(http.MethodGet, "/events?limit=zero", nil, "")
		s.Equal(http.StatusBadRequest, rr.Code)
	})
}

func (s *HandlerSuite) TestOperationalEndpoints() {
	rr := s.do(http.MethodGet, "/health", nil, "")
	s.Equal(http.StatusOK, rr.Code)
	s.NotEmpty(rr.Header().Get(middleware.HeaderRequestID))

	rr = s.do(http.MethodGet, "/metrics", nil, "")
	s.Equal(http.StatusOK, rr.Code)

	rr = s.do(http.MethodGet, "/nope", nil, "")
	s.Equal(http.StatusNotFound, rr.Code)
}

func (s *HandlerSuite) TestHealthReportsFailingDependency() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter(New(s.service, nil, tokenValidator{}, logger), RouterConfig{
		Logger: logger,
		HealthChecks: map[string]HealthCheck{
			"redis": func(context.Context) error { return errors.New("connection refused") },
		},
	})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	s.Equal(http.StatusServiceUnavailable, rr.Code)
	s.Contains(rr.Body.String(), "connection refused")
}

func (s *HandlerSuite) TestHandlersReadCallerFromContext() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(s.service, s.recorder, tokenValidator{}, logger)

	s.Run("uses the caller placed by the auth middleware", func() {
		s.service.EXPECT().Withdraw(gomock.Any(), shelterA).Return(uint256.NewInt(9750), nil)

		req := testutil.WithCaller(testutil.NewRequest(s.T(), http.MethodPost, "/withdrawals", ""), shelterA)
		rr := testutil.DoRequest(http.HandlerFunc(h.handleWithdraw), testutil.WithRequestID(req, "req-1"))
		s.Equal(http.StatusOK, rr.Code)
		s.Equal("9750", decode[WithdrawalResponse](s, rr).Amount.Wei)
	})

	s.Run("missing caller is an internal error", func() {
		req := testutil.NewRequest(s.T(), http.MethodPost, "/withdrawals", "")
		rr := testutil.DoRequest(http.HandlerFunc(h.handleWithdraw), req)
		testutil.AssertError(s.T(), rr, http.StatusInternalServerError, "internal_error")
	})
}
