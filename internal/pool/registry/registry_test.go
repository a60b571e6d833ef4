package registry

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/suite"

	"donationpool/internal/pool/models"
	"donationpool/internal/pool/state"
	dErrors "donationpool/pkg/domain-errors"
)

type recorder struct {
	events []models.Event
}

func (r *recorder) Emit(event models.Event) {
	r.events = append(r.events, event)
}

type RegistrySuite struct {
	suite.Suite
	ctx      context.Context
	store    *state.InMemory
	events   *recorder
	registry *Registry
}

func (s *RegistrySuite) SetupTest() {
	s.ctx = context.Background()
	s.store = state.NewInMemory()
	s.events = &recorder{}
	s.registry = New(s.store, s.events)
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func addr(b byte) common.Address {
	return common.BytesToAddress([]byte{b})
}

func (s *RegistrySuite) register(wallets ...common.Address) {
	for _, w := range wallets {
		s.Require().NoError(s.registry.Register(s.ctx, w, "shelter-"+w.Hex()[38:]))
	}
}

func (s *RegistrySuite) TestRegister() {
	s.Run("creates active record and appends to members", func() {
		s.Require().NoError(s.registry.Register(s.ctx, addr(1), "Happy Paws"))

		got, err := s.registry.Get(s.ctx, addr(1))
		s.Require().NoError(err)
		s.Equal("Happy Paws", got.Name)
		s.Equal(addr(1), got.Wallet)
		s.True(got.Active)
		s.True(got.TotalReceived.IsZero())

		members, err := s.store.Members(s.ctx)
		s.Require().NoError(err)
		s.Equal([]common.Address{addr(1)}, members)

		s.Require().Len(s.events.events, 1)
		s.Equal(models.ShelterAdded(addr(1), "Happy Paws"), s.events.events[0])
	})

	s.Run("rejects zero identity", func() {
		err := s.registry.Register(s.ctx, common.Address{}, "nobody")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidIdentity))
	})

	s.Run("rejects already active shelter", func() {
		err := s.registry.Register(s.ctx, addr(1), "again")
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyActive))
	})
}

func (s *RegistrySuite) TestReRegistrationResetsTotals() {
	s.register(addr(1))
	s.Require().NoError(s.registry.CreditReceived(s.ctx, addr(1), uint256.NewInt(500)))
	s.Require().NoError(s.registry.Deregister(s.ctx, addr(1)))

	s.Require().NoError(s.registry.Register(s.ctx, addr(1), "renamed"))
	got, err := s.registry.Get(s.ctx, addr(1))
	s.Require().NoError(err)
	s.True(got.Active)
	s.Equal("renamed", got.Name)
	s.True(got.TotalReceived.IsZero())
}

func (s *RegistrySuite) TestDeregister() {
	s.Run("fails for unknown shelter", func() {
		err := s.registry.Deregister(s.ctx, addr(9))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("fails when already inactive", func() {
		s.register(addr(1))
		s.Require().NoError(s.registry.Deregister(s.ctx, addr(1)))
		err := s.registry.Deregister(s.ctx, addr(1))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("keeps lifetime total", func() {
		s.register(addr(2))
		s.Require().NoError(s.registry.CreditReceived(s.ctx, addr(2), uint256.NewInt(42)))
		s.Require().NoError(s.registry.Deregister(s.ctx, addr(2)))

		got, err := s.registry.Get(s.ctx, addr(2))
		s.Require().NoError(err)
		s.False(got.Active)
		s.Equal(uint64(42), got.TotalReceived.Uint64())
	})
}

// TestSwapRemoveReordersMembers verifies removal moves the last member into
// the vacated slot instead of preserving order.
func (s *RegistrySuite) TestSwapRemoveReordersMembers() {
	s.register(addr(1), addr(2), addr(3), addr(4))

	s.Require().NoError(s.registry.Deregister(s.ctx, addr(2)))

	active, err := s.registry.ListActive(s.ctx)
	s.Require().NoError(err)
	s.Equal([]common.Address{addr(1), addr(4), addr(3)}, active)
	s.NotContains(active, addr(2))

	s.Require().NoError(s.registry.Deregister(s.ctx, addr(3)))
	active, err = s.registry.ListActive(s.ctx)
	s.Require().NoError(err)
	s.Equal([]common.Address{addr(1), addr(4)}, active, "removing the tail just truncates")

	count, err := s.registry.CountActive(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(2), count)

	last := s.events.events[len(s.events.events)-1]
	s.Equal(models.ShelterRemoved(addr(3)), last)
}

func (s *RegistrySuite) TestReadsForUnknownIdentity() {
	active, err := s.registry.IsActive(s.ctx, addr(7))
	s.Require().NoError(err)
	s.False(active)

	got, err := s.registry.Get(s.ctx, addr(7))
	s.Require().NoError(err)
	s.False(got.Active)
	s.Empty(got.Name)
	s.True(got.TotalReceived.IsZero())
}

func (s *RegistrySuite) TestCreditReceivedOverflow() {
	s.register(addr(1))
	s.Require().NoError(s.registry.CreditReceived(s.ctx, addr(1), new(uint256.Int).SetAllOne()))

	err := s.registry.CreditReceived(s.ctx, addr(1), uint256.NewInt(1))
	s.True(dErrors.HasCode(err, dErrors.CodeOverflow))
}
