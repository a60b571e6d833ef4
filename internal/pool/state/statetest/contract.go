// Package statetest holds the behaviour every state.Store backend must share.
package statetest

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/suite"

	"donationpool/internal/pool/models"
	"donationpool/internal/pool/state"
	"donationpool/pkg/domain"
)

var (
	walletA = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	walletB = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	walletC = common.HexToAddress("0x00000000000000000000000000000000000000c3")
)

// StoreSuite runs against whatever Store is assigned to Store. Backends embed
// it and reset their storage in SetupTest before assigning a fresh Store.
type StoreSuite struct {
	suite.Suite
	Store state.Store
}

func (s *StoreSuite) TestUnsetKeysReadAsZero() {
	ctx := context.Background()

	admin, err := s.Store.Admin(ctx)
	s.Require().NoError(err)
	s.Equal(domain.ZeroAddress, admin)

	shelter, ok, err := s.Store.Shelter(ctx, walletA)
	s.Require().NoError(err)
	s.False(ok)
	s.Equal(walletA, shelter.Wallet)
	s.False(shelter.Active)
	s.True(shelter.TotalReceived.IsZero())

	balance, err := s.Store.Balance(ctx, walletA)
	s.Require().NoError(err)
	s.True(balance.IsZero())

	total, err := s.Store.TotalDonations(ctx)
	s.Require().NoError(err)
	s.True(total.IsZero())

	members, err := s.Store.Members(ctx)
	s.Require().NoError(err)
	s.Empty(members)
}

func (s *StoreSuite) TestAdminRoundTrip() {
	ctx := context.Background()
	s.Require().NoError(s.Store.SetAdmin(ctx, walletC))
	admin, err := s.Store.Admin(ctx)
	s.Require().NoError(err)
	s.Equal(walletC, admin)

	s.Require().NoError(s.Store.SetAdmin(ctx, domain.ZeroAddress))
	admin, err = s.Store.Admin(ctx)
	s.Require().NoError(err)
	s.Equal(domain.ZeroAddress, admin)
}

func (s *StoreSuite) TestShelterOverwriteAndDelete() {
	ctx := context.Background()
	s.Require().NoError(s.Store.SetShelter(ctx, models.Shelter{
		Name: "Paws", Wallet: walletA, TotalReceived: uint256.NewInt(7), Active: true,
	}))
	s.Require().NoError(s.Store.SetShelter(ctx, models.Shelter{
		Name: "Paws", Wallet: walletA, TotalReceived: uint256.NewInt(9), Active: false,
	}))

	got, ok, err := s.Store.Shelter(ctx, walletA)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("Paws", got.Name)
	s.Equal(uint64(9), got.TotalReceived.Uint64())
	s.False(got.Active)

	s.Require().NoError(s.Store.DeleteShelter(ctx, walletA))
	got, exists, err := s.Store.Shelter(ctx, walletA)
	s.Require().NoError(err)
	s.False(exists)
	s.Equal(models.EmptyShelter(walletA), got)
}

func (s *StoreSuite) TestAmountsKeepFullWidth() {
	ctx := context.Background()
	maxAmount := new(uint256.Int).SetAllOne()

	s.Require().NoError(s.Store.SetBalance(ctx, walletA, maxAmount))
	s.Require().NoError(s.Store.SetTotalDonations(ctx, maxAmount))

	balance, err := s.Store.Balance(ctx, walletA)
	s.Require().NoError(err)
	s.Equal(maxAmount, balance)

	total, err := s.Store.TotalDonations(ctx)
	s.Require().NoError(err)
	s.Equal(maxAmount, total)

	s.Require().NoError(s.Store.SetBalance(ctx, walletA, new(uint256.Int)))
	balance, err = s.Store.Balance(ctx, walletA)
	s.Require().NoError(err)
	s.True(balance.IsZero())
}

func (s *StoreSuite) TestMembersKeepOrder() {
	ctx := context.Background()
	s.Require().NoError(s.Store.SetMembers(ctx, []domain.Address{walletC, walletA, walletB}))
	members, err := s.Store.Members(ctx)
	s.Require().NoError(err)
	s.Equal([]domain.Address{walletC, walletA, walletB}, members)

	s.Require().NoError(s.Store.SetMembers(ctx, []domain.Address{walletB}))
	members, err = s.Store.Members(ctx)
	s.Require().NoError(err)
	s.Equal([]domain.Address{walletB}, members)

	s.Require().NoError(s.Store.SetMembers(ctx, nil))
	members, err = s.Store.Members(ctx)
	s.Require().NoError(err)
	s.Empty(members)
}

func (s *StoreSuite) TestJournalRevertRestoresBackend() {
	ctx := context.Background()
	s.Require().NoError(s.Store.SetBalance(ctx, walletA, uint256.NewInt(10)))
	s.Require().NoError(s.Store.SetMembers(ctx, []domain.Address{walletA}))

	tx := state.Begin(s.Store)
	rev := tx.Snapshot()
	s.Require().NoError(tx.SetShelter(ctx, models.Shelter{Name: "B", Wallet: walletB, TotalReceived: new(uint256.Int), Active: true}))
	s.Require().NoError(tx.SetMembers(ctx, []domain.Address{walletA, walletB}))
	s.Require().NoError(tx.SetBalance(ctx, walletA, new(uint256.Int)))
	s.Require().NoError(tx.SetTotalDonations(ctx, uint256.NewInt(5)))
	s.Require().NoError(tx.RevertTo(ctx, rev))

	_, exists, err := s.Store.Shelter(ctx, walletB)
	s.Require().NoError(err)
	s.False(exists)
	members, err := s.Store.Members(ctx)
	s.Require().NoError(err)
	s.Equal([]domain.Address{walletA}, members)
	balance, err := s.Store.Balance(ctx, walletA)
	s.Require().NoError(err)
	s.Equal(uint64(10), balance.Uint64())
	total, err := s.Store.TotalDonations(ctx)
	s.Require().NoError(err)
	s.True(total.IsZero())
}
