package state

import (
	"context"
	"slices"
	"sync"

	"github.com/holiman/uint256"

	"donationpool/internal/pool/models"
	"donationpool/pkg/domain"
)

// InMemory keeps pool state in maps. It is the default backend and the one
// tests run against.
type InMemory struct {
	mu             sync.RWMutex
	admin          domain.Address
	shelters       map[domain.Address]models.Shelter
	balances       map[domain.Address]*uint256.Int
	members        []domain.Address
	totalDonations *uint256.Int
}

func NewInMemory() *InMemory {
	return &InMemory{
		shelters:       make(map[domain.Address]models.Shelter),
		balances:       make(map[domain.Address]*uint256.Int),
		totalDonations: new(uint256.Int),
	}
}

func (s *InMemory) Admin(_ context.Context) (domain.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.admin, nil
}

func (s *InMemory) SetAdmin(_ context.Context, admin domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admin = admin
	return nil
}

func (s *InMemory) Shelter(_ context.Context, wallet domain.Address) (models.Shelter, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	shelter, ok := s.shelters[wallet]
	if !ok {
		return models.EmptyShelter(wallet), false, nil
	}
	return shelter.Clone(), true, nil
}

func (s *InMemory) SetShelter(_ context.Context, shelter models.Shelter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shelters[shelter.Wallet] = shelter.Clone()
	return nil
}

func (s *InMemory) DeleteShelter(_ context.Context, wallet domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.shelters, wallet)
	return nil
}

func (s *InMemory) Balance(_ context.Context, wallet domain.Address) (*uint256.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if b, ok := s.balances[wallet]; ok {
		return b.Clone(), nil
	}
	return new(uint256.Int), nil
}

func (s *InMemory) SetBalance(_ context.Context, wallet domain.Address, amount *uint256.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[wallet] = amount.Clone()
	return nil
}

func (s *InMemory) Members(_ context.Context) ([]domain.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.members), nil
}

func (s *InMemory) SetMembers(_ context.Context, members []domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members = slices.Clone(members)
	return nil
}

func (s *InMemory) TotalDonations(_ context.Context) (*uint256.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalDonations.Clone(), nil
}

func (s *InMemory) SetTotalDonations(_ context.Context, total *uint256.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalDonations = total.Clone()
	return nil
}
