package models

import (
	"github.com/holiman/uint256"

	"donationpool/pkg/domain"
)

// Shelter is the registry record for one payee organization.
//
// Invariants:
//   - Wallet equals the registry key the record is stored under
//   - Name is set at registration and never edited afterwards
//   - TotalReceived only grows; it sums every net credit ever made
//   - Active is true from registration until removal
type Shelter struct {
	Name          string
	Wallet        domain.Address
	TotalReceived *uint256.Int
	Active        bool
}

// EmptyShelter is what lookups return for identities never registered.
func EmptyShelter(wallet domain.Address) Shelter {
	return Shelter{Wallet: wallet, TotalReceived: new(uint256.Int)}
}

// Clone returns a deep copy so callers never alias stored amounts.
func (s Shelter) Clone() Shelter {
	out := s
	if s.TotalReceived != nil {
		out.TotalReceived = s.TotalReceived.Clone()
	} else {
		out.TotalReceived = new(uint256.Int)
	}
	return out
}

// ShelterInfo is the read model returned by get_shelter_info.
type ShelterInfo struct {
	Wallet        domain.Address
	Name          string
	Balance       *uint256.Int
	TotalReceived *uint256.Int
	Active        bool
}

// PoolStats is the read model returned by get_pool_stats.
type PoolStats struct {
	TotalDonations *uint256.Int
	ActiveCount    uint64
	CustodyBalance *uint256.Int
}
