package models

import (
	"github.com/holiman/uint256"

	"donationpool/pkg/domain"
)

// EventKind names a notification emitted after a successful transition.
type EventKind string

const (
	EventShelterAdded   EventKind = "shelter_added"
	EventShelterRemoved EventKind = "shelter_removed"
	EventDonationMade   EventKind = "donation_made"
	EventFundsWithdrawn EventKind = "funds_withdrawn"
)

// Event is an observational record. The pool never reads events back.
type Event struct {
	Kind    EventKind       `json:"kind"`
	Shelter domain.Address  `json:"shelter"`
	Donor   *domain.Address `json:"donor,omitempty"`
	Name    string          `json:"name,omitempty"`
	Amount  *uint256.Int    `json:"amount,omitempty"`
}

func ShelterAdded(shelter domain.Address, name string) Event {
	return Event{Kind: EventShelterAdded, Shelter: shelter, Name: name}
}

func ShelterRemoved(shelter domain.Address) Event {
	return Event{Kind: EventShelterRemoved, Shelter: shelter}
}

func DonationMade(donor, shelter domain.Address, amount *uint256.Int) Event {
	return Event{Kind: EventDonationMade, Donor: &donor, Shelter: shelter, Amount: amount.Clone()}
}

func FundsWithdrawn(shelter domain.Address, amount *uint256.Int) Event {
	return Event{Kind: EventFundsWithdrawn, Shelter: shelter, Amount: amount.Clone()}
}
