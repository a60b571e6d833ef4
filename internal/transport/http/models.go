package httptransport

import (
	"strings"
	"time"

	"github.com/holiman/uint256"

	"donationpool/internal/events/memory"
	"donationpool/internal/pool/models"
	"donationpool/pkg/domain"
	dErrors "donationpool/pkg/domain-errors"
)

type registerShelterRequest struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

// donationRequest carries the attached value in wei or in ether, never both.
type donationRequest struct {
	Amount    string `json:"amount,omitempty"`
	AmountEth string `json:"amount_eth,omitempty"`
}

func (r donationRequest) value() (*uint256.Int, error) {
	wei, eth := strings.TrimSpace(r.Amount), strings.TrimSpace(r.AmountEth)
	switch {
	case wei != "" && eth != "":
		return nil, dErrors.New(dErrors.CodeBadRequest, "provide either amount or amount_eth, not both")
	case wei != "":
		return domain.ParseWei(wei)
	case eth != "":
		return domain.ParseEther(eth)
	default:
		return nil, dErrors.New(dErrors.CodeInvalidAmount, "donation amount must be greater than 0")
	}
}

// Amount renders a value in wei and ether.
type Amount struct {
	Wei   string `json:"wei"`
	Ether string `json:"ether"`
}

func newAmount(v *uint256.Int) Amount {
	if v == nil {
		v = new(uint256.Int)
	}
	return Amount{Wei: v.Dec(), Ether: domain.FormatEther(v)}
}

type ShelterResponse struct {
	Address       string `json:"address"`
	Name          string `json:"name"`
	Balance       Amount `json:"balance"`
	TotalReceived Amount `json:"total_received"`
	Active        bool   `json:"active"`
}

func newShelterResponse(info *models.ShelterInfo) ShelterResponse {
	return ShelterResponse{
		Address:       info.Wallet.Hex(),
		Name:          info.Name,
		Balance:       newAmount(info.Balance),
		TotalReceived: newAmount(info.TotalReceived),
		Active:        info.Active,
	}
}

type ActiveSheltersResponse struct {
	Shelters []string `json:"shelters"`
	Count    int      `json:"count"`
}

type WithdrawalResponse struct {
	Recipient string `json:"recipient"`
	Amount    Amount `json:"amount"`
}

type StatsResponse struct {
	TotalDonations Amount `json:"total_donations"`
	ActiveShelters uint64 `json:"active_shelters"`
	CustodyBalance Amount `json:"custody_balance"`
}

type EventResponse struct {
	Sequence   uint64  `json:"sequence"`
	RecordedAt string  `json:"recorded_at"`
	Kind       string  `json:"kind"`
	Shelter    string  `json:"shelter"`
	Donor      string  `json:"donor,omitempty"`
	Name       string  `json:"name,omitempty"`
	Amount     *Amount `json:"amount,omitempty"`
}

func newEventResponse(r memory.Record) EventResponse {
	resp := EventResponse{
		Sequence:   r.Sequence,
		RecordedAt: r.RecordedAt.UTC().Format(time.RFC3339Nano),
		Kind:       string(r.Event.Kind),
		Shelter:    r.Event.Shelter.Hex(),
		Name:       r.Event.Name,
	}
	if r.Event.Donor != nil {
		resp.Donor = r.Event.Donor.Hex()
	}
	if r.Event.Amount != nil {
		a := newAmount(r.Event.Amount)
		resp.Amount = &a
	}
	return resp
}

type EventsResponse struct {
	Events []EventResponse `json:"events"`
}
