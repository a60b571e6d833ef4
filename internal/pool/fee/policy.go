// Package fee computes the platform cut taken from every donation.
package fee

import (
	"github.com/holiman/uint256"

	dErrors "donationpool/pkg/domain-errors"
)

// The platform keeps Numerator/Denominator of every gross donation (2.5%).
// Neither value changes for the lifetime of a pool.
const (
	Numerator   = 250
	Denominator = 10000
)

var (
	numerator   = uint256.NewInt(Numerator)
	denominator = uint256.NewInt(Denominator)
)

// Split divides a gross amount into the platform fee and the net donation:
// fee = floor(gross * Numerator / Denominator), net = gross - fee.
func Split(gross *uint256.Int) (fee, net *uint256.Int, err error) {
	if gross == nil || gross.IsZero() {
		return nil, nil, dErrors.New(dErrors.CodeInvalidAmount, "donation amount must be greater than 0")
	}
	// The product is computed at 512 bits; the quotient always fits because
	// Numerator < Denominator.
	fee, overflow := new(uint256.Int).MulDivOverflow(gross, numerator, denominator)
	if overflow {
		return nil, nil, dErrors.New(dErrors.CodeOverflow, "fee computation overflowed")
	}
	net = new(uint256.Int).Sub(gross, fee)
	return fee, net, nil
}
