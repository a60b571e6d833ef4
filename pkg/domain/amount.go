package domain

import (
	"strings"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	dErrors "donationpool/pkg/domain-errors"
)

// EtherDecimals is the number of wei digits in one ether.
const EtherDecimals = 18

// maxWeiDigits is the digit count of 2^256-1.
const maxWeiDigits = 78

// ParseWei parses a base-10 integer amount of wei.
func ParseWei(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, dErrors.New(dErrors.CodeInvalidAmount, "amount is required")
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidAmount, "amount must be a non-negative integer of wei")
	}
	return v, nil
}

// ParseEther converts an ether-denominated decimal string ("0.25") to wei.
// Precision finer than one wei is rejected rather than rounded, as is
// exponent notation.
func ParseEther(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, dErrors.New(dErrors.CodeInvalidAmount, "amount is required")
	}
	if strings.ContainsAny(s, "eE") {
		return nil, dErrors.New(dErrors.CodeInvalidAmount, "amount must be a plain decimal number")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidAmount, "amount must be a decimal number")
	}
	if d.IsNegative() {
		return nil, dErrors.New(dErrors.CodeInvalidAmount, "amount cannot be negative")
	}
	if !d.IsZero() && int64(d.NumDigits())+int64(d.Exponent())+EtherDecimals > maxWeiDigits {
		return nil, dErrors.New(dErrors.CodeOverflow, "amount exceeds 256 bits")
	}
	wei := d.Shift(EtherDecimals)
	if !wei.Equal(wei.Truncate(0)) {
		return nil, dErrors.New(dErrors.CodeInvalidAmount, "amount has more than 18 decimal places")
	}
	v, overflow := uint256.FromBig(wei.BigInt())
	if overflow {
		return nil, dErrors.New(dErrors.CodeOverflow, "amount exceeds 256 bits")
	}
	return v, nil
}

// FormatEther renders a wei amount in ether without trailing zeros.
func FormatEther(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v.ToBig(), -EtherDecimals).String()
}
