package domain

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	dErrors "donationpool/pkg/domain-errors"
)

// Address is the opaque identity of callers and shelters.
type Address = common.Address

// ZeroAddress is the null identity. It can never be registered.
var ZeroAddress = common.Address{}

// ParseAddress validates a hex account address at a trust boundary.
// All-lowercase and all-uppercase forms are accepted; mixed case must match
// the EIP-55 checksum.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ZeroAddress, dErrors.New(dErrors.CodeInvalidIdentity, "address is required")
	}
	if !common.IsHexAddress(s) {
		return ZeroAddress, dErrors.New(dErrors.CodeInvalidIdentity, "address must be 20 hex-encoded bytes")
	}
	addr := common.HexToAddress(s)
	if addr == ZeroAddress {
		return ZeroAddress, dErrors.New(dErrors.CodeInvalidIdentity, "zero address is not a valid identity")
	}
	body := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if isMixedCase(body) && body != addr.Hex()[2:] {
		return ZeroAddress, dErrors.New(dErrors.CodeInvalidIdentity, "address checksum mismatch")
	}
	return addr, nil
}

func isMixedCase(s string) bool {
	return strings.ToLower(s) != s && strings.ToUpper(s) != s
}
