package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "donationpool/pkg/domain-errors"
)

// TestParseAddress_Invariants validates the identity invariant enforced at
// trust boundaries: identities are 20-byte, non-zero, checksum-consistent.
func TestParseAddress_Invariants(t *testing.T) {
	const checksummed = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseAddress("  ")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidIdentity))
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		_, err := ParseAddress("0x1234")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidIdentity))
	})

	t.Run("rejects zero address", func(t *testing.T) {
		_, err := ParseAddress("0x0000000000000000000000000000000000000000")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidIdentity))
	})

	t.Run("rejects bad checksum", func(t *testing.T) {
		_, err := ParseAddress("0x5AAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidIdentity))
	})

	t.Run("accepts checksummed and lowercase forms", func(t *testing.T) {
		a, err := ParseAddress(checksummed)
		require.NoError(t, err)
		b, err := ParseAddress(strings.ToLower(checksummed))
		require.NoError(t, err)
		assert.Equal(t, a, b)
		assert.Equal(t, checksummed, a.Hex())
	})

	t.Run("accepts address without prefix", func(t *testing.T) {
		a, err := ParseAddress(strings.TrimPrefix(strings.ToLower(checksummed), "0x"))
		require.NoError(t, err)
		assert.Equal(t, checksummed, a.Hex())
	})
}
