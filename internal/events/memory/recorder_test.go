package memory

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"donationpool/internal/pool/models"
)

var shelter = common.HexToAddress("0x00000000000000000000000000000000000000a1")

func donation(amount uint64) models.Event {
	return models.FundsWithdrawn(shelter, uint256.NewInt(amount))
}

func TestRecorder_KeepsOrder(t *testing.T) {
	rec := NewRecorder(10)
	fixed := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rec.now = func() time.Time { return fixed }

	require.NoError(t, rec.Publish(context.Background(), []models.Event{donation(1), donation(2)}))
	require.NoError(t, rec.Publish(context.Background(), []models.Event{donation(3)}))

	records := rec.Recent(0)
	require.Len(t, records, 3)
	for i, r := range records {
		assert.Equal(t, uint64(i+1), r.Sequence)
		assert.Equal(t, uint64(i+1), r.Event.Amount.Uint64())
		assert.Equal(t, fixed, r.RecordedAt)
	}
}

func TestRecorder_DropsOldestWhenFull(t *testing.T) {
	rec := NewRecorder(3)
	for i := range 5 {
		require.NoError(t, rec.Publish(context.Background(), []models.Event{donation(uint64(i + 1))}))
	}

	assert.Equal(t, 3, rec.Len())
	assert.Equal(t, int64(2), rec.Dropped())

	records := rec.Recent(0)
	require.Len(t, records, 3)
	assert.Equal(t, uint64(3), records[0].Event.Amount.Uint64())
	assert.Equal(t, uint64(5), records[2].Event.Amount.Uint64())
}

func TestRecorder_RecentLimit(t *testing.T) {
	rec := NewRecorder(0)
	assert.Empty(t, rec.Recent(5))

	for i := range 4 {
		require.NoError(t, rec.Publish(context.Background(), []models.Event{donation(uint64(i + 1))}))
	}
	records := rec.Recent(2)
	require.Len(t, records, 2)
	assert.Equal(t, uint64(3), records[0].Sequence)
	assert.Equal(t, uint64(4), records[1].Sequence)
}
