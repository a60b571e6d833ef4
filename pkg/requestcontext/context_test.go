package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

func TestAccessors(t *testing.T) {
	ctx := context.Background()

	_, ok := Caller(ctx)
	assert.False(t, ok)
	assert.Empty(t, RequestID(ctx))
	_, ok = Time(ctx)
	assert.False(t, ok)
	assert.False(t, Now(ctx).IsZero(), "falls back to the wall clock")

	caller := common.HexToAddress("0x00000000000000000000000000000000000000c1")
	pinned := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx = WithTime(WithRequestID(WithCaller(ctx, caller), "req-7"), pinned)

	got, ok := Caller(ctx)
	assert.True(t, ok)
	assert.Equal(t, caller, got)
	assert.Equal(t, "req-7", RequestID(ctx))
	assert.Equal(t, pinned, Now(ctx))
}
