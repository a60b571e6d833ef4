package state

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"donationpool/internal/pool/models"
)

func TestTx_RevertRestoresEveryKey(t *testing.T) {
	ctx := context.Background()
	base := NewInMemory()
	admin := common.HexToAddress("0x00000000000000000000000000000000000000ad")
	walletB := common.HexToAddress("0x00000000000000000000000000000000000000b2")

	require.NoError(t, base.SetAdmin(ctx, admin))
	require.NoError(t, base.SetShelter(ctx, models.Shelter{Name: "A", Wallet: walletA, TotalReceived: uint256.NewInt(1), Active: true}))
	require.NoError(t, base.SetBalance(ctx, walletA, uint256.NewInt(10)))
	require.NoError(t, base.SetMembers(ctx, []common.Address{walletA}))
	require.NoError(t, base.SetTotalDonations(ctx, uint256.NewInt(100)))

	tx := Begin(base)
	rev := tx.Snapshot()

	require.NoError(t, tx.SetAdmin(ctx, walletB))
	require.NoError(t, tx.SetShelter(ctx, models.Shelter{Name: "A", Wallet: walletA, TotalReceived: uint256.NewInt(1)}))
	require.NoError(t, tx.SetShelter(ctx, models.Shelter{Name: "B", Wallet: walletB, TotalReceived: new(uint256.Int), Active: true}))
	require.NoError(t, tx.SetBalance(ctx, walletA, uint256.NewInt(0)))
	require.NoError(t, tx.SetBalance(ctx, walletA, uint256.NewInt(3)))
	require.NoError(t, tx.SetMembers(ctx, []common.Address{walletB}))
	require.NoError(t, tx.SetTotalDonations(ctx, uint256.NewInt(200)))
	tx.Emit(models.ShelterAdded(walletB, "B"))

	// writes are visible through both the journal and the base store
	b, err := base.Balance(ctx, walletA)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), b.Uint64())

	require.NoError(t, tx.RevertTo(ctx, rev))

	gotAdmin, _ := base.Admin(ctx)
	assert.Equal(t, admin, gotAdmin)
	shelterA, _, _ := base.Shelter(ctx, walletA)
	assert.True(t, shelterA.Active)
	_, exists, _ := base.Shelter(ctx, walletB)
	assert.False(t, exists, "first-time record must disappear on revert")
	b, _ = base.Balance(ctx, walletA)
	assert.Equal(t, uint64(10), b.Uint64())
	members, _ := base.Members(ctx)
	assert.Equal(t, []common.Address{walletA}, members)
	total, _ := base.TotalDonations(ctx)
	assert.Equal(t, uint64(100), total.Uint64())
	assert.Empty(t, tx.Events())
}

func TestTx_NestedRevisions(t *testing.T) {
	ctx := context.Background()
	tx := Begin(NewInMemory())

	require.NoError(t, tx.SetBalance(ctx, walletA, uint256.NewInt(1)))
	tx.Emit(models.FundsWithdrawn(walletA, uint256.NewInt(1)))
	outer := tx.Snapshot()

	require.NoError(t, tx.SetBalance(ctx, walletA, uint256.NewInt(2)))
	tx.Emit(models.FundsWithdrawn(walletA, uint256.NewInt(2)))

	require.NoError(t, tx.RevertTo(ctx, outer))

	b, err := tx.Balance(ctx, walletA)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), b.Uint64(), "inner frame undone, outer frame kept")
	events := tx.Events()
	require.Len(t, events, 1)
	assert.Equal(t, uint64(1), events[0].Amount.Uint64())
}

func TestTx_DeleteShelterIsJournaled(t *testing.T) {
	ctx := context.Background()
	base := NewInMemory()
	require.NoError(t, base.SetShelter(ctx, models.Shelter{Name: "A", Wallet: walletA, TotalReceived: new(uint256.Int), Active: true}))

	tx := Begin(base)
	rev := tx.Snapshot()
	require.NoError(t, tx.DeleteShelter(ctx, walletA))
	require.NoError(t, tx.DeleteShelter(ctx, walletA), "deleting a missing record is a no-op")
	require.NoError(t, tx.RevertTo(ctx, rev))

	got, ok, err := base.Shelter(ctx, walletA)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "A", got.Name)
}

func TestTxContext(t *testing.T) {
	ctx := context.Background()
	_, ok := TxFrom(ctx)
	assert.False(t, ok)
	assert.Equal(t, ctx, WithTx(ctx, nil))

	tx := Begin(NewInMemory())
	got, ok := TxFrom(WithTx(ctx, tx))
	require.True(t, ok)
	assert.Same(t, tx, got)
}
