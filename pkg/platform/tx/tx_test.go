package tx

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextCarriesTx(t *testing.T) {
	ctx := context.Background()

	_, ok := From(ctx)
	assert.False(t, ok)
	assert.Equal(t, ctx, WithTx(ctx, nil), "nil tx leaves context untouched")

	sqlTx := &sql.Tx{}
	got, ok := From(WithTx(ctx, sqlTx))
	require.True(t, ok)
	assert.Same(t, sqlTx, got)
}

func TestPassthrough(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := Passthrough{}.RunInTx(context.Background(), func(context.Context) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestAfterCommit(t *testing.T) {
	t.Run("runs immediately outside a unit of work", func(t *testing.T) {
		ran := false
		AfterCommit(context.Background(), func() { ran = true })
		assert.True(t, ran)
	})

	t.Run("runs in order once the runner commits", func(t *testing.T) {
		var order []string
		err := Passthrough{}.RunInTx(context.Background(), func(ctx context.Context) error {
			AfterCommit(ctx, func() { order = append(order, "first") })
			AfterCommit(ctx, func() { order = append(order, "second") })
			assert.Empty(t, order, "nothing runs before commit")
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"first", "second"}, order)
	})

	t.Run("dropped when the unit of work fails", func(t *testing.T) {
		ran := false
		err := Passthrough{}.RunInTx(context.Background(), func(ctx context.Context) error {
			AfterCommit(ctx, func() { ran = true })
			return errors.New("boom")
		})
		require.Error(t, err)
		assert.False(t, ran)
	})

	t.Run("inner runner leaves hooks to the owner", func(t *testing.T) {
		outer, hooks, owned := WithCommitHooks(context.Background())
		require.True(t, owned)
		ran := false
		require.NoError(t, Passthrough{}.RunInTx(outer, func(ctx context.Context) error {
			AfterCommit(ctx, func() { ran = true })
			return nil
		}))
		assert.False(t, ran, "inner commit is not the outermost")

		hooks.Run()
		assert.True(t, ran)
	})
}

func TestSQLRunner_JoinsOpenTx(t *testing.T) {
	// An outer transaction on the context is reused; the runner never touches
	// its (nil) database in that case.
	r := NewSQLRunner(nil, 0)
	ctx := WithTx(context.Background(), &sql.Tx{})
	called := false
	require.NoError(t, r.RunInTx(ctx, func(inner context.Context) error {
		called = true
		_, ok := From(inner)
		assert.True(t, ok)
		return nil
	}))
	assert.True(t, called)
}
