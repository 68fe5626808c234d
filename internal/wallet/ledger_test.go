package wallet

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudo-init-do/tradegrid/internal/apperr"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCreditAndRead(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()

	require.NoError(t, l.Credit(ctx, "s1", "u1", FieldPending, d("10.50")))
	require.NoError(t, l.Credit(ctx, "s1", "u1", FieldAvailable, d("1.25")))

	w, err := l.Read(ctx, "s1", "u1")
	require.NoError(t, err)
	assert.Equal(t, "10.50", w.Pending.StringFixed(2))
	assert.Equal(t, "1.25", w.Available.StringFixed(2))
}

func TestReadUnknownUserIsZero(t *testing.T) {
	l := NewMemoryLedger()
	w, err := l.Read(context.Background(), "s1", "nobody")
	require.NoError(t, err)
	assert.True(t, w.Pending.IsZero())
	assert.True(t, w.Available.IsZero())
}

func TestDebitRefusesOverdraw(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()
	require.NoError(t, l.Credit(ctx, "s1", "u1", FieldAvailable, d("5.00")))

	err := l.Debit(ctx, "s1", "u1", FieldAvailable, d("5.01"))
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	// Balance untouched after the refused debit.
	w, err := l.Read(ctx, "s1", "u1")
	require.NoError(t, err)
	assert.Equal(t, "5.00", w.Available.StringFixed(2))

	require.NoError(t, l.Debit(ctx, "s1", "u1", FieldAvailable, d("5.00")))
}

func TestNegativeAmountsRejected(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()

	assert.ErrorIs(t, l.Credit(ctx, "s1", "u1", FieldPending, d("-1")), apperr.ErrInvalidInput)
	assert.ErrorIs(t, l.Debit(ctx, "s1", "u1", FieldPending, d("-1")), apperr.ErrInvalidInput)
	assert.ErrorIs(t, l.Settle(ctx, "s1", "u1", d("-1"), d("0")), apperr.ErrInvalidInput)
}

func TestSettleMovesEscrowMinusCommission(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()
	require.NoError(t, l.Credit(ctx, "s1", "seller", FieldPending, d("100.00")))

	require.NoError(t, l.Settle(ctx, "s1", "seller", d("100.00"), d("98.00")))

	w, err := l.Read(ctx, "s1", "seller")
	require.NoError(t, err)
	assert.Equal(t, "0.00", w.Pending.StringFixed(2))
	assert.Equal(t, "98.00", w.Available.StringFixed(2))
}

func TestSettleRefusesPendingOverdraw(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()
	require.NoError(t, l.Credit(ctx, "s1", "seller", FieldPending, d("50.00")))

	err := l.Settle(ctx, "s1", "seller", d("100.00"), d("98.00"))
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	// Neither side applied.
	w, err := l.Read(ctx, "s1", "seller")
	require.NoError(t, err)
	assert.Equal(t, "50.00", w.Pending.StringFixed(2))
	assert.Equal(t, "0.00", w.Available.StringFixed(2))
}

func TestShardsAreIsolated(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()
	require.NoError(t, l.Credit(ctx, "s1", "u1", FieldAvailable, d("7.00")))

	w, err := l.Read(ctx, "s2", "u1")
	require.NoError(t, err)
	assert.True(t, w.Available.IsZero())
}
