package monetize

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithdrawGuards(t *testing.T) {
	assert := assert.New(t)

	p := NewProfile("acct-1")
	assert.NoError(p.AddEarning(2000, "payout", testNow))

	// below the minimum fails the same way regardless of balance
	assert.ErrorIs(p.Withdraw(1999, testNow), ErrBelowMinimumWithdrawal)
	assert.ErrorIs(p.Withdraw(0, testNow), ErrNonPositiveWithdrawal)

	// more than the balance
	assert.ErrorIs(p.Withdraw(2001, testNow), ErrInsufficientBalance)

	// exact balance drains to zero
	assert.NoError(p.Withdraw(2000, testNow))
	assert.Equal(int64(0), p.Balance)
	assert.Equal(int64(2000), p.Withdrawn)
	assert.Equal(int64(2000), p.Earnings)

	// failed withdrawals leave no ledger entries behind
	assert.Len(p.Transactions, 2)
	assert.Equal(int64(-2000), p.Transactions[1].Amount)
	assert.Equal(TxWithdrawal, p.Transactions[1].Kind)
}

func TestLedgerDerivedBalance(t *testing.T) {
	assert := assert.New(t)

	p := NewProfile("acct-1")
	assert.NoError(p.AddEarning(5000, "april", testNow))
	assert.NoError(p.AddEarning(3000, "may", testNow))
	assert.NoError(p.Withdraw(4000, testNow))

	var derived int64
	for _, tx := range p.Transactions {
		derived += tx.Amount
	}
	assert.Equal(p.Balance, derived)
	assert.Equal(int64(4000), p.Balance)
	assert.True(p.Balance >= 0)
}

func TestMemProfileStore(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	ps := NewMemProfileStore()

	_, err := ps.GetProfile(ctx, "acct-1")
	assert.ErrorIs(err, ErrProfileNotFound)

	// created lazily on first access
	p, err := ps.GetOrCreateProfile(ctx, "acct-1")
	assert.NoError(err)
	assert.Equal("acct-1", p.AccountID)

	assert.NoError(p.AddEarning(2500, "", testNow))
	assert.NoError(ps.PutProfile(ctx, p))

	got, err := ps.GetProfile(ctx, "acct-1")
	assert.NoError(err)
	assert.Equal(int64(2500), got.Balance)

	// stale version loses the write race
	stale := *got
	assert.NoError(got.AddEarning(100, "", testNow))
	assert.NoError(ps.PutProfile(ctx, got))
	assert.ErrorIs(ps.PutProfile(ctx, &stale), ErrConcurrentUpdate)
}
