package accountstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/flocksocial/integrity/account"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestMemAccountStoreBasics(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	as := NewMemAccountStore()

	_, err := as.GetAccount(ctx, "missing")
	assert.ErrorIs(err, ErrNotFound)

	acct := account.NewAccount("acct-1")
	acct.FollowerCount = 500
	assert.NoError(as.PutAccount(ctx, acct))
	assert.Equal(int64(1), acct.Version)

	got, err := as.GetAccount(ctx, "acct-1")
	assert.NoError(err)
	assert.Equal(int64(500), got.FollowerCount)

	// the stored copy is isolated from caller mutation
	got.FollowerCount = 9999
	again, err := as.GetAccount(ctx, "acct-1")
	assert.NoError(err)
	assert.Equal(int64(500), again.FollowerCount)
}

func TestMemAccountStoreVersionRace(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	as := NewMemAccountStore()
	acct := account.NewAccount("acct-1")
	assert.NoError(as.PutAccount(ctx, acct))

	a, _ := as.GetAccount(ctx, "acct-1")
	b, _ := as.GetAccount(ctx, "acct-1")

	a.TotalPosts = 1
	assert.NoError(as.PutAccount(ctx, a))

	// b read the same version; its write must be rejected, not silently merged
	b.TotalLikes = 1
	assert.ErrorIs(as.PutAccount(ctx, b), ErrConcurrentUpdate)

	got, _ := as.GetAccount(ctx, "acct-1")
	assert.Equal(int64(1), got.TotalPosts)
	assert.Equal(int64(0), got.TotalLikes)
}

func TestMemAccountStoreConcurrentWriters(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	as := NewMemAccountStore()
	acct := account.NewAccount("acct-1")
	assert.NoError(as.PutAccount(ctx, acct))

	// CAS-retry loops from many goroutines must not lose increments
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				for {
					cur, err := as.GetAccount(ctx, "acct-1")
					if err != nil {
						t.Error(err)
						return
					}
					cur.TotalPosts++
					err = as.PutAccount(ctx, cur)
					if err == nil {
						break
					}
					if err != ErrConcurrentUpdate {
						t.Error(err)
						return
					}
				}
			}
		}()
	}
	wg.Wait()

	got, err := as.GetAccount(ctx, "acct-1")
	assert.NoError(err)
	assert.Equal(int64(200), got.TotalPosts)
}

func TestListExpiringSanctions(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	as := NewMemAccountStore()

	expiring := account.NewAccount("acct-expiring")
	soon := testNow.Add(time.Hour)
	expiring.Sanctions[account.SanctionReachReduction] = account.SanctionRecord{
		Type: account.SanctionReachReduction, Level: account.LevelModerate, ExpiresAt: &soon,
	}
	assert.NoError(as.PutAccount(ctx, expiring))

	distant := account.NewAccount("acct-distant")
	far := testNow.AddDate(0, 0, 20)
	distant.Sanctions[account.SanctionReachReduction] = account.SanctionRecord{
		Type: account.SanctionReachReduction, Level: account.LevelModerate, ExpiresAt: &far,
	}
	assert.NoError(as.PutAccount(ctx, distant))

	clean := account.NewAccount("acct-clean")
	assert.NoError(as.PutAccount(ctx, clean))

	ids, err := as.ListExpiringSanctions(ctx, testNow.AddDate(0, 0, 1))
	assert.NoError(err)
	assert.Equal([]string{"acct-expiring"}, ids)
}
