package countstore

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemCountStoreBasics(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	cs := NewMemCountStore()

	c, err := cs.GetCount(ctx, "sanction", "severe", PeriodTotal)
	assert.NoError(err)
	assert.Equal(0, c)
	assert.NoError(cs.Increment(ctx, "sanction", "severe"))
	assert.NoError(cs.Increment(ctx, "sanction", "severe"))

	for _, period := range []string{PeriodTotal, PeriodDay, PeriodHour} {
		c, err = cs.GetCount(ctx, "sanction", "severe", period)
		assert.NoError(err)
		assert.Equal(2, c)
	}

	c, err = cs.GetCountDistinct(ctx, "flagged", "day", PeriodTotal)
	assert.NoError(err)
	assert.Equal(0, c)
	assert.NoError(cs.IncrementDistinct(ctx, "flagged", "day", "acct-1"))
	assert.NoError(cs.IncrementDistinct(ctx, "flagged", "day", "acct-1"))
	assert.NoError(cs.IncrementDistinct(ctx, "flagged", "day", "acct-1"))
	c, err = cs.GetCountDistinct(ctx, "flagged", "day", PeriodTotal)
	assert.NoError(err)
	assert.Equal(1, c)

	assert.NoError(cs.IncrementDistinct(ctx, "flagged", "day", "acct-2"))
	assert.NoError(cs.IncrementDistinct(ctx, "flagged", "day", "acct-3"))

	for _, period := range []string{PeriodTotal, PeriodDay, PeriodHour} {
		c, err = cs.GetCountDistinct(ctx, "flagged", "day", period)
		assert.NoError(err)
		assert.Equal(3, c)
	}
}

func TestMemCountStoreConcurrent(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	cs := NewMemCountStore()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = cs.Increment(ctx, "evt", "post")
			}
		}()
	}
	wg.Wait()

	c, err := cs.GetCount(ctx, "evt", "post", PeriodTotal)
	assert.NoError(err)
	assert.Equal(1000, c)
}
