package account

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPhaseForFollowers(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(PhaseNew, PhaseForFollowers(0))
	assert.Equal(PhaseNew, PhaseForFollowers(999))
	assert.Equal(PhaseEstablished, PhaseForFollowers(1_000))
	assert.Equal(PhaseEstablished, PhaseForFollowers(99_999))
	assert.Equal(PhaseMajor, PhaseForFollowers(100_000))
}

func TestRecordPostBounds(t *testing.T) {
	assert := assert.New(t)

	acct := NewAccount("acct-1")
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < MaxLastPostDates+10; i++ {
		acct.RecordPost(start.Add(time.Duration(i) * time.Hour))
	}

	assert.Equal(int64(MaxLastPostDates+10), acct.TotalPosts)
	assert.Len(acct.LastPostDates, MaxLastPostDates)
	// oldest entries evicted first
	assert.Equal(start.Add(10*time.Hour), acct.LastPostDates[0])
	// firstPostAt set once, never advanced
	assert.Equal(start, *acct.FirstPostAt)
}

func TestSanctionActive(t *testing.T) {
	assert := assert.New(t)
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	later := now.Add(time.Hour)
	rec := SanctionRecord{Type: SanctionReachReduction, Level: LevelModerate, ExpiresAt: &later}
	assert.True(rec.Active(now))
	assert.False(rec.Active(now.Add(2 * time.Hour)))

	// no expiry means never lapses
	rec.ExpiresAt = nil
	assert.True(rec.Active(now.Add(24 * 365 * time.Hour)))
}

func TestEarliestExpiry(t *testing.T) {
	assert := assert.New(t)
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	acct := NewAccount("acct-1")
	_, ok := acct.EarliestExpiry()
	assert.False(ok)

	week := now.AddDate(0, 0, 7)
	month := now.AddDate(0, 0, 30)
	acct.Sanctions[SanctionReachReduction] = SanctionRecord{Type: SanctionReachReduction, ExpiresAt: &month}
	acct.Sanctions[SanctionMonetizationBlock] = SanctionRecord{Type: SanctionMonetizationBlock, ExpiresAt: &week}
	acct.Sanctions[SanctionBadgeRemoval] = SanctionRecord{Type: SanctionBadgeRemoval}

	earliest, ok := acct.EarliestExpiry()
	assert.True(ok)
	assert.Equal(week, earliest)
}
