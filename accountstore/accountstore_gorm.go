package accountstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/flocksocial/integrity/account"
)

// AccountRow is the gorm row shape for the integrity-owned account slice.
// Growth samples, post dates, flags, and sanction records are stored as JSON
// columns; EarliestExpiry is denormalized on every write so the sweeper query
// stays an indexed range scan.
type AccountRow struct {
	ID        string `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	FollowerCount int64
	Verified      bool

	FollowerGrowth []account.GrowthSample `gorm:"serializer:json"`
	TotalPosts     int64
	TotalLikes     int64
	TotalComments  int64
	FirstPostAt    *time.Time
	LastPostDates  []time.Time `gorm:"serializer:json"`

	GrowthPattern      string
	AnomalyFlags       []account.AnomalyFlag `gorm:"serializer:json"`
	SuspiciousActivity bool
	LastAnomalyCheck   *time.Time

	Sanctions            map[account.SanctionType]account.SanctionRecord `gorm:"serializer:json"`
	ReducedReach         bool
	ReachPenalty         float64
	MonetizationEligible bool
	EarliestExpiry       *time.Time `gorm:"index"`

	Version int64
}

func (AccountRow) TableName() string {
	return "integrity_accounts"
}

type GormAccountStore struct {
	db *gorm.DB
}

func NewGormAccountStore(db *gorm.DB) (*GormAccountStore, error) {
	if err := db.AutoMigrate(&AccountRow{}); err != nil {
		return nil, fmt.Errorf("migrating account table: %w", err)
	}
	return &GormAccountStore{db: db}, nil
}

var _ AccountStore = (*GormAccountStore)(nil)

func (s *GormAccountStore) GetAccount(ctx context.Context, id string) (*account.Account, error) {
	var row AccountRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("loading account %s: %w", id, err)
	}
	return rowToAccount(&row), nil
}

func (s *GormAccountStore) PutAccount(ctx context.Context, acct *account.Account) error {
	row := accountToRow(acct)
	if acct.Version == 0 {
		row.Version = 1
		if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
			return fmt.Errorf("creating account %s: %w", acct.ID, err)
		}
		acct.Version = row.Version
		return nil
	}

	row.Version = acct.Version + 1
	res := s.db.WithContext(ctx).
		Model(&AccountRow{}).
		Where("id = ? AND version = ?", acct.ID, acct.Version).
		Select("*").
		Omit("id", "created_at").
		Updates(row)
	if res.Error != nil {
		return fmt.Errorf("saving account %s: %w", acct.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		// either the row is gone or someone else won the version race
		var count int64
		if err := s.db.WithContext(ctx).Model(&AccountRow{}).Where("id = ?", acct.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("saving account %s: %w", acct.ID, err)
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrConcurrentUpdate
	}
	acct.Version = row.Version
	return nil
}

func (s *GormAccountStore) ListExpiringSanctions(ctx context.Context, before time.Time) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&AccountRow{}).
		Where("earliest_expiry IS NOT NULL AND earliest_expiry < ?", before).
		Order("earliest_expiry asc").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("listing expiring sanctions: %w", err)
	}
	return ids, nil
}

func accountToRow(a *account.Account) *AccountRow {
	row := &AccountRow{
		ID:                   a.ID,
		FollowerCount:        a.FollowerCount,
		Verified:             a.Verified,
		FollowerGrowth:       a.FollowerGrowth,
		TotalPosts:           a.TotalPosts,
		TotalLikes:           a.TotalLikes,
		TotalComments:        a.TotalComments,
		FirstPostAt:          a.FirstPostAt,
		LastPostDates:        a.LastPostDates,
		GrowthPattern:        string(a.GrowthPattern),
		AnomalyFlags:         a.AnomalyFlags,
		SuspiciousActivity:   a.SuspiciousActivity,
		LastAnomalyCheck:     a.LastAnomalyCheck,
		Sanctions:            a.Sanctions,
		ReducedReach:         a.ReducedReach,
		ReachPenalty:         a.ReachPenalty,
		MonetizationEligible: a.MonetizationEligible,
		Version:              a.Version,
	}
	if expiry, ok := a.EarliestExpiry(); ok {
		row.EarliestExpiry = &expiry
	}
	return row
}

func rowToAccount(row *AccountRow) *account.Account {
	acct := &account.Account{
		ID:                   row.ID,
		FollowerCount:        row.FollowerCount,
		Verified:             row.Verified,
		FollowerGrowth:       row.FollowerGrowth,
		TotalPosts:           row.TotalPosts,
		TotalLikes:           row.TotalLikes,
		TotalComments:        row.TotalComments,
		FirstPostAt:          row.FirstPostAt,
		LastPostDates:        row.LastPostDates,
		GrowthPattern:        account.GrowthPattern(row.GrowthPattern),
		AnomalyFlags:         row.AnomalyFlags,
		SuspiciousActivity:   row.SuspiciousActivity,
		LastAnomalyCheck:     row.LastAnomalyCheck,
		Sanctions:            row.Sanctions,
		ReducedReach:         row.ReducedReach,
		ReachPenalty:         row.ReachPenalty,
		MonetizationEligible: row.MonetizationEligible,
		Version:              row.Version,
	}
	if acct.Sanctions == nil {
		acct.Sanctions = make(map[account.SanctionType]account.SanctionRecord)
	}
	return acct
}
