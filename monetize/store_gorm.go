package monetize

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type ProfileRow struct {
	AccountID string `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Metrics Metrics `gorm:"serializer:json"`
	Score   Score   `gorm:"serializer:json"`

	IsEligible   bool
	IsVerified   bool
	HasSanctions bool

	Earnings     int64
	Balance      int64
	Withdrawn    int64
	Transactions []Transaction `gorm:"serializer:json"`

	Version int64
}

func (ProfileRow) TableName() string {
	return "monetization_profiles"
}

type GormProfileStore struct {
	db *gorm.DB
}

func NewGormProfileStore(db *gorm.DB) (*GormProfileStore, error) {
	if err := db.AutoMigrate(&ProfileRow{}); err != nil {
		return nil, fmt.Errorf("migrating profile table: %w", err)
	}
	return &GormProfileStore{db: db}, nil
}

var _ ProfileStore = (*GormProfileStore)(nil)

func (s *GormProfileStore) GetProfile(ctx context.Context, accountID string) (*Profile, error) {
	var row ProfileRow
	err := s.db.WithContext(ctx).First(&row, "account_id = ?", accountID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	} else if err != nil {
		return nil, fmt.Errorf("loading profile %s: %w", accountID, err)
	}
	return rowToProfile(&row), nil
}

func (s *GormProfileStore) GetOrCreateProfile(ctx context.Context, accountID string) (*Profile, error) {
	p, err := s.GetProfile(ctx, accountID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrProfileNotFound) {
		return nil, err
	}
	p = NewProfile(accountID)
	row := profileToRow(p)
	row.Version = 1
	// a concurrent first access may beat us to the insert; re-read in that case
	createErr := s.db.WithContext(ctx).Create(row).Error
	if createErr != nil {
		if existing, getErr := s.GetProfile(ctx, accountID); getErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("creating profile %s: %w", accountID, createErr)
	}
	p.Version = row.Version
	return p, nil
}

func (s *GormProfileStore) PutProfile(ctx context.Context, p *Profile) error {
	row := profileToRow(p)
	if p.Version == 0 {
		row.Version = 1
		if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
			return fmt.Errorf("creating profile %s: %w", p.AccountID, err)
		}
		p.Version = row.Version
		return nil
	}

	row.Version = p.Version + 1
	res := s.db.WithContext(ctx).
		Model(&ProfileRow{}).
		Where("account_id = ? AND version = ?", p.AccountID, p.Version).
		Select("*").
		Omit("account_id", "created_at").
		Updates(row)
	if res.Error != nil {
		return fmt.Errorf("saving profile %s: %w", p.AccountID, res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&ProfileRow{}).Where("account_id = ?", p.AccountID).Count(&count).Error; err != nil {
			return fmt.Errorf("saving profile %s: %w", p.AccountID, err)
		}
		if count == 0 {
			return ErrProfileNotFound
		}
		return ErrConcurrentUpdate
	}
	p.Version = row.Version
	return nil
}

func profileToRow(p *Profile) *ProfileRow {
	return &ProfileRow{
		AccountID:    p.AccountID,
		Metrics:      p.Metrics,
		Score:        p.Score,
		IsEligible:   p.IsEligible,
		IsVerified:   p.IsVerified,
		HasSanctions: p.HasSanctions,
		Earnings:     p.Earnings,
		Balance:      p.Balance,
		Withdrawn:    p.Withdrawn,
		Transactions: p.Transactions,
		Version:      p.Version,
	}
}

func rowToProfile(row *ProfileRow) *Profile {
	return &Profile{
		AccountID:    row.AccountID,
		Metrics:      row.Metrics,
		Score:        row.Score,
		IsEligible:   row.IsEligible,
		IsVerified:   row.IsVerified,
		HasSanctions: row.HasSanctions,
		Earnings:     row.Earnings,
		Balance:      row.Balance,
		Withdrawn:    row.Withdrawn,
		Transactions: row.Transactions,
		Version:      row.Version,
	}
}
