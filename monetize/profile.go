// Monetization profiles: engagement metrics, the weighted eligibility score,
// and the earnings ledger.
//
// Profiles have their own lifecycle, created lazily on first access, and are
// independent of account sanction state except where the eligibility gate
// consults it.
package monetize

import (
	"errors"
	"time"
)

var (
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrBelowMinimumWithdrawal = errors.New("amount below minimum withdrawal")
	ErrNonPositiveWithdrawal  = errors.New("withdrawal amount must be positive")
	ErrNonPositiveEarning     = errors.New("earning amount must be positive")
)

// Minimum withdrawal unit, in cents.
var MinWithdrawal int64 = 2000

type TransactionKind string

const (
	TxEarning    TransactionKind = "earning"
	TxWithdrawal TransactionKind = "withdrawal"
)

// Ledger entry. Earnings carry positive amounts, withdrawals negative; the
// ledger is append-only and balance is always derivable from it.
type Transaction struct {
	Kind   TransactionKind `json:"kind"`
	Amount int64           `json:"amount"`
	Note   string          `json:"note,omitempty"`
	At     time.Time       `json:"at"`
}

type Metrics struct {
	AvgViewTime       float64 `json:"avgViewTime"` // seconds
	ActiveSubscribers int64   `json:"activeSubscribers"`
	QualityComments   int64   `json:"qualityComments"`
	Shares            int64   `json:"shares"`
	Reports           int64   `json:"reports"`
	PostsLastMonth    int64   `json:"postsLastMonth"`
}

// Stored sub-scores hold the weighted contributions, so Total is a plain sum
// of the four fields.
type Score struct {
	Retention      float64    `json:"retention"`
	Engagement     float64    `json:"engagement"`
	Trust          float64    `json:"trust"`
	Stability      float64    `json:"stability"`
	Total          float64    `json:"total"`
	LastCalculated *time.Time `json:"lastCalculated,omitempty"`
}

type Profile struct {
	AccountID string  `json:"accountId"`
	Metrics   Metrics `json:"metrics"`
	Score     Score   `json:"monetizationScore"`

	IsEligible   bool `json:"isEligible"`
	IsVerified   bool `json:"isVerified"`
	HasSanctions bool `json:"hasSanctions"`

	// monotonic ledger; balance = earnings - withdrawn, never negative
	Earnings     int64         `json:"earnings"`
	Balance      int64         `json:"balance"`
	Withdrawn    int64         `json:"withdrawn"`
	Transactions []Transaction `json:"transactions,omitempty"`

	// optimistic concurrency token, managed by the profile store
	Version int64 `json:"version"`
}

func NewProfile(accountID string) *Profile {
	return &Profile{
		AccountID: accountID,
	}
}

// AddEarning credits the balance and appends a positive ledger entry.
func (p *Profile) AddEarning(amount int64, note string, now time.Time) error {
	if amount <= 0 {
		return ErrNonPositiveEarning
	}
	p.Earnings += amount
	p.Balance += amount
	p.Transactions = append(p.Transactions, Transaction{
		Kind:   TxEarning,
		Amount: amount,
		Note:   note,
		At:     now,
	})
	return nil
}

// Withdraw debits the balance, all or nothing. The minimum-amount check runs
// before the balance check, so an undersized request fails the same way
// regardless of balance.
func (p *Profile) Withdraw(amount int64, now time.Time) error {
	if amount <= 0 {
		return ErrNonPositiveWithdrawal
	}
	if amount < MinWithdrawal {
		return ErrBelowMinimumWithdrawal
	}
	if amount > p.Balance {
		return ErrInsufficientBalance
	}
	p.Balance -= amount
	p.Withdrawn += amount
	p.Transactions = append(p.Transactions, Transaction{
		Kind:   TxWithdrawal,
		Amount: -amount,
		At:     now,
	})
	return nil
}
