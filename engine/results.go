package engine

import (
	"time"

	"github.com/flocksocial/integrity/account"
	"github.com/flocksocial/integrity/monetize"
)

// Outcome of a detection run.
type DetectionResult struct {
	AccountID          string                `json:"accountId"`
	Flags              []account.AnomalyFlag `json:"flags"`
	GrowthPattern      account.GrowthPattern `json:"growthPattern"`
	SuspiciousActivity bool                  `json:"suspiciousActivity"`
	CheckedAt          time.Time             `json:"checkedAt"`
}

// Outcome of a flag-driven sanction evaluation.
type SanctionResult struct {
	AccountID string `json:"accountId"`
	// Level is empty when the evaluation cleared state instead of sanctioning.
	Level                account.SanctionLevel `json:"level,omitempty"`
	Cleared              bool                  `json:"cleared"`
	Downgraded           bool                  `json:"downgraded"`
	ReachPenalty         float64               `json:"reachPenalty"`
	MonetizationEligible bool                  `json:"monetizationEligible"`
	ActiveSanctions      int                   `json:"activeSanctions"`
}

// Outcome of expiry cleanup or a manual lift.
type ReconciliationResult struct {
	AccountID            string  `json:"accountId"`
	Cleared              bool    `json:"cleared"`
	ReachPenalty         float64 `json:"reachPenalty"`
	MonetizationEligible bool    `json:"monetizationEligible"`
	ActiveSanctions      int     `json:"activeSanctions"`
}

// Outcome of an administrative sanction.
type ManualSanctionResult struct {
	AccountID string                `json:"accountId"`
	Type      account.SanctionType  `json:"type"`
	Level     account.SanctionLevel `json:"level"`
	ExpiresAt time.Time             `json:"expiresAt"`
}

// Outcome of a score recalculation.
type ScoreResult struct {
	AccountID string         `json:"accountId"`
	Score     monetize.Score `json:"score"`
	Eligible  bool           `json:"eligible"`
}
