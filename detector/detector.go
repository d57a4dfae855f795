// Anomaly detection over account growth and engagement signals.
//
// Each rule is an independent function of the account snapshot; a detection run
// executes every configured rule and unions the flags they raise. The flag set
// fully replaces any previous run's output.
package detector

import (
	"log/slog"
	"time"

	"github.com/flocksocial/integrity/account"
)

// The interface exposed to rules: a read-only account snapshot, the evaluation
// instant, and a collector for raised flags.
type Context struct {
	Account *account.Account
	Now     time.Time
	Logger  *slog.Logger

	flags map[account.AnomalyFlag]bool
}

func NewContext(acct *account.Account, now time.Time, logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.Default()
	}
	return &Context{
		Account: acct,
		Now:     now,
		Logger:  logger.With("account", acct.ID),
		flags:   make(map[account.AnomalyFlag]bool),
	}
}

// AddFlag raises a risk flag. The flag set is a union; a flag raised by more
// than one rule appears once.
func (c *Context) AddFlag(f account.AnomalyFlag) {
	c.flags[f] = true
}

func (c *Context) HasFlag(f account.AnomalyFlag) bool {
	return c.flags[f]
}

// Flags returns the raised flags in a stable order.
func (c *Context) Flags() []account.AnomalyFlag {
	ordered := []account.AnomalyFlag{
		account.FlagSpikeFollowers,
		account.FlagInconsistentEngagement,
		account.FlagInactiveWithFollowers,
		account.FlagFakeInteractionNetwork,
		account.FlagRapidFollowUnfollow,
	}
	var out []account.AnomalyFlag
	for _, f := range ordered {
		if c.flags[f] {
			out = append(out, f)
		}
	}
	return out
}

type RuleFunc func(c *Context) error

// Holds configuration of which rules should be run, and dispatches an account
// snapshot to them.
type RuleSet struct {
	AccountRules []RuleFunc
}

// Executes all account rules. Only dispatches execution, does no other pre/post
// processing.
func (r *RuleSet) CallAccountRules(c *Context) error {
	for _, f := range r.AccountRules {
		if err := f(c); err != nil {
			return err
		}
	}
	return nil
}

func DefaultRules() RuleSet {
	return RuleSet{
		AccountRules: []RuleFunc{
			FollowerSpike24hRule,
			FollowerSpikeWeekRule,
			InconsistentEngagementRule,
			InactiveWithFollowersRule,
			RapidFollowUnfollowRule,
			FakeInteractionNetworkRule,
		},
	}
}

// Classify maps flag-set cardinality to a growth pattern: zero flags is
// normal, one or two is abnormal, three or more is suspicious.
func Classify(flags []account.AnomalyFlag) account.GrowthPattern {
	switch n := len(flags); {
	case n == 0:
		return account.PatternNormal
	case n <= 2:
		return account.PatternAbnormal
	default:
		return account.PatternSuspicious
	}
}
