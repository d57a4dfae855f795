package engine

import (
	"context"
)

// BadgeRemover is the badge subsystem boundary. RemoveAutoBadges strips
// automatically-granted badges only; manually-granted badges are untouched.
// Called only when a severe sanction lands.
type BadgeRemover interface {
	RemoveAutoBadges(ctx context.Context, accountID string) error
}
