package engine

import (
	"time"

	"github.com/vigil-app/vigil/pkg/types"
)

// HealthScore computes the 0-100 health of a relationship from contact
// recency and recent activity. Deterministic and side-effect free: the same
// relationship, event count, and clock always produce the same score.
//
// Scoring: start at 100. When the relationship has been contacted, subtract
// min(50, overdueDays*5) where overdueDays is days past the expected
// interval. When never contacted, subtract a flat 30. Add min(20,
// recentInteractions7d*5) as a recency bonus, then clamp to [0, 100].
func HealthScore(rel *types.Relationship, recentInteractions7d int, now time.Time) int {
	score := 100

	if days, contacted := rel.DaysSinceContact(now); contacted {
		overdue := days - rel.ExpectedInterval
		if overdue > 0 {
			penalty := overdue * 5
			if penalty > 50 {
				penalty = 50
			}
			score -= penalty
		}
	} else {
		score -= 30
	}

	bonus := recentInteractions7d * 5
	if bonus > 20 {
		bonus = 20
	}
	score += bonus

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}
