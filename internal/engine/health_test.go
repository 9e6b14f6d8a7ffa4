package engine

import (
	"testing"
	"time"

	"github.com/vigil-app/vigil/pkg/types"
)

func TestHealthScoreContactedToday(t *testing.T) {
	now := time.Now().UTC()
	rel := &types.Relationship{ExpectedInterval: 7, LastContactAt: &now}

	// No overdue penalty; any recency bonus clamps at 100.
	if got := HealthScore(rel, 0, now); got != 100 {
		t.Errorf("score = %d, want 100", got)
	}
	if got := HealthScore(rel, 5, now); got != 100 {
		t.Errorf("score with bonus = %d, want 100 (clamped)", got)
	}
}

func TestHealthScoreNeverContacted(t *testing.T) {
	rel := &types.Relationship{ExpectedInterval: 7}
	if got := HealthScore(rel, 0, time.Now().UTC()); got != 70 {
		t.Errorf("score = %d, want 70", got)
	}
}

func TestHealthScoreOverduePenalty(t *testing.T) {
	now := time.Now().UTC()
	last := now.Add(-10 * 24 * time.Hour)
	rel := &types.Relationship{ExpectedInterval: 7, LastContactAt: &last}

	// 3 days overdue: 100 - 15 = 85.
	if got := HealthScore(rel, 0, now); got != 85 {
		t.Errorf("score = %d, want 85", got)
	}
}

func TestHealthScorePenaltyCap(t *testing.T) {
	now := time.Now().UTC()
	last := now.Add(-100 * 24 * time.Hour)
	rel := &types.Relationship{ExpectedInterval: 7, LastContactAt: &last}

	// Overdue penalty caps at 50.
	if got := HealthScore(rel, 0, now); got != 50 {
		t.Errorf("score = %d, want 50", got)
	}
}

func TestHealthScoreBonusCap(t *testing.T) {
	now := time.Now().UTC()
	last := now.Add(-100 * 24 * time.Hour)
	rel := &types.Relationship{ExpectedInterval: 7, LastContactAt: &last}

	// Bonus caps at 20: 100 - 50 + 20 = 70.
	if got := HealthScore(rel, 10, now); got != 70 {
		t.Errorf("score = %d, want 70", got)
	}
}
