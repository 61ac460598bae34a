// Package progress stores which problems are solved together with the
// solved count and the daily streak.
package progress

import (
	"context"
	"time"
)

// DateLayout is the layout of Stats.LastSolved
const DateLayout = time.DateOnly

// Stats is the aggregate progress
type Stats struct {
	Solved int `json:"solved"`
	// Streak counts consecutive days with at least one problem solved
	Streak     int      `json:"streak"`
	LastSolved string   `json:"lastSolved,omitempty"`
	SolvedIDs  []string `json:"solvedIds"`
}

// Store persists progress keyed by problem id
type Store interface {
	IsSolved(ctx context.Context, id string) (bool, error)
	// MarkSolved marks id solved, marking a solved problem again is a no-op
	MarkSolved(ctx context.Context, id string) error
	// MarkUnsolved removes id from the solved set, the streak is kept
	MarkUnsolved(ctx context.Context, id string) error
	Stats(ctx context.Context) (Stats, error)
}

// nextStreak returns the streak after solving a problem on today given the
// previous streak and the date of the last solve
func nextStreak(streak int, last string, today time.Time) int {
	t := today.Format(DateLayout)
	switch last {
	case t:
		return max(streak, 1)
	case today.AddDate(0, 0, -1).Format(DateLayout):
		return streak + 1
	}
	return 1
}
