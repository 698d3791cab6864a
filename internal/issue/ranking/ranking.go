// Package ranking holds the feed sort comparators. Both sorts are pure
// functions of the issue set and the evaluation instant; no rank is stored.
package ranking

import (
	"math"
	"sort"
	"time"

	"campusvoice/internal/issue/models"
)

// Score is the recency-decayed popularity score behind the hot feed:
// net votes divided by (age in hours + 2)^1.5. The +2 offset keeps brand-new
// issues from dividing by near-zero and dominating the feed.
func Score(issue *models.Issue, now time.Time) float64 {
	return float64(issue.NetVotes()) / math.Pow(issue.AgeHours(now)+2, 1.5)
}

// SortHot orders issues by descending score. The sort is stable so repeated
// renders do not jitter equal-score items.
func SortHot(issues []*models.Issue, now time.Time) {
	sort.SliceStable(issues, func(a, b int) bool {
		return Score(issues[a], now) > Score(issues[b], now)
	})
}

// SortNew orders issues by descending creation time, newest first.
func SortNew(issues []*models.Issue) {
	sort.SliceStable(issues, func(a, b int) bool {
		return issues[a].CreatedAt.After(issues[b].CreatedAt)
	})
}
