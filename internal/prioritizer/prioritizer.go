package prioritizer

import (
	"sort"
	"time"

	"github.com/eslam-almahdy/RSS-1.0/internal/risk"
)

// Action buckets, from most to least pressing.
const (
	BucketImmediate = "Immediate"
	BucketHigh      = "High"
	BucketMedium    = "Medium"
	BucketMonitor   = "Monitor"
)

var Buckets = []string{BucketImmediate, BucketHigh, BucketMedium, BucketMonitor}

// Urgency multipliers. They are at least 1 and grow as the next review
// date approaches, passes, or when the risk is flagged for escalation, so
// a stale or escalated risk always outranks an otherwise identical one.
const (
	urgencyNone      = 1.0
	urgencyUpcoming  = 1.1 // review due within 30 days
	urgencyImminent  = 1.3 // review due within 7 days
	urgencyOverdue   = 1.5
	urgencyEscalated = 1.5
)

// UrgencyMultiplier derives the urgency factor for a risk at the given
// reference time.
func UrgencyMultiplier(r *risk.Risk, now time.Time) float64 {
	multiplier := urgencyNone
	if r.NextReviewDue != nil {
		until := r.NextReviewDue.Sub(now)
		switch {
		case until < 0:
			multiplier = urgencyOverdue
		case until <= 7*24*time.Hour:
			multiplier = urgencyImminent
		case until <= 30*24*time.Hour:
			multiplier = urgencyUpcoming
		}
	}
	if r.RequiresEscalation && multiplier < urgencyEscalated {
		multiplier = urgencyEscalated
	}
	return multiplier
}

// PriorityScore combines residual severity with urgency.
func PriorityScore(r *risk.Risk, now time.Time) float64 {
	return float64(r.ResidualScore) * UrgencyMultiplier(r, now)
}

// Prioritized pairs a risk with its computed priority score.
type Prioritized struct {
	Risk          *risk.Risk `json:"risk"`
	PriorityScore float64    `json:"priority_score"`
}

// Prioritize orders risks by priority score descending. Ties fall back to
// residual score, then to the id for a stable listing.
func Prioritize(risks []*risk.Risk, now time.Time) []Prioritized {
	out := make([]Prioritized, 0, len(risks))
	for _, r := range risks {
		out = append(out, Prioritized{Risk: r, PriorityScore: PriorityScore(r, now)})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].PriorityScore != out[j].PriorityScore {
			return out[i].PriorityScore > out[j].PriorityScore
		}
		if out[i].Risk.ResidualScore != out[j].Risk.ResidualScore {
			return out[i].Risk.ResidualScore > out[j].Risk.ResidualScore
		}
		return out[i].Risk.ID < out[j].Risk.ID
	})
	return out
}

// Categorize buckets risks by priority score using the same breakpoints as
// the risk level scale. An escalation flag always lands in Immediate
// regardless of score.
func Categorize(risks []*risk.Risk, now time.Time) map[string][]Prioritized {
	buckets := make(map[string][]Prioritized, len(Buckets))
	for _, name := range Buckets {
		buckets[name] = []Prioritized{}
	}

	for _, item := range Prioritize(risks, now) {
		buckets[bucketFor(item)] = append(buckets[bucketFor(item)], item)
	}
	return buckets
}

func bucketFor(item Prioritized) string {
	if item.Risk.RequiresEscalation {
		return BucketImmediate
	}
	switch {
	case item.PriorityScore >= float64(risk.HighCeiling):
		return BucketImmediate
	case item.PriorityScore >= float64(risk.MediumCeiling):
		return BucketHigh
	case item.PriorityScore >= float64(risk.LowCeiling):
		return BucketMedium
	default:
		return BucketMonitor
	}
}
