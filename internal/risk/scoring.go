package risk

import "math"

// Level classifies a residual score against the fixed breakpoints.
type Level string

const (
	LevelLow      Level = "Low"
	LevelMedium   Level = "Medium"
	LevelHigh     Level = "High"
	LevelCritical Level = "Critical"
)

// Score breakpoints: scores below LowCeiling are Low, below MediumCeiling
// Medium, below HighCeiling High, everything else Critical.
const (
	LowCeiling    = 7
	MediumCeiling = 13
	HighCeiling   = 19
)

// roundHalfUp rounds to the nearest integer with ties going up, so a mean
// of 4.5 scores 5, while 4.25 scores 4.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// OverallImpact is the half-up rounded mean of the four impact dimensions.
func OverallImpact(ia ImpactAssessment) int {
	sum := ia.Financial + ia.Operational + ia.Regulatory + ia.Reputational
	return roundHalfUp(float64(sum) / 4.0)
}

// InherentScore is the pre-control product of likelihood and overall
// impact, on the 1-25 scale.
func InherentScore(likelihood int, ia ImpactAssessment) int {
	return likelihood * OverallImpact(ia)
}

// ResidualScore is the post-control product. The adjusted inputs come from
// the caller's control assessment; they are not derived here.
func ResidualScore(adjustedLikelihood, adjustedImpact int) int {
	return adjustedLikelihood * adjustedImpact
}

// LevelFor buckets a residual score.
func LevelFor(score int) Level {
	switch {
	case score < LowCeiling:
		return LevelLow
	case score < MediumCeiling:
		return LevelMedium
	case score < HighCeiling:
		return LevelHigh
	default:
		return LevelCritical
	}
}
