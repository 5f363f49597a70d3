package domain

// RiskLevel is the qualitative bucket used by every risk indicator
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelModerate RiskLevel = "moderate"
	RiskLevelElevated RiskLevel = "elevated"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelExtreme  RiskLevel = "extreme"
)

// Severity orders levels from 0 (low) to 4 (extreme)
func (l RiskLevel) Severity() int {
	switch l {
	case RiskLevelModerate:
		return 1
	case RiskLevelElevated:
		return 2
	case RiskLevelHigh:
		return 3
	case RiskLevelExtreme:
		return 4
	default:
		return 0
	}
}

// AtLeast reports whether l is as severe as other or more
func (l RiskLevel) AtLeast(other RiskLevel) bool {
	return l.Severity() >= other.Severity()
}

// LevelFromScore buckets a 0-100 score: >=80 extreme, >=65 high, >=50 elevated,
// >=30 moderate, otherwise low.
func LevelFromScore(score float64) RiskLevel {
	switch {
	case score >= 80:
		return RiskLevelExtreme
	case score >= 65:
		return RiskLevelHigh
	case score >= 50:
		return RiskLevelElevated
	case score >= 30:
		return RiskLevelModerate
	default:
		return RiskLevelLow
	}
}
