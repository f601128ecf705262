package models

// RiskLevel is the coarse bucket derived from a suspicion score.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// Score thresholds for risk levels.
const (
	HighRiskThreshold   = 8
	MediumRiskThreshold = 5
)

// LevelFor maps a suspicion score to its risk level.
//   - score >= 8: High
//   - score >= 5: Medium
//   - otherwise (including 0): Low
func LevelFor(score int) RiskLevel {
	switch {
	case score >= HighRiskThreshold:
		return RiskHigh
	case score >= MediumRiskThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}

// MaxReasons caps the number of reasons carried by a profile.
const MaxReasons = 3

// Signal is a single scored contribution to a user's suspicion score.
// It is the explainable unit of the engine: every point in a score can be
// traced back to one signal.
type Signal struct {
	// Label is a human-readable explanation, e.g. "High Call Frequency (150 calls)".
	Label string `json:"label"`

	// Points is what this signal added to the score.
	Points int `json:"points"`
}

// UserRiskProfile is the scored outcome for one user.
type UserRiskProfile struct {
	Username        string    `json:"username"`
	SuspiciousScore int       `json:"suspicious_score"`
	RiskLevel       RiskLevel `json:"risk_level"`

	// Reasons holds the labels of the most significant signals, highest
	// points first, capped at MaxReasons.
	Reasons []string `json:"reasons"`

	// Signals is the full breakdown, ordered like Reasons.
	Signals []Signal `json:"signals"`
}

// RuleSummary is one row of the dataset-level rule trigger table.
type RuleSummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Triggered   bool   `json:"triggered"`
	Count       int    `json:"count"`
}

// AnalysisResult is the complete output of one analysis run. It is the only
// artifact handed to rendering, persistence and notification collaborators and
// carries no formatting concerns.
type AnalysisResult struct {
	TotalUsers                int `json:"total_users"`
	TotalConnections          int `json:"total_connections"`
	SuspiciousUserCount       int `json:"suspicious_user_count"`
	SuspiciousConnectionCount int `json:"suspicious_connection_count"`

	// Rules follows the registry order.
	Rules []RuleSummary `json:"rules"`

	// Profiles is ranked by score descending, then username ascending.
	Profiles []UserRiskProfile `json:"profiles"`

	// TopSuspicious holds the first three ranked profiles with a score above zero.
	TopSuspicious []UserRiskProfile `json:"top_suspicious"`
}

// Alert is a notification-ready view of a top suspicious profile.
type Alert struct {
	Username  string    `json:"username"`
	Score     int       `json:"score"`
	RiskLevel RiskLevel `json:"risk_level"`
	Message   string    `json:"message"`
}
