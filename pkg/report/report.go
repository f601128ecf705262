// Package report assembles the AnalysisResult handed to rendering,
// persistence and notification collaborators.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gokaycavdar/go-cdrguard/internal/logger"
	"github.com/gokaycavdar/go-cdrguard/pkg/models"
)

// TopN is the size of the top suspicious users summary.
const TopN = 3

// Totals are the raw dataset sizes of a run.
type Totals struct {
	Users       int
	Connections int
}

// Assemble combines totals, the rule table and the scored profiles.
//
//   - SuspiciousUserCount counts profiles with a score above zero
//   - SuspiciousConnectionCount sums the counts of the rule table
//   - Profiles are ranked with Rank
//   - TopSuspicious holds the first TopN ranked profiles with a score above zero
func Assemble(totals Totals, summaries []models.RuleSummary, profiles []models.UserRiskProfile) *models.AnalysisResult {
	result := &models.AnalysisResult{
		TotalUsers:       totals.Users,
		TotalConnections: totals.Connections,
		Rules:            make([]models.RuleSummary, len(summaries)),
		Profiles:         Rank(profiles),
		TopSuspicious:    make([]models.UserRiskProfile, 0, TopN),
	}
	copy(result.Rules, summaries)

	for _, s := range summaries {
		result.SuspiciousConnectionCount += s.Count
	}
	for _, p := range result.Profiles {
		if p.SuspiciousScore <= 0 {
			continue
		}
		result.SuspiciousUserCount++
		if len(result.TopSuspicious) < TopN {
			result.TopSuspicious = append(result.TopSuspicious, p)
		}
	}

	logger.ReportLog.Debugf("assembled report: %d/%d users suspicious, %d suspicious connections",
		result.SuspiciousUserCount, len(result.Profiles), result.SuspiciousConnectionCount)
	return result
}

// Rank returns a copy of profiles sorted by score descending, ties broken by
// username ascending.
func Rank(profiles []models.UserRiskProfile) []models.UserRiskProfile {
	ranked := make([]models.UserRiskProfile, len(profiles))
	copy(ranked, profiles)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].SuspiciousScore != ranked[j].SuspiciousScore {
			return ranked[i].SuspiciousScore > ranked[j].SuspiciousScore
		}
		return ranked[i].Username < ranked[j].Username
	})
	return ranked
}

// Alerts converts the top suspicious profiles into notification alerts.
func Alerts(result *models.AnalysisResult) []models.Alert {
	if result == nil {
		return nil
	}
	alerts := make([]models.Alert, 0, len(result.TopSuspicious))
	for _, p := range result.TopSuspicious {
		msg := fmt.Sprintf("%s risk user %s scored %d", p.RiskLevel, p.Username, p.SuspiciousScore)
		if len(p.Reasons) > 0 {
			msg += ": " + strings.Join(p.Reasons, "; ")
		}
		alerts = append(alerts, models.Alert{
			Username:  p.Username,
			Score:     p.SuspiciousScore,
			RiskLevel: p.RiskLevel,
			Message:   msg,
		})
	}
	return alerts
}
