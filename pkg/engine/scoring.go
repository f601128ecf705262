package engine

import (
	"fmt"
	"sort"

	"github.com/gokaycavdar/go-cdrguard/pkg/aggregate"
	"github.com/gokaycavdar/go-cdrguard/pkg/models"
	"github.com/gokaycavdar/go-cdrguard/pkg/rules"
)

// Scorer turns a UserAggregate into a UserRiskProfile.
//
// Scoring reads the aggregates directly and never looks at rule findings, so
// the rule table and the scores stay independent.
type Scorer struct {
	weights *Weights
	bonus   BonusSource
}

// NewScorer returns a Scorer. Nil arguments fall back to DefaultWeights and
// NoBonus.
func NewScorer(w *Weights, b BonusSource) *Scorer {
	if w == nil {
		w = DefaultWeights()
	}
	if b == nil {
		b = NoBonus{}
	}
	return &Scorer{weights: w, bonus: b}
}

// Score computes the additive suspicion score of one user.
func (s *Scorer) Score(agg aggregate.UserAggregate, gctx *aggregate.GlobalContext) models.UserRiskProfile {
	w := s.weights
	var signals []models.Signal
	add := func(points int, format string, args ...any) {
		if points > 0 {
			signals = append(signals, models.Signal{Label: fmt.Sprintf(format, args...), Points: points})
		}
	}

	add(w.Frequency.Points(float64(agg.TotalCalls)), "High Call Frequency (%d calls)", agg.TotalCalls)
	add(w.VeryShort.Points(float64(agg.VeryShortCalls)), "Very Short Calls (%d calls of 1-3s)", agg.VeryShortCalls)
	add(w.Short.Points(float64(agg.ShortCalls)), "Short Calls (%d calls of 1-5s)", agg.ShortCalls)
	add(w.OddHour.Points(float64(agg.OddHourCalls)), "Odd Hour Activity (%d calls at 01-04h)", agg.OddHourCalls)
	add(w.Failed.Points(float64(agg.FailedCalls)), "Failed Connections (%d)", agg.FailedCalls)

	if ip, n := gctx.MaxSharing(agg.SourceIPs); n > 0 {
		add(w.Fanout.Points(float64(n)), "Shared Source IP (%s used by %d users)", ip, n)
	}

	add(w.Countries.Points(float64(agg.DistinctCountries())), "VPN: Multiple Countries (%d)", agg.DistinctCountries())
	if agg.LatencySamples > 0 {
		add(w.Latency.Points(agg.AvgLatency()), "VPN: High Latency (avg %.0fms)", agg.AvgLatency())
	}
	if agg.SIPAnomaly {
		add(w.SIPAnomaly, "VPN: SIP Header Markers")
	}

	if rules.IsBlockedCountry(agg.Country) {
		add(w.BlockedCountry, "Blocked Country (%s)", agg.Country)
	}

	score := 0
	for _, sig := range signals {
		score += sig.Points
	}
	if score > 0 {
		if b := s.bonus.Bonus(agg.Username); b > 0 {
			if b > MaxBonus {
				b = MaxBonus
			}
			add(b, "Additional Pattern Bonus")
			score += b
		}
	}

	// Highest points first; equal points keep declaration order.
	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].Points > signals[j].Points
	})

	reasons := make([]string, 0, models.MaxReasons)
	for _, sig := range signals {
		if len(reasons) == models.MaxReasons {
			break
		}
		reasons = append(reasons, sig.Label)
	}
	if signals == nil {
		signals = []models.Signal{}
	}

	return models.UserRiskProfile{
		Username:        agg.Username,
		SuspiciousScore: score,
		RiskLevel:       models.LevelFor(score),
		Reasons:         reasons,
		Signals:         signals,
	}
}
