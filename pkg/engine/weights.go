package engine

// Tier awards Points when a value is strictly above Above.
type Tier struct {
	Above  float64
	Points int
}

// Tiers is a severity ladder ordered from the highest threshold down. Only
// the first matching tier counts.
type Tiers []Tier

// Points returns the points of the first tier v exceeds, or 0.
func (t Tiers) Points(v float64) int {
	for _, tier := range t {
		if v > tier.Above {
			return tier.Points
		}
	}
	return 0
}

// Weights holds the severity ladders of every scoring signal.
type Weights struct {
	Frequency Tiers // calls in the window
	VeryShort Tiers // calls lasting 1-3s
	Short     Tiers // calls lasting 1-5s, scored independently of VeryShort
	OddHour   Tiers // calls at 01:00-04:59
	Failed    Tiers // failed calls
	Fanout    Tiers // users sharing the user's most shared IP
	Countries Tiers // distinct connection countries
	Latency   Tiers // mean latency in ms

	SIPAnomaly     int
	BlockedCountry int
}

// DefaultWeights returns the production severity ladders.
//
// The blocked-country weight equals the High risk threshold on purpose: a
// user in a blocked country is High risk regardless of anything else.
func DefaultWeights() *Weights {
	return &Weights{
		Frequency: Tiers{{200, 5}, {150, 4}, {100, 3}},
		VeryShort: Tiers{{15, 4}, {8, 3}, {0, 2}},
		Short:     Tiers{{15, 3}, {8, 2}, {0, 1}},
		OddHour:   Tiers{{20, 3}, {10, 2}, {0, 1}},
		Failed:    Tiers{{15, 3}, {8, 2}, {0, 1}},
		Fanout:    Tiers{{20, 4}, {5, 3}},
		Countries: Tiers{{3, 4}, {2, 3}},
		Latency:   Tiers{{200, 3}, {120, 2}},

		SIPAnomaly:     2,
		BlockedCountry: 8,
	}
}
