package generator

import (
	"fmt"
	"strings"
	"time"

	"github.com/gokaycavdar/go-cdrguard/pkg/models"
)

// Category is the violation planted into a tainted user on top of the
// frequency trigger every tainted user gets.
type Category int

const (
	CategoryFrequency Category = iota
	CategoryShortCall
	CategoryOddHour
	CategoryFailed
	CategoryIPFanout
)

// categoryOrder assigns categories round-robin over tainted user indexes.
var categoryOrder = []Category{
	CategoryFrequency,
	CategoryShortCall,
	CategoryOddHour,
	CategoryFailed,
	CategoryIPFanout,
}

var categoryNames = map[Category]string{
	CategoryFrequency: "frequency",
	CategoryShortCall: "short_call",
	CategoryOddHour:   "odd_hour",
	CategoryFailed:    "failed",
	CategoryIPFanout:  "ip_fanout",
}

// CategoryFor returns the category of the tainted user at index.
func CategoryFor(index int) Category {
	return categoryOrder[index%len(categoryOrder)]
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// MarshalText renders the category name for JSON and YAML output.
func (c Category) MarshalText() ([]byte, error) {
	if _, ok := categoryNames[c]; !ok {
		return nil, fmt.Errorf("unknown category %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText parses a category name.
func (c *Category) UnmarshalText(text []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(text)))
	for cat, n := range categoryNames {
		if n == name {
			*c = cat
			return nil
		}
	}
	return fmt.Errorf("unknown category %q", string(text))
}

// connectionBuilder turns the n-th base connection of a tainted user into one
// that carries the category's violation.
type connectionBuilder func(g *generator, c *models.Connection, n int)

var builders = map[Category]connectionBuilder{
	// Volume alone is the signal.
	CategoryFrequency: func(g *generator, c *models.Connection, n int) {},

	CategoryShortCall: func(g *generator, c *models.Connection, n int) {
		c.DurationSeconds = 1 + g.rng.Intn(3)
	},

	CategoryOddHour: func(g *generator, c *models.Connection, n int) {
		day := c.CallTimestamp.Truncate(24 * time.Hour)
		c.CallTimestamp = day.Add(time.Duration(1+g.rng.Intn(4))*time.Hour +
			time.Duration(g.rng.Intn(60))*time.Minute +
			time.Duration(g.rng.Intn(60))*time.Second)
	},

	CategoryFailed: func(g *generator, c *models.Connection, n int) {
		if n%3 == 0 {
			c.Status = models.CallFailed
			c.DurationSeconds = 0
		}
	},

	CategoryIPFanout: func(g *generator, c *models.Connection, n int) {
		c.SourceIP = FanoutIP
	},
}

// vpnMutators is the orthogonal layer applied when VPN patterns are enabled.
var vpnMutators = map[Category]connectionBuilder{
	CategoryFrequency: func(g *generator, c *models.Connection, n int) {
		if k := n % (len(vpnCountries) + 1); k > 0 {
			c.Country = vpnCountries[k-1]
		}
	},

	CategoryShortCall: markSIP,
	CategoryOddHour:   markSIP,

	CategoryIPFanout: func(g *generator, c *models.Connection, n int) {
		c.SourceIP = VPNExitIP
		c.LatencyMs = 80 + g.rng.Intn(221)
	},
}

func markSIP(g *generator, c *models.Connection, n int) {
	c.SIPUserAgent = markedAgents[n%len(markedAgents)]
	c.SIPVia = fmt.Sprintf("SIP/2.0/UDP relay.vpn-exit.net:5060;branch=z9hG4bK%06x", g.rng.Intn(1<<24))
}
