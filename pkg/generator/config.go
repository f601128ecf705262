package generator

import (
	"fmt"
	"time"

	"github.com/asaskevich/govalidator"
)

// Generation bounds.
const (
	MinUsers         = 1
	MaxUsers         = 10000
	MinTimeRangeDays = 1
	MaxTimeRangeDays = 365
)

// Connections planted per user.
const (
	CleanConnectionsPerUser   = 5
	TaintedConnectionsPerUser = 150
)

// Config drives a single generation run.
type Config struct {
	// NumUsers is the population size.
	NumUsers int `json:"num_users" yaml:"num_users"`

	// TimeRangeDays is the window, ending at End, over which calls are spread.
	TimeRangeDays int `json:"time_range_days" yaml:"time_range_days"`

	// NumSuspiciousUsers is how many of the first users are tainted.
	// Values above NumUsers are rejected, not clamped.
	NumSuspiciousUsers int `json:"num_suspicious_users" yaml:"num_suspicious_users"`

	// EnableVPNPatterns adds the multi-country, VPN exit and SIP marker layer.
	EnableVPNPatterns bool `json:"enable_vpn_detection" yaml:"enable_vpn_detection"`

	// Seed makes a run reproducible.
	Seed int64 `json:"seed" yaml:"seed"`

	// End is the upper bound of the call window. Zero means now.
	End time.Time `json:"end,omitempty" yaml:"end,omitempty"`
}

// ConfigError reports an out-of-bounds generator setting.
type ConfigError struct {
	Field  string
	Value  int
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("generator config: %s=%d: %s", e.Field, e.Value, e.Reason)
}

// Validate checks the bounds of every field and returns the first violation.
func (c Config) Validate() error {
	if !govalidator.InRangeInt(c.NumUsers, MinUsers, MaxUsers) {
		return &ConfigError{
			Field:  "num_users",
			Value:  c.NumUsers,
			Reason: fmt.Sprintf("must be between %d and %d", MinUsers, MaxUsers),
		}
	}
	if !govalidator.InRangeInt(c.TimeRangeDays, MinTimeRangeDays, MaxTimeRangeDays) {
		return &ConfigError{
			Field:  "time_range_days",
			Value:  c.TimeRangeDays,
			Reason: fmt.Sprintf("must be between %d and %d", MinTimeRangeDays, MaxTimeRangeDays),
		}
	}
	if c.NumSuspiciousUsers < 0 {
		return &ConfigError{Field: "num_suspicious_users", Value: c.NumSuspiciousUsers, Reason: "must not be negative"}
	}
	if c.NumSuspiciousUsers > c.NumUsers {
		return &ConfigError{
			Field:  "num_suspicious_users",
			Value:  c.NumSuspiciousUsers,
			Reason: fmt.Sprintf("must not exceed num_users (%d)", c.NumUsers),
		}
	}
	return nil
}

// ExpectedConnections is the exact number of connections a valid config yields.
func (c Config) ExpectedConnections() int {
	return TaintedConnectionsPerUser*c.NumSuspiciousUsers +
		CleanConnectionsPerUser*(c.NumUsers-c.NumSuspiciousUsers)
}
