// Package generator synthesizes labeled user and CDR datasets.
//
// The generator is the matched counterpart of the scoring engine: it plants
// behavior that the engine must recover.
//
//   - Clean users get exactly 5 connections built so that no rule can fire:
//     business-hour calls of 30s to 30min, always completed, from a source IP
//     no other user shares, with benign SIP headers and low latency.
//   - Tainted users get exactly 150 connections (the frequency rule always
//     fires), a country from the blocked set, and one violation category
//     picked from a fixed dispatch table.
//
// The RNG is seeded from Config.Seed so a run is fully reproducible.
package generator

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/gokaycavdar/go-cdrguard/internal/logger"
	"github.com/gokaycavdar/go-cdrguard/pkg/models"
	"github.com/gokaycavdar/go-cdrguard/pkg/rules"
)

// Shared addresses planted into tainted traffic.
const (
	// FanoutIP is the single address shared by all IP fan-out users.
	FanoutIP = "203.0.113.66"

	// VPNExitIP replaces FanoutIP when VPN patterns are enabled.
	VPNExitIP = "185.220.101.42"
)

// Dataset is the output of one generation run.
type Dataset struct {
	Users       []models.User
	Connections []models.Connection
	Metadata    Metadata
}

// Metadata records the ground truth of a run.
type Metadata struct {
	Seed               int64            `json:"seed" yaml:"seed"`
	NumUsers           int              `json:"num_users" yaml:"num_users"`
	NumSuspiciousUsers int              `json:"num_suspicious_users" yaml:"num_suspicious_users"`
	TimeRangeDays      int              `json:"time_range_days" yaml:"time_range_days"`
	VPNPatterns        bool             `json:"vpn_patterns" yaml:"vpn_patterns"`
	TotalConnections   int              `json:"total_connections" yaml:"total_connections"`
	WindowStart        time.Time        `json:"window_start" yaml:"window_start"`
	WindowEnd          time.Time        `json:"window_end" yaml:"window_end"`
	CategoryCounts     map[Category]int `json:"category_counts" yaml:"category_counts"`
	Tainted            []Label          `json:"tainted" yaml:"tainted"`
}

// Label marks one tainted user.
type Label struct {
	Index    int      `json:"index" yaml:"index"`
	Username string   `json:"username" yaml:"username"`
	Country  string   `json:"country" yaml:"country"`
	Category Category `json:"category" yaml:"category"`
}

type countryProfile struct {
	Code     string
	Location string
	Timezone string
}

var normalProfiles = []countryProfile{
	{"US", "New York, USA", "America/New_York"},
	{"GB", "London, United Kingdom", "Europe/London"},
	{"DE", "Berlin, Germany", "Europe/Berlin"},
	{"FR", "Paris, France", "Europe/Paris"},
	{"CA", "Toronto, Canada", "America/Toronto"},
	{"AU", "Sydney, Australia", "Australia/Sydney"},
	{"JP", "Tokyo, Japan", "Asia/Tokyo"},
	{"NL", "Amsterdam, Netherlands", "Europe/Amsterdam"},
	{"SE", "Stockholm, Sweden", "Europe/Stockholm"},
	{"ES", "Madrid, Spain", "Europe/Madrid"},
}

var blockedProfiles = map[string]countryProfile{
	"RU": {"RU", "Moscow, Russia", "Europe/Moscow"},
	"CN": {"CN", "Beijing, China", "Asia/Shanghai"},
	"KP": {"KP", "Pyongyang, North Korea", "Asia/Pyongyang"},
	"IR": {"IR", "Tehran, Iran", "Asia/Tehran"},
	"SY": {"SY", "Damascus, Syria", "Asia/Damascus"},
	"VE": {"VE", "Caracas, Venezuela", "America/Caracas"},
	"CU": {"CU", "Havana, Cuba", "America/Havana"},
	"MM": {"MM", "Yangon, Myanmar", "Asia/Yangon"},
	"BY": {"BY", "Minsk, Belarus", "Europe/Minsk"},
	"UZ": {"UZ", "Tashkent, Uzbekistan", "Asia/Tashkent"},
}

// vpnCountries are cycled through by multi-country Frequency users, after
// their home country.
var vpnCountries = []string{"NL", "SE", "CH"}

var benignAgents = []string{
	"Linphone/5.2.0 (belle-sip/5.2.0)",
	"Zoiper rv2.10.19",
	"MicroSIP/3.21.3",
	"Bria 6.5.1",
	"Grandstream GXP2170 1.0.11",
}

var markedAgents = []string{
	"Linphone/5.2.0 (VPN-Tunnel)",
	"MicroSIP/3.21.3 via OpenVPN",
	"SIPProxy RelayClient 2.1",
}

type generator struct {
	cfg    Config
	rng    *rand.Rand
	start  time.Time
	nextID int
}

// Generate builds a dataset for cfg. Invalid configs fail with *ConfigError
// before anything is generated.
func Generate(cfg Config) (*Dataset, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.End.IsZero() {
		cfg.End = time.Now()
	}
	end := cfg.End.UTC().Truncate(time.Second)
	day := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)

	g := &generator{
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		start:  day.AddDate(0, 0, -cfg.TimeRangeDays),
		nextID: 1,
	}

	ds := &Dataset{
		Users:       make([]models.User, 0, cfg.NumUsers),
		Connections: make([]models.Connection, 0, cfg.ExpectedConnections()),
		Metadata: Metadata{
			Seed:               cfg.Seed,
			NumUsers:           cfg.NumUsers,
			NumSuspiciousUsers: cfg.NumSuspiciousUsers,
			TimeRangeDays:      cfg.TimeRangeDays,
			VPNPatterns:        cfg.EnableVPNPatterns,
			WindowStart:        g.start,
			WindowEnd:          day,
			CategoryCounts:     make(map[Category]int),
			Tainted:            make([]Label, 0, cfg.NumSuspiciousUsers),
		},
	}

	for i := 0; i < cfg.NumUsers; i++ {
		if i < cfg.NumSuspiciousUsers {
			category := CategoryFor(i)
			user := g.taintedUser(i)
			ds.Users = append(ds.Users, user)
			ds.Connections = append(ds.Connections, g.taintedConnections(user, category)...)
			ds.Metadata.CategoryCounts[category]++
			ds.Metadata.Tainted = append(ds.Metadata.Tainted, Label{
				Index:    i,
				Username: user.Username,
				Country:  user.Country,
				Category: category,
			})
			continue
		}
		user := g.cleanUser(i)
		ds.Users = append(ds.Users, user)
		ds.Connections = append(ds.Connections, g.cleanConnections(user)...)
	}
	ds.Metadata.TotalConnections = len(ds.Connections)

	logger.GenLog.Infof("generated %d users (%d tainted), %d connections, seed=%d",
		len(ds.Users), cfg.NumSuspiciousUsers, len(ds.Connections), cfg.Seed)

	return ds, nil
}

// Username returns the generated username for a population index.
func Username(index int) string {
	return fmt.Sprintf("user_%05d", index+1)
}

func (g *generator) baseUser(index int, profile countryProfile, ip string) models.User {
	username := Username(index)
	registered := g.start.AddDate(0, 0, -(30 + g.rng.Intn(700)))
	return models.User{
		ID:               index + 1,
		Username:         username,
		Email:            username + "@voip-example.net",
		Phone:            fmt.Sprintf("+1-555-%07d", index+1),
		Location:         profile.Location,
		Country:          profile.Code,
		Timezone:         profile.Timezone,
		IPAddress:        ip,
		RegistrationDate: registered,
		Status:           models.UserActive,
	}
}

func (g *generator) cleanUser(index int) models.User {
	return g.baseUser(index, normalProfiles[index%len(normalProfiles)], cleanIP(index))
}

func (g *generator) taintedUser(index int) models.User {
	code := rules.BlockedCountries[index%len(rules.BlockedCountries)]
	u := g.baseUser(index, blockedProfiles[code], taintedIP(index))
	if index%7 == 6 {
		u.Status = models.UserSuspended
	}
	return u
}

// cleanIP is unique per population index.
func cleanIP(index int) string {
	return fmt.Sprintf("10.%d.%d.%d", index/62500+1, (index/250)%250, index%250+1)
}

func taintedIP(index int) string {
	return fmt.Sprintf("172.16.%d.%d", (index/250)%250, index%250+1)
}

func (g *generator) cleanConnections(u models.User) []models.Connection {
	conns := make([]models.Connection, 0, CleanConnectionsPerUser)
	for n := 0; n < CleanConnectionsPerUser; n++ {
		c := g.newConnection(u, 9+g.rng.Intn(9), 30+g.rng.Intn(1771))
		c.LatencyMs = 20 + g.rng.Intn(61)
		conns = append(conns, c)
	}
	return conns
}

func (g *generator) taintedConnections(u models.User, category Category) []models.Connection {
	build := builders[category]
	mutate := vpnMutators[category]
	conns := make([]models.Connection, 0, TaintedConnectionsPerUser)
	for n := 0; n < TaintedConnectionsPerUser; n++ {
		c := g.newConnection(u, 8+g.rng.Intn(14), 30+g.rng.Intn(571))
		c.LatencyMs = 20 + g.rng.Intn(81)
		build(g, &c, n)
		if g.cfg.EnableVPNPatterns && mutate != nil {
			mutate(g, &c, n)
		}
		c.PacketBytes = packetBytes(g.rng, c.CallType, c.DurationSeconds)
		conns = append(conns, c)
	}
	return conns
}

// newConnection is a completed, benign call at the given hour and duration.
func (g *generator) newConnection(u models.User, hour, duration int) models.Connection {
	ts := g.start.
		AddDate(0, 0, g.rng.Intn(g.cfg.TimeRangeDays)).
		Add(time.Duration(hour)*time.Hour +
			time.Duration(g.rng.Intn(60))*time.Minute +
			time.Duration(g.rng.Intn(60))*time.Second)

	callType := models.CallAudio
	if g.rng.Intn(5) == 0 {
		callType = models.CallVideo
	}

	c := models.Connection{
		ID:              g.nextID,
		UserID:          u.ID,
		Username:        u.Username,
		SourceIP:        u.IPAddress,
		Destination:     fmt.Sprintf("+%d%09d", 1+g.rng.Intn(98), g.rng.Intn(1000000000)),
		DestinationIP:   fmt.Sprintf("198.51.100.%d", 1+g.rng.Intn(254)),
		CallTimestamp:   ts,
		CallType:        callType,
		Status:          models.CallCompleted,
		Country:         u.Country,
		SIPUserAgent:    benignAgents[g.rng.Intn(len(benignAgents))],
		SIPVia:          fmt.Sprintf("SIP/2.0/UDP %s:5060;branch=z9hG4bK%06x", u.IPAddress, g.rng.Intn(1<<24)),
		DurationSeconds: duration,
	}
	c.PacketBytes = packetBytes(g.rng, c.CallType, c.DurationSeconds)
	g.nextID++
	return c
}

func packetBytes(rng *rand.Rand, callType models.CallType, duration int) int64 {
	rate := int64(8000)
	if callType == models.CallVideo {
		rate = 64000
	}
	return rate*int64(duration) + int64(rng.Intn(2048))
}
