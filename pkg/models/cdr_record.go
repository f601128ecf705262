package models

import (
	"strings"
	"time"
)

// UserStatus is the account state carried by a user record.
type UserStatus string

const (
	UserActive    UserStatus = "active"
	UserSuspended UserStatus = "suspended"
)

// CallType is the media kind of a connection.
type CallType string

const (
	CallAudio CallType = "audio"
	CallVideo CallType = "video"
)

// CallStatus is the final state of a connection.
type CallStatus string

const (
	CallCompleted CallStatus = "completed"
	CallFailed    CallStatus = "failed"
)

// IsFailed reports whether the status denotes a failed call. Comparison is
// case-insensitive so "FAILED" exported by other switches counts too.
func (s CallStatus) IsFailed() bool {
	return strings.EqualFold(strings.TrimSpace(string(s)), string(CallFailed))
}

// User is one subscriber row of the users table.
type User struct {
	ID               int        `json:"id"`
	Username         string     `json:"username"`
	Email            string     `json:"email"`
	Phone            string     `json:"phone"`
	Location         string     `json:"location"`
	Country          string     `json:"country"`
	Timezone         string     `json:"timezone"`
	IPAddress        string     `json:"ip_address"`
	RegistrationDate time.Time  `json:"registration_date"`
	Status           UserStatus `json:"status"`
}

// Connection is one call detail record.
//
// Username is the grouping key used by the aggregation builder. When a CDR
// references a user that is missing from the users table, Username holds the
// raw identifier found in the file.
type Connection struct {
	ID              int        `json:"id"`
	UserID          int        `json:"user_id"`
	Username        string     `json:"username"`
	SourceIP        string     `json:"source_ip"`
	Destination     string     `json:"destination"`
	DestinationIP   string     `json:"destination_ip"`
	PacketBytes     int64      `json:"packet_bytes"`
	DurationSeconds int        `json:"duration"`
	CallTimestamp   time.Time  `json:"call_time"`
	CallType        CallType   `json:"call_type"`
	Status          CallStatus `json:"status"`
	Country         string     `json:"country"`
	SIPUserAgent    string     `json:"sip_user_agent"`
	SIPVia          string     `json:"sip_via"`
	LatencyMs       int        `json:"latency_ms"`
}

// Column layouts of the exchanged CSV tables, in export order.
var (
	UserColumns = []string{
		"id", "username", "email", "phone", "location", "country",
		"timezone", "ip_address", "registration_date", "status",
	}
	ConnectionColumns = []string{
		"id", "user_id", "username", "source_ip", "destination", "destination_ip",
		"packet_bytes", "duration", "call_time", "call_type", "status", "country",
		"sip_user_agent", "sip_via", "latency_ms",
	}
)

// Time layouts used in the CSV tables.
const (
	TimestampLayout = "2006-01-02 15:04:05"
	DateLayout      = "2006-01-02"
)
