package models

import "strings"

// Urgency is the triage level attached to an incident report
type Urgency string

const (
	UrgencyHigh   Urgency = "HIGH"
	UrgencyMedium Urgency = "MEDIUM"
	UrgencyLow    Urgency = "LOW"
	UrgencyNone   Urgency = "NONE"
)

// Urgencies lists every urgency level in display precedence order
var Urgencies = []Urgency{UrgencyHigh, UrgencyMedium, UrgencyLow, UrgencyNone}

// ParseUrgency parses an urgency label case-insensitively.
// An empty label means NONE; an unknown label is rejected.
func ParseUrgency(s string) (Urgency, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return UrgencyNone, true
	}
	for _, u := range Urgencies {
		if string(u) == s {
			return u, true
		}
	}
	return "", false
}

// Location is a WGS84 position in degrees
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// IncidentKey identifies an incident across refreshes
type IncidentKey struct {
	SourceID  string
	MessageID string
}

// IncidentPoint is a validated, not-yet-resolved incident report.
// Points are never mutated after normalization; every refresh builds a new set.
type IncidentPoint struct {
	SourceID    string   `json:"sourceId"`
	CurrentNode string   `json:"currentNode"`
	MessageID   string   `json:"messageId"`
	SenderName  string   `json:"senderName"`
	Message     string   `json:"message"`
	Location    Location `json:"location"`
	Urgency     Urgency  `json:"urgency"`
	Resolved    bool     `json:"resolved"`
}

// Key returns the deduplication key of the point
func (p IncidentPoint) Key() IncidentKey {
	return IncidentKey{SourceID: p.SourceID, MessageID: p.MessageID}
}
