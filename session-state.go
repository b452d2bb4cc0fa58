package main

import (
	"slices"

	log "github.com/sirupsen/logrus"
)

// Modes seen from the vendor so far. The set is open: new values appear
// without notice and must not break interpretation.
var knownModes = []string{"DISCONNECTED", "RETRIEVING_SOC", "CALCULATING", "SMART_CHARGE"}

// ModeAnomaly records a session whose mode is outside the known set.
type ModeAnomaly struct {
	Mode    string        `json:"mode"`
	Session ChargeSession `json:"session"`
}

// IsAnySessionActive reports whether any session is in a mode other than
// DISCONNECTED. Unknown modes are logged and surfaced as anomalies, never as
// failures. An empty list reports not charging.
func IsAnySessionActive(sessions []ChargeSession) (bool, []ModeAnomaly) {
	var anomalies []ModeAnomaly
	active := false
	for _, session := range sessions {
		mode := session.Mode()
		if !slices.Contains(knownModes, mode) {
			log.Warnf("unknown mode %s found in charge session: %v", mode, session)
			anomalies = append(anomalies, ModeAnomaly{Mode: mode, Session: session})
		}
		if mode != "DISCONNECTED" {
			active = true
		}
	}
	return active, anomalies
}
