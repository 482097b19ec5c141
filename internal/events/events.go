// Package events defines the structured events the orchestrator publishes
// for the operator-facing status channel, and the fan-out plumbing that
// delivers them to subscribers.
package events

import "time"

// Event names on the push channel.
const (
	NameLog           = "log"
	NameProgress      = "progress"
	NameItemCompleted = "item_completed"
	NameSummary       = "execution_summary"
	NameComplete      = "execution_complete"
	NameStatus        = "status_update"
)

// LogEntry is one operator-visible log line.
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
	Level     string `json:"level"` // info, warning, error
}

// NewLogEntry stamps a log entry with the wall-clock time the original
// operator UI displays.
func NewLogEntry(level, message string) LogEntry {
	return LogEntry{
		Timestamp: time.Now().Format("15:04:05"),
		Message:   message,
		Level:     level,
	}
}

// Progress reports batch advancement after every item and state change.
type Progress struct {
	Completed   int    `json:"completed"`
	Total       int    `json:"total"`
	CurrentItem string `json:"current_item"`
}

// ItemCompleted marks one input item fully processed.
type ItemCompleted struct {
	Index     int    `json:"index"`
	BMN       string `json:"bmn"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}

// Summary lists the three mutually exclusive outcome buckets at the end
// of a run.
type Summary struct {
	SucceededCount int      `json:"succeeded_count"`
	RestrictedBMNs []string `json:"restricted_bmns"`
	NotFoundBMNs   []string `json:"not_found_bmns"`
}

// Event is one named payload on the push channel.
type Event struct {
	Name string `json:"name"`
	Data any    `json:"data"`
}

// Publisher is the orchestrator's view of the status boundary.
type Publisher interface {
	Publish(ev Event)
}
