package alert

import "time"

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

type Status string

const (
	StatusActive   Status = "Active"
	StatusResolved Status = "Resolved"
)

// Alert is an operational notification (low attendance, coverage gap, ...).
// Its only transition is Active -> Resolved, one-way.
type Alert struct {
	ID        int       `json:"id"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	Priority  Priority  `json:"priority"`
	Timestamp time.Time `json:"timestamp"`
	Status    Status    `json:"status"`
}
