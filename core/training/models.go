package training

import (
	"time"

	"github.com/trezcool/safestep/core"
)

type Status string

const (
	StatusScheduled Status = "Scheduled"
	StatusActive    Status = "Active"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusActive, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type Visibility string

const (
	VisibilityPublic     Visibility = "Public"
	VisibilityRestricted Visibility = "Restricted"
)

// Themes is the closed list of training themes.
var Themes = []string{
	"Disaster Response", "Emergency Planning", "Risk Assessment", "Vulnerability Analysis",
	"Community Engagement", "Public Awareness", "Early Warning", "Technology Integration",
	"Recovery Planning", "Coordination Mechanisms",
}

func ValidTheme(t string) bool {
	for _, known := range Themes {
		if known == t {
			return true
		}
	}
	return false
}

// Event is a scheduled training event.
type Event struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	StartDate   string     `json:"start_date"` // 2006-01-02
	EndDate     string     `json:"end_date"`   // 2006-01-02
	StartTime   string     `json:"start_time"` // 15:04
	EndTime     string     `json:"end_time"`   // 15:04
	Themes      []string   `json:"themes"`
	Trainer     string     `json:"trainer"`
	Location    string     `json:"location"`
	Latitude    float64    `json:"latitude"`
	Longitude   float64    `json:"longitude"`
	Capacity    int        `json:"capacity"`
	Enrolled    int        `json:"enrolled"`
	Status      Status     `json:"status"`
	Visibility  Visibility `json:"visibility"`
	Materials   []string   `json:"materials"`
	CreatedAt   time.Time  `json:"created_at"` // UTC
	UpdatedAt   time.Time  `json:"updated_at"` // UTC
}

func (e Event) IsFull() bool {
	return e.Enrolled >= e.Capacity
}

func (e Event) Remaining() int {
	return e.Capacity - e.Enrolled
}

// Enrollment registers one principal on one event; unique per pair.
type Enrollment struct {
	ID         int       `json:"id"`
	EventID    int       `json:"event_id"`
	UserID     int       `json:"user_id"`
	Status     string    `json:"status"`
	EnrolledAt time.Time `json:"enrollment_date"` // UTC
}

// EnrolledEvent is an event joined with the caller's enrollment date.
type EnrolledEvent struct {
	Event
	EnrolledAt time.Time `json:"enrollment_date"`
}

type AttendanceVia string

const (
	ViaQR     AttendanceVia = "QR"
	ViaManual AttendanceVia = "Manual"
)

// AttendanceRecord marks one participant present at one event.
type AttendanceRecord struct {
	ID          int           `json:"id"`
	EventID     int           `json:"event_id"`
	Participant string        `json:"participant"` // email or ID
	Via         AttendanceVia `json:"via"`
	RecordedAt  time.Time     `json:"recorded_at"` // UTC
}

// Report summarizes one event for the reports section.
type Report struct {
	Event       Event              `json:"event"`
	Enrolled    int                `json:"enrolled"`
	Attended    int                `json:"attended"`
	Attendance  []AttendanceRecord `json:"attendance"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// NewEvent contains information needed to create a new Event.
type NewEvent struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	StartDate   string     `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate     string     `json:"end_date" validate:"required,datetime=2006-01-02,gtefield=StartDate"`
	StartTime   string     `json:"start_time" validate:"required,timehhmm"`
	EndTime     string     `json:"end_time" validate:"required,timehhmm"`
	Themes      []string   `json:"themes" validate:"omitempty,dive,theme"`
	Trainer     string     `json:"trainer" validate:"required"`
	Location    string     `json:"location" validate:"required"`
	Latitude    float64    `json:"latitude"`
	Longitude   float64    `json:"longitude"`
	Capacity    int        `json:"capacity" validate:"required,gt=0"`
	Visibility  Visibility `json:"visibility" validate:"omitempty,oneof=Public Restricted"`
	Materials   []string   `json:"materials"`
}

func (ne *NewEvent) Validate() error {
	core.CleanStrings(&ne.Title, &ne.Trainer, &ne.Location)
	return core.Validate.Struct(ne)
}

// UpdateEvent defines what information may be provided to modify an existing Event.
// Zero values leave the original field unchanged.
type UpdateEvent struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	StartDate   string     `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate     string     `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	StartTime   string     `json:"start_time" validate:"omitempty,timehhmm"`
	EndTime     string     `json:"end_time" validate:"omitempty,timehhmm"`
	Themes      []string   `json:"themes" validate:"omitempty,dive,theme"`
	Trainer     string     `json:"trainer"`
	Location    string     `json:"location"`
	Capacity    int        `json:"capacity" validate:"omitempty,gt=0"`
	Status      Status     `json:"status" validate:"omitempty,oneof=Scheduled Active Completed Cancelled"`
	Visibility  Visibility `json:"visibility" validate:"omitempty,oneof=Public Restricted"`
	Materials   []string   `json:"materials"`
}

func (ue *UpdateEvent) Validate() error {
	core.CleanStrings(&ue.Title, &ue.Trainer, &ue.Location)
	return core.Validate.Struct(ue)
}

// Attendance is the mark-attendance form payload.
type Attendance struct {
	EventID     int           `json:"event_id" validate:"required"`
	Participant string        `json:"participant" validate:"required"`
	Via         AttendanceVia `json:"via" validate:"required,oneof=QR Manual"`
}

func (a *Attendance) Validate() error {
	a.Participant = core.CleanString(a.Participant)
	return core.Validate.Struct(a)
}
