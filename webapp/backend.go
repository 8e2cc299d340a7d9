package webapp

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/safestep/core/alert"
	"github.com/trezcool/safestep/core/analytics"
	"github.com/trezcool/safestep/core/training"
	"github.com/trezcool/safestep/core/user"
)

// ErrSessionExpired signals a 401-equivalent response: the credential the
// backend holds for us is no longer valid. The app reacts by dropping to
// Anonymous and reconciling; any other backend error leaves local state at its
// last known good value.
var ErrSessionExpired = errors.New("session expired")

// RequestError is a rejection from the backend carrying a user-facing message
// and, for validation failures, field-scoped reasons.
type RequestError struct {
	StatusCode int
	Message    string
	Fields     map[string]string
}

func (e *RequestError) Error() string {
	return e.Message
}

// Backend is the remote collaborator the dashboard consumes. Session
// continuity is the backend's business: authenticated calls automatically
// carry whatever credential it manages.
type Backend interface {
	CheckSession(ctx context.Context) (user.Principal, bool, error)
	Register(ctx context.Context, form user.NewUser) (user.Principal, error)
	Login(ctx context.Context, form user.Login) (user.Principal, error)
	Logout(ctx context.Context) error

	ListTrainings(ctx context.Context) ([]training.Event, error)
	CreateTraining(ctx context.Context, form training.NewEvent) (training.Event, error)
	UpdateTraining(ctx context.Context, id int, form training.UpdateEvent) (training.Event, error)
	Enroll(ctx context.Context, eventID int) (training.Enrollment, error)
	Profile(ctx context.Context) (user.Principal, error)
	Enrollments(ctx context.Context) ([]training.EnrolledEvent, error)
	Sessions(ctx context.Context) ([]user.SessionLog, error)

	DashboardStats(ctx context.Context) (analytics.Stats, error)
	TrainingReport(ctx context.Context, eventID int) (training.Report, error)
	MarkAttendance(ctx context.Context, form training.Attendance) (training.AttendanceRecord, error)
	ExportReport(ctx context.Context) ([]byte, error)

	ListAlerts(ctx context.Context) ([]alert.Alert, error)
	ResolveAlert(ctx context.Context, id int) (alert.Alert, error)
}
