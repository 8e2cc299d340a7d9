package webapp

import (
	"bytes"
	"context"
	"encoding/csv"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/safestep/core"
	"github.com/trezcool/safestep/core/alert"
	"github.com/trezcool/safestep/core/analytics"
	"github.com/trezcool/safestep/core/training"
	"github.com/trezcool/safestep/core/user"
	inmemdb "github.com/trezcool/safestep/storage/database/inmem"
)

// MockBackend serves the dashboard from the in-memory repositories; demo mode
// runs against it so the app works with no server at all.
type MockBackend struct {
	usrSvc      *user.Service
	trainingSvc *training.Service
	alertSvc    *alert.Service

	mutex   sync.Mutex
	current *user.Principal
}

var _ Backend = (*MockBackend)(nil)

func NewMockBackend() (*MockBackend, error) {
	db, err := inmemdb.Open()
	if err != nil {
		return nil, errors.Wrap(err, "opening storage")
	}
	if err = inmemdb.Seed(context.Background(), db); err != nil {
		return nil, errors.Wrap(err, "seeding storage")
	}
	return &MockBackend{
		usrSvc:      user.NewService(inmemdb.NewUserRepository(db), nil, nil),
		trainingSvc: training.NewService(inmemdb.NewTrainingRepository(db)),
		alertSvc:    alert.NewService(inmemdb.NewAlertRepository(db)),
	}, nil
}

// DemoRole guesses a role from the email address, mirroring the demo sign-in
// where any address gets a session. Deliberately weak; not a security boundary.
func DemoRole(email string) user.Role {
	switch {
	case strings.Contains(email, "@ndma"):
		return user.RoleNDMAAdmin
	case strings.Contains(email, "@nidm"):
		return user.RoleTrainer
	case strings.HasSuffix(email, ".gov.in"):
		return user.RoleStateAdmin
	default:
		return user.RoleParticipant
	}
}

func nameFromEmail(email string) string {
	local := strings.SplitN(email, "@", 2)[0]
	words := strings.FieldsFunc(local, func(r rune) bool { return r == '.' || r == '_' || r == '-' })
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	if len(words) == 0 {
		return email
	}
	return strings.Join(words, " ")
}

func (m *MockBackend) setCurrent(usr user.Principal) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	cp := usr
	m.current = &cp
}

func (m *MockBackend) requireUser() (user.Principal, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.current == nil {
		return user.Principal{}, ErrSessionExpired
	}
	return *m.current, nil
}

// demoError maps domain errors onto the rejection shape the HTTP client
// produces, so the app handles both backends identically.
func demoError(err error) error {
	switch cause := errors.Cause(err); cause {
	case user.ErrNotFound, training.ErrNotFound, alert.ErrNotFound:
		return &RequestError{StatusCode: http.StatusNotFound, Message: "not found"}
	case training.ErrEventFull, training.ErrAlreadyEnrolled, alert.ErrAlreadyResolved:
		return &RequestError{StatusCode: http.StatusBadRequest, Message: cause.Error()}
	}
	if vErr, ok := errors.Cause(err).(*core.ValidationError); ok {
		return &RequestError{StatusCode: http.StatusBadRequest, Message: "validation failed", Fields: vErr.FieldMap()}
	}
	return err
}

// Backend implementation

func (m *MockBackend) CheckSession(ctx context.Context) (user.Principal, bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.current == nil {
		return user.Principal{}, false, nil
	}
	return *m.current, true, nil
}

func (m *MockBackend) Register(ctx context.Context, form user.NewUser) (user.Principal, error) {
	usr, err := m.usrSvc.Create(ctx, form)
	if err != nil {
		return user.Principal{}, demoError(err)
	}
	m.setCurrent(usr)
	return usr, nil
}

func (m *MockBackend) Login(ctx context.Context, form user.Login) (user.Principal, error) {
	usr, err := m.usrSvc.Authenticate(ctx, form.Email, form.Password, "127.0.0.1", "demo")
	if err != nil {
		switch errors.Cause(err) {
		case user.ErrNotFound:
			// demo mode signs in any address with a synthesized principal
			usr = user.Principal{
				ID:           -1,
				Name:         nameFromEmail(form.Email),
				Email:        form.Email,
				Role:         DemoRole(form.Email),
				Jurisdiction: "Delhi",
				LastLogin:    time.Now().UTC(),
			}
		case bcrypt.ErrMismatchedHashAndPassword:
			return user.Principal{}, &RequestError{StatusCode: http.StatusBadRequest, Message: "invalid email or password"}
		default:
			return user.Principal{}, err
		}
	}
	m.setCurrent(usr)
	return usr, nil
}

func (m *MockBackend) Logout(ctx context.Context) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.current != nil && m.current.ID > 0 {
		_ = m.usrSvc.EndSessions(ctx, m.current.ID)
	}
	m.current = nil
	return nil
}

func (m *MockBackend) ListTrainings(ctx context.Context) ([]training.Event, error) {
	return m.trainingSvc.QueryAll(ctx)
}

func (m *MockBackend) CreateTraining(ctx context.Context, form training.NewEvent) (training.Event, error) {
	usr, err := m.requireUser()
	if err != nil {
		return training.Event{}, err
	}
	if !usr.IsAdmin() {
		return training.Event{}, &RequestError{StatusCode: http.StatusForbidden, Message: "permission denied"}
	}
	evt, err := m.trainingSvc.Create(ctx, form)
	if err != nil {
		return training.Event{}, demoError(err)
	}
	return evt, nil
}

func (m *MockBackend) UpdateTraining(ctx context.Context, id int, form training.UpdateEvent) (training.Event, error) {
	usr, err := m.requireUser()
	if err != nil {
		return training.Event{}, err
	}
	if !usr.IsAdmin() {
		return training.Event{}, &RequestError{StatusCode: http.StatusForbidden, Message: "permission denied"}
	}
	evt, err := m.trainingSvc.Update(ctx, id, form)
	if err != nil {
		return training.Event{}, demoError(err)
	}
	return evt, nil
}

func (m *MockBackend) Enroll(ctx context.Context, eventID int) (training.Enrollment, error) {
	usr, err := m.requireUser()
	if err != nil {
		return training.Enrollment{}, err
	}
	enr, err := m.trainingSvc.Enroll(ctx, eventID, usr.ID)
	if err != nil {
		return training.Enrollment{}, demoError(err)
	}
	return enr, nil
}

func (m *MockBackend) Profile(ctx context.Context) (user.Principal, error) {
	return m.requireUser()
}

func (m *MockBackend) Enrollments(ctx context.Context) ([]training.EnrolledEvent, error) {
	usr, err := m.requireUser()
	if err != nil {
		return nil, err
	}
	return m.trainingSvc.Enrollments(ctx, usr.ID)
}

func (m *MockBackend) Sessions(ctx context.Context) ([]user.SessionLog, error) {
	usr, err := m.requireUser()
	if err != nil {
		return nil, err
	}
	return m.usrSvc.Sessions(ctx, usr.ID)
}

func (m *MockBackend) DashboardStats(ctx context.Context) (analytics.Stats, error) {
	events, err := m.trainingSvc.QueryAll(ctx)
	if err != nil {
		return analytics.Stats{}, err
	}
	var participants int
	locations := make(map[string]struct{})
	for _, evt := range events {
		participants += evt.Enrolled
		locations[evt.Location] = struct{}{}
	}
	activeAlerts, err := m.alertSvc.ActiveCount(ctx)
	if err != nil {
		return analytics.Stats{}, err
	}
	return analytics.Stats{
		TotalTrainings:    len(events),
		TotalParticipants: participants,
		StatesCovered:     len(locations),
		ActiveAlerts:      activeAlerts,
	}, nil
}

func (m *MockBackend) TrainingReport(ctx context.Context, eventID int) (training.Report, error) {
	if _, err := m.requireUser(); err != nil {
		return training.Report{}, err
	}
	rpt, err := m.trainingSvc.Report(ctx, eventID)
	if err != nil {
		return training.Report{}, demoError(err)
	}
	return rpt, nil
}

func (m *MockBackend) MarkAttendance(ctx context.Context, form training.Attendance) (training.AttendanceRecord, error) {
	if _, err := m.requireUser(); err != nil {
		return training.AttendanceRecord{}, err
	}
	rec, err := m.trainingSvc.MarkAttendance(ctx, form)
	if err != nil {
		return training.AttendanceRecord{}, demoError(err)
	}
	return rec, nil
}

func (m *MockBackend) ExportReport(ctx context.Context) ([]byte, error) {
	if _, err := m.requireUser(); err != nil {
		return nil, err
	}
	events, err := m.trainingSvc.QueryAll(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"ID", "Title", "Start Date", "End Date", "Location", "Trainer", "Capacity", "Enrolled", "Status"})
	for _, evt := range events {
		_ = w.Write([]string{
			strconv.Itoa(evt.ID), evt.Title, evt.StartDate, evt.EndDate, evt.Location,
			evt.Trainer, strconv.Itoa(evt.Capacity), strconv.Itoa(evt.Enrolled), string(evt.Status),
		})
	}
	w.Flush()
	if err = w.Error(); err != nil {
		return nil, errors.Wrap(err, "writing csv")
	}
	return buf.Bytes(), nil
}

func (m *MockBackend) ListAlerts(ctx context.Context) ([]alert.Alert, error) {
	if _, err := m.requireUser(); err != nil {
		return nil, err
	}
	return m.alertSvc.QueryAll(ctx)
}

func (m *MockBackend) ResolveAlert(ctx context.Context, id int) (alert.Alert, error) {
	if _, err := m.requireUser(); err != nil {
		return alert.Alert{}, err
	}
	alrt, err := m.alertSvc.Resolve(ctx, id)
	if err != nil {
		return alert.Alert{}, demoError(err)
	}
	return alrt, nil
}
