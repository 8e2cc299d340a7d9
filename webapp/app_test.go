package webapp

import (
	"context"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/safestep/core/training"
	"github.com/trezcool/safestep/core/user"
	logsvc "github.com/trezcool/safestep/services/logger"
	"github.com/trezcool/safestep/webapp/widget"
)

// Seed data: 4 events (Mumbai, Delhi restricted, Kolkata, Chennai), 2 active
// alerts, admin rajesh.kumar@ndma.gov.in / admin123.

func testLogger() *logsvc.StdLogger {
	return logsvc.NewStdLogger(log.New(io.Discard, "", 0))
}

func newTestApp(t *testing.T) (*App, *widget.FakeHost, *MockBackend) {
	t.Helper()
	backend, err := NewMockBackend()
	require.NoError(t, err)
	host := widget.NewFakeHost()
	app := NewApp(Options{
		Backend:        backend,
		Host:           host,
		Logger:         testLogger(),
		RequestTimeout: 5 * time.Second,
	})
	app.Start()
	t.Cleanup(app.Stop)
	app.Settle()
	return app, host, backend
}

func login(t *testing.T, app *App, email, pwd string) {
	t.Helper()
	app.SubmitLogin(user.Login{Email: email, Password: pwd})
	app.Settle()
	require.True(t, app.Authenticated())
}

func loginAdmin(t *testing.T, app *App) {
	login(t, app, "rajesh.kumar@ndma.gov.in", "admin123")
}

func Test_App_startsAnonymousOnDashboard(t *testing.T) {
	app, host, _ := newTestApp(t)

	assert.False(t, app.Authenticated())
	assert.Equal(t, DefaultSection, app.CurrentSection())
	assert.Equal(t, []SectionID{SectionDashboard}, app.ActiveSections())

	for _, entry := range app.Nav() {
		wantEnabled := sectionPolicy[entry.Section] == RequirePublic
		assert.Equal(t, wantEnabled, entry.Enabled, string(entry.Section))
		assert.Equal(t, entry.Section == SectionDashboard, entry.Active, string(entry.Section))
	}

	// map shows public events only; stats come from the full set
	m := host.Maps["dashboard-map"]
	require.NotNil(t, m)
	assert.Equal(t, indiaCenter, m.Center)
	assert.Len(t, m.Markers, 3)

	stats := app.Stats()
	assert.Equal(t, 4, stats.TotalTrainings)
	assert.Equal(t, 127, stats.TotalParticipants)
	assert.Equal(t, 4, stats.StatesCovered)
	assert.Equal(t, 2, stats.ActiveAlerts)
}

func Test_App_deniedNavigationChangesNothing(t *testing.T) {
	app, host, _ := newTestApp(t)

	for _, target := range []SectionID{SectionAnalytics, SectionAlerts, SectionAttendance, "nope"} {
		app.Navigate(target)
		app.Settle()

		assert.Equal(t, SectionDashboard, app.CurrentSection(), string(target))
		assert.Equal(t, []SectionID{SectionDashboard}, app.ActiveSections(), string(target))
	}
	// target sections were never rendered
	assert.Zero(t, host.ChartsCreated)
	assert.Zero(t, host.QRsCreated)

	note, ok := host.LastNotification()
	require.True(t, ok)
	assert.Equal(t, widget.LevelError, note.Level)
	assert.Contains(t, note.Message, "sign in")
}

func Test_App_trainingsGridProjection(t *testing.T) {
	app, _, _ := newTestApp(t)

	app.Navigate(SectionTrainings)
	app.Settle()
	assert.Equal(t, []SectionID{SectionTrainings}, app.ActiveSections())

	// anonymous: 3 public events plus the sign-in card
	grid := app.Grid()
	require.Len(t, grid, 4)
	for _, entry := range grid[:3] {
		assert.False(t, entry.SignInPrompt)
	}
	assert.True(t, grid[3].SignInPrompt)

	loginAdmin(t, app)
	app.Navigate(SectionTrainings)
	app.Settle()

	// authenticated: everything, no affordance
	grid = app.Grid()
	require.Len(t, grid, 4)
	for _, entry := range grid {
		assert.False(t, entry.SignInPrompt)
		assert.NotZero(t, entry.Event.ID)
	}
}

func Test_App_loginReconcilesToDashboard(t *testing.T) {
	app, host, _ := newTestApp(t)

	app.Navigate(SectionTrainings)
	app.Settle()

	loginAdmin(t, app)

	assert.Equal(t, DefaultSection, app.CurrentSection())
	assert.Equal(t, []SectionID{SectionDashboard}, app.ActiveSections())
	for _, entry := range app.Nav() {
		assert.True(t, entry.Enabled, string(entry.Section))
	}

	// the dashboard map now carries all events
	assert.Len(t, host.Maps["dashboard-map"].Markers, 4)

	usr, ok := app.Principal()
	require.True(t, ok)
	assert.Equal(t, "rajesh.kumar@ndma.gov.in", usr.Email)
}

func Test_App_logoutDropsRestrictedState(t *testing.T) {
	app, host, _ := newTestApp(t)
	loginAdmin(t, app)

	app.Navigate(SectionAlerts)
	app.Settle()
	require.Len(t, app.Alerts(), 2)

	app.Navigate(SectionAnalytics)
	app.Settle()
	assert.Equal(t, 3, host.ChartsCreated)

	app.Logout()
	app.Settle()

	assert.False(t, app.Authenticated())
	assert.Equal(t, DefaultSection, app.CurrentSection())
	assert.Equal(t, []SectionID{SectionDashboard}, app.ActiveSections())
	assert.Empty(t, app.Alerts(), "restricted data must not survive logout")

	app.Navigate(SectionAnalytics)
	app.Settle()
	assert.Equal(t, SectionDashboard, app.CurrentSection())

	// a fresh session gets fresh chart instances
	loginAdmin(t, app)
	app.Navigate(SectionAnalytics)
	app.Settle()
	assert.Equal(t, 6, host.ChartsCreated)
}

func Test_App_widgetIdempotence(t *testing.T) {
	app, host, _ := newTestApp(t)

	for _, id := range []SectionID{SectionTrainings, SectionDashboard, SectionMap, SectionDashboard} {
		app.Navigate(id)
		app.Settle()
	}

	// one map per container no matter how often sections are re-entered
	assert.Equal(t, 2, host.MapsCreated)
	assert.GreaterOrEqual(t, host.Maps["dashboard-map"].ViewSets, 3)
}

func Test_App_staleResponsesDropped(t *testing.T) {
	backend, err := NewMockBackend()
	require.NoError(t, err)
	slow := &slowTrainings{MockBackend: backend, release: make(chan struct{})}
	host := widget.NewFakeHost()
	app := NewApp(Options{Backend: slow, Host: host, Logger: testLogger(), RequestTimeout: 5 * time.Second})
	app.Start()
	t.Cleanup(app.Stop)
	app.Flush()

	// sign in while the anonymous dashboard fetch is still in flight; the
	// reconcile issues a second fetch under the new epoch
	app.SubmitLogin(user.Login{Email: "rajesh.kumar@ndma.gov.in", Password: "admin123"})
	deadline := time.Now().Add(5 * time.Second)
	for !app.Authenticated() {
		require.True(t, time.Now().Before(deadline), "login timed out")
		time.Sleep(time.Millisecond)
	}

	close(slow.release)
	app.Settle()

	// only the post-login response was applied; the anonymous one was stale
	m := host.Maps["dashboard-map"]
	require.NotNil(t, m)
	assert.Equal(t, 1, m.MarkerSets)
	assert.Len(t, m.Markers, 4)
}

type slowTrainings struct {
	*MockBackend
	release chan struct{}
}

func (s *slowTrainings) ListTrainings(ctx context.Context) ([]training.Event, error) {
	<-s.release
	return s.MockBackend.ListTrainings(ctx)
}

func Test_App_loginValidation(t *testing.T) {
	app, host, _ := newTestApp(t)

	// local validation failure: no transition, field errors, password cleared
	app.SubmitLogin(user.Login{Email: "not-an-email", Password: "secret"})
	app.Settle()
	assert.False(t, app.Authenticated())
	assert.Contains(t, app.FormErrors(), "email")
	form := app.LoginForm()
	assert.Equal(t, "not-an-email", form.Email)
	assert.Empty(t, form.Password)

	// backend rejection: single message, still anonymous
	app.SubmitLogin(user.Login{Email: "rajesh.kumar@ndma.gov.in", Password: "wrong"})
	app.Settle()
	assert.False(t, app.Authenticated())
	note, ok := host.LastNotification()
	require.True(t, ok)
	assert.Equal(t, "invalid email or password", note.Message)
	assert.Equal(t, DefaultSection, app.CurrentSection())
}

func Test_App_registration(t *testing.T) {
	app, _, _ := newTestApp(t)

	form := user.NewUser{
		Name:            "Asha Singh",
		Email:           "asha.singh@example.com",
		Role:            user.RoleParticipant,
		Jurisdiction:    "Bihar",
		Password:        "secret123",
		PasswordConfirm: "different",
	}
	app.SubmitRegistration(form)
	app.Settle()
	assert.False(t, app.Authenticated())
	assert.Contains(t, app.FormErrors(), "confirm_password")
	kept := app.RegistrationForm()
	assert.Equal(t, form.Email, kept.Email)
	assert.Empty(t, kept.Password)
	assert.Empty(t, kept.PasswordConfirm)

	form.PasswordConfirm = form.Password
	app.SubmitRegistration(form)
	app.Settle()
	require.True(t, app.Authenticated())
	assert.Equal(t, DefaultSection, app.CurrentSection())
	assert.Empty(t, app.FormErrors())
	assert.Empty(t, app.RegistrationForm().Email)

	usr, _ := app.Principal()
	assert.Equal(t, "asha.singh@example.com", usr.Email)
}

func Test_App_demoLoginSynthesizesPrincipal(t *testing.T) {
	app, _, _ := newTestApp(t)

	login(t, app, "priya@nidm.gov.in", "whatever")
	usr, _ := app.Principal()
	assert.Equal(t, user.RoleTrainer, usr.Role)
	assert.Equal(t, "Priya", usr.Name)
}

func Test_App_sessionExpiryForcesAnonymous(t *testing.T) {
	app, host, backend := newTestApp(t)
	loginAdmin(t, app)

	// the collaborator loses the session behind the app's back
	require.NoError(t, backend.Logout(context.Background()))

	app.Navigate(SectionAlerts)
	app.Settle()

	assert.False(t, app.Authenticated())
	assert.Equal(t, DefaultSection, app.CurrentSection())
	note, ok := host.LastNotification()
	require.True(t, ok)
	assert.Contains(t, note.Message, "session has expired")
}

func Test_App_enroll(t *testing.T) {
	app, host, _ := newTestApp(t)

	app.EnrollInTraining(1)
	app.Settle()
	note, _ := host.LastNotification()
	assert.Contains(t, note.Message, "sign in")

	login(t, app, "asha@example.com", "whatever")

	app.EnrollInTraining(1)
	app.Settle()
	note, _ = host.LastNotification()
	assert.Equal(t, "Enrolled successfully.", note.Message)

	app.EnrollInTraining(1)
	app.Settle()
	note, _ = host.LastNotification()
	assert.Equal(t, training.ErrAlreadyEnrolled.Error(), note.Message)
}

func Test_App_trainingManagement(t *testing.T) {
	app, host, backend := newTestApp(t)

	// anonymous submissions are rejected locally; nothing reaches the backend
	app.SubmitTraining(training.NewEvent{})
	app.SubmitTrainingUpdate(1, training.UpdateEvent{Status: training.StatusCompleted})
	app.Settle()
	note, _ := host.LastNotification()
	assert.Contains(t, note.Message, "sign in")
	assert.Empty(t, app.FormErrors())
	events, err := backend.ListTrainings(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 4)
	assert.Equal(t, training.StatusActive, events[3].Status) // id 1, oldest

	loginAdmin(t, app)
	app.Navigate(SectionTrainings)
	app.Settle()

	app.SubmitTraining(training.NewEvent{
		Title:     "Recovery Planning Workshop - Pune",
		StartDate: "2025-12-01",
		EndDate:   "2025-12-02",
		StartTime: "09:00",
		EndTime:   "17:00",
		Trainer:   "Dr. Sunita Patel",
		Location:  "Pune, Maharashtra",
		Capacity:  25,
	})
	app.Settle()
	note, _ = host.LastNotification()
	assert.Equal(t, "Training created: Recovery Planning Workshop - Pune", note.Message)
	assert.Len(t, app.Grid(), 5)

	// a bad date is caught locally
	app.SubmitTrainingUpdate(1, training.UpdateEvent{StartDate: "15-10-2025"})
	app.Settle()
	assert.Contains(t, app.FormErrors(), "start_date")

	app.SubmitTrainingUpdate(1, training.UpdateEvent{Status: training.StatusCompleted, Capacity: 60})
	app.Settle()
	note, _ = host.LastNotification()
	assert.Contains(t, note.Message, "Training updated")
	events, err = backend.ListTrainings(context.Background())
	require.NoError(t, err)
	for _, e := range events {
		if e.ID == 1 {
			assert.Equal(t, training.StatusCompleted, e.Status)
			assert.Equal(t, 60, e.Capacity)
		}
	}

	app.SubmitTrainingUpdate(999, training.UpdateEvent{Status: training.StatusCancelled})
	app.Settle()
	note, _ = host.LastNotification()
	assert.Equal(t, "not found", note.Message)

	// non-admins are turned away by the backend
	app.Logout()
	app.Settle()
	login(t, app, "asha@example.com", "whatever")
	app.SubmitTrainingUpdate(1, training.UpdateEvent{Status: training.StatusActive})
	app.Settle()
	note, _ = host.LastNotification()
	assert.Equal(t, "permission denied", note.Message)
}

func Test_App_profile(t *testing.T) {
	app, host, _ := newTestApp(t)

	app.LoadProfile()
	app.Settle()
	note, _ := host.LastNotification()
	assert.Contains(t, note.Message, "sign in")
	assert.Empty(t, app.ProfileDetails().Email)

	loginAdmin(t, app)
	app.EnrollInTraining(1)
	app.Settle()

	app.LoadProfile()
	app.Settle()
	assert.Equal(t, "rajesh.kumar@ndma.gov.in", app.ProfileDetails().Email)
	history := app.EnrollmentHistory()
	require.Len(t, history, 1)
	assert.Equal(t, 1, history[0].ID)
	assert.NotEmpty(t, app.SessionHistory())

	// the profile never survives a logout
	app.Logout()
	app.Settle()
	assert.Empty(t, app.ProfileDetails().Email)
	assert.Empty(t, app.EnrollmentHistory())
	assert.Empty(t, app.SessionHistory())
}

func Test_App_attendance(t *testing.T) {
	app, host, _ := newTestApp(t)
	loginAdmin(t, app)

	app.Navigate(SectionAttendance)
	app.Settle()

	require.Len(t, app.AttendanceOptions(), 4)
	qr := host.QRs["attendance-qr"]
	require.NotNil(t, qr)
	// events list latest start date first, so Chennai (id 4) leads
	assert.True(t, strings.HasPrefix(qr.Content, "safestep://attendance?event=4&"))

	app.SelectAttendanceEvent(1)
	app.Settle()
	assert.True(t, strings.HasPrefix(qr.Content, "safestep://attendance?event=1&"))

	app.SubmitAttendance(training.Attendance{EventID: 1, Participant: "asha@example.com", Via: training.ViaQR})
	app.Settle()
	note, _ := host.LastNotification()
	assert.Contains(t, note.Message, "Attendance recorded")

	// invalid channel never reaches the backend
	app.SubmitAttendance(training.Attendance{EventID: 1, Participant: "asha@example.com", Via: "Telepathy"})
	app.Settle()
	assert.Contains(t, app.FormErrors(), "via")
}

func Test_App_alerts(t *testing.T) {
	app, host, _ := newTestApp(t)
	loginAdmin(t, app)

	app.Navigate(SectionAlerts)
	app.Settle()
	require.Len(t, app.Alerts(), 2)

	app.ResolveAlert(1)
	app.Settle()
	alerts := app.Alerts()
	assert.Equal(t, "Resolved", string(alerts[0].Status))

	app.ResolveAlert(1)
	app.Settle()
	note, _ := host.LastNotification()
	assert.Equal(t, "alert is already resolved", note.Message)
}

func Test_App_mapFilters(t *testing.T) {
	app, host, _ := newTestApp(t)

	app.Navigate(SectionMap)
	app.Settle()
	m := host.Maps["main-map"]
	require.NotNil(t, m)
	assert.Len(t, m.Markers, 3)

	app.SetMapFilters("Early Warning", "")
	app.Settle()
	assert.Len(t, m.Markers, 1)

	app.SetMapFilters("", "Mumbai")
	app.Settle()
	assert.Len(t, m.Markers, 1)
	assert.Contains(t, m.Markers[0].Detail, "Mumbai")

	app.SetMapFilters("", "")
	app.Settle()
	assert.Len(t, m.Markers, 3)
}

func Test_App_reports(t *testing.T) {
	app, _, _ := newTestApp(t)
	loginAdmin(t, app)

	app.LoadTrainingReport(1)
	app.Settle()
	assert.Equal(t, 1, app.Report().Event.ID)

	app.ExportReports()
	app.Settle()
	export := string(app.Export())
	require.NotEmpty(t, export)
	lines := strings.Split(strings.TrimSpace(export), "\n")
	assert.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "ID,Title"))
}
