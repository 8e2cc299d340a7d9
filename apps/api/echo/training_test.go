package echoapi

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/safestep/core/training"
	"github.com/trezcool/safestep/core/user"
)

func seedEvents(t *testing.T, srv *testServer) (public, restricted training.Event) {
	t.Helper()
	public = srv.createEvent(t, training.Event{
		Title:     "Disaster Response Training - Mumbai",
		StartDate: "2025-10-15", EndDate: "2025-10-17",
		StartTime: "09:00", EndTime: "17:00",
		Trainer: "Dr. Sunita Patel", Location: "Mumbai, Maharashtra",
		Capacity: 50, Enrolled: 42,
		Status: training.StatusActive, Visibility: training.VisibilityPublic,
	})
	restricted = srv.createEvent(t, training.Event{
		Title:     "Risk Assessment Workshop - Delhi",
		StartDate: "2025-10-20", EndDate: "2025-10-22",
		StartTime: "10:00", EndTime: "16:00",
		Trainer: "Dr. Rajesh Kumar", Location: "New Delhi",
		Capacity: 30, Enrolled: 28,
		Status: training.StatusActive, Visibility: training.VisibilityRestricted,
	})
	return public, restricted
}

func Test_trainingApi_query(t *testing.T) {
	srv := newTestServer(t)
	usr := srv.createUser(t, "Dr. Sunita Patel", "sunita.patel@nidm.gov.in", user.RoleTrainer, "Gujarat", "trainer123")
	public, _ := seedEvents(t, srv)

	t.Run("anonymous callers only see the public subset", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/api/trainings")
		srv.ServeHTTP(rec, req)

		m := checkEnvelope(t, rec, http.StatusOK, true, "")
		trainings, _ := m["trainings"].([]interface{})
		assert.Len(t, trainings, 1)
		first, _ := trainings[0].(map[string]interface{})
		assert.Equal(t, public.Title, first["title"])
	})

	t.Run("authenticated callers see everything", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/trainings", getToken(t, usr))
		srv.ServeHTTP(rec, req)

		m := checkEnvelope(t, rec, http.StatusOK, true, "")
		trainings, _ := m["trainings"].([]interface{})
		assert.Len(t, trainings, 2)
	})
}

func Test_trainingApi_create(t *testing.T) {
	srv := newTestServer(t)
	admin := srv.createUser(t, "Dr. Rajesh Kumar", "rajesh.kumar@ndma.gov.in", user.RoleNDMAAdmin, "Delhi", "admin123")
	trainer := srv.createUser(t, "Dr. Sunita Patel", "sunita.patel@nidm.gov.in", user.RoleTrainer, "Gujarat", "trainer123")

	body := marshallObj(t, training.NewEvent{
		Title:     "Early Warning Systems - Chennai",
		StartDate: "2025-11-05", EndDate: "2025-11-07",
		StartTime: "09:00", EndTime: "18:00",
		Themes:  []string{"Early Warning", "Technology Integration"},
		Trainer: "Amit Verma", Location: "Chennai, Tamil Nadu",
		Capacity: 35,
	})

	t.Run("requires auth", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/trainings", body)
		srv.ServeHTTP(rec, req)
		checkEnvelope(t, rec, http.StatusUnauthorized, false, "not logged in")
	})

	t.Run("requires admin", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/trainings", getToken(t, trainer), body)
		srv.ServeHTTP(rec, req)
		checkEnvelope(t, rec, http.StatusForbidden, false, "permission denied")
	})

	t.Run("admin creates a training", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/trainings", getToken(t, admin), body)
		srv.ServeHTTP(rec, req)

		m := checkEnvelope(t, rec, http.StatusCreated, true, "Training created")
		evt, _ := m["training"].(map[string]interface{})
		assert.Equal(t, "Early Warning Systems - Chennai", evt["title"])
		assert.Equal(t, "Scheduled", evt["status"])
		assert.Equal(t, "Public", evt["visibility"])
	})

	t.Run("bad dates are rejected", func(t *testing.T) {
		bad := marshallObj(t, training.NewEvent{
			Title:     "X",
			StartDate: "15-10-2025", EndDate: "2025-10-17",
			StartTime: "09:00", EndTime: "17:00",
			Trainer: "Y", Location: "Z", Capacity: 10,
		})
		req, rec := newAuthRequest(http.MethodPost, "/api/trainings", getToken(t, admin), bad)
		srv.ServeHTTP(rec, req)

		m := checkEnvelope(t, rec, http.StatusBadRequest, false, "validation failed")
		errs, _ := m["errors"].(map[string]interface{})
		assert.Contains(t, errs, "start_date")
	})
}

func Test_trainingApi_update(t *testing.T) {
	srv := newTestServer(t)
	admin := srv.createUser(t, "Dr. Rajesh Kumar", "rajesh.kumar@ndma.gov.in", user.RoleNDMAAdmin, "Delhi", "admin123")
	public, _ := seedEvents(t, srv)

	t.Run("partial update keeps other fields", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/api/trainings/1", getToken(t, admin),
			[]byte(`{"status":"Completed"}`))
		srv.ServeHTTP(rec, req)

		m := checkEnvelope(t, rec, http.StatusOK, true, "Training updated")
		evt, _ := m["training"].(map[string]interface{})
		assert.Equal(t, "Completed", evt["status"])
		assert.Equal(t, public.Title, evt["title"])
	})

	t.Run("unknown id", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/api/trainings/999", getToken(t, admin),
			[]byte(`{"status":"Completed"}`))
		srv.ServeHTTP(rec, req)
		checkEnvelope(t, rec, http.StatusNotFound, false, "not found")
	})
}

func Test_trainingApi_enroll(t *testing.T) {
	srv := newTestServer(t)
	usr := srv.createUser(t, "Dr. Sunita Patel", "sunita.patel@nidm.gov.in", user.RoleTrainer, "Gujarat", "trainer123")
	token := getToken(t, usr)

	evt := srv.createEvent(t, training.Event{
		Title:     "Community Engagement Training - Kolkata",
		StartDate: "2025-10-25", EndDate: "2025-10-26",
		StartTime: "09:30", EndTime: "17:30",
		Trainer: "Priya Sharma", Location: "Kolkata, West Bengal",
		Capacity: 2, Enrolled: 0,
	})
	full := srv.createEvent(t, training.Event{
		Title:     "Disaster Response Training - Mumbai",
		StartDate: "2025-10-15", EndDate: "2025-10-17",
		StartTime: "09:00", EndTime: "17:00",
		Trainer: "Dr. Sunita Patel", Location: "Mumbai, Maharashtra",
		Capacity: 1, Enrolled: 1,
	})

	t.Run("requires auth", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/trainings/1/enroll")
		srv.ServeHTTP(rec, req)
		checkEnvelope(t, rec, http.StatusUnauthorized, false, "not logged in")
	})

	t.Run("enrolls and bumps the count", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/trainings/1/enroll", token)
		srv.ServeHTTP(rec, req)
		checkEnvelope(t, rec, http.StatusCreated, true, "Enrolled successfully")

		req, rec = newAuthRequest(http.MethodGet, "/api/user/enrollments", token)
		srv.ServeHTTP(rec, req)

		m := checkEnvelope(t, rec, http.StatusOK, true, "")
		enrollments, _ := m["enrollments"].([]interface{})
		assert.Len(t, enrollments, 1)
		first, _ := enrollments[0].(map[string]interface{})
		assert.Equal(t, evt.Title, first["title"])
	})

	t.Run("double enrollment is rejected", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/trainings/1/enroll", token)
		srv.ServeHTTP(rec, req)
		checkEnvelope(t, rec, http.StatusBadRequest, false, "already enrolled in this training")
	})

	t.Run("full training is rejected", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/trainings/2/enroll", token)
		srv.ServeHTTP(rec, req)
		checkEnvelope(t, rec, http.StatusBadRequest, false, training.ErrEventFull.Error())
		_ = full
	})

	t.Run("unknown training", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/trainings/999/enroll", token)
		srv.ServeHTTP(rec, req)
		checkEnvelope(t, rec, http.StatusNotFound, false, "not found")
	})
}

func Test_trainingApi_attendanceAndReport(t *testing.T) {
	srv := newTestServer(t)
	admin := srv.createUser(t, "Dr. Rajesh Kumar", "rajesh.kumar@ndma.gov.in", user.RoleNDMAAdmin, "Delhi", "admin123")
	token := getToken(t, admin)
	seedEvents(t, srv)

	t.Run("mark attendance", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/attendance", token,
			[]byte(`{"event_id":1,"participant":"sunita.patel@nidm.gov.in","via":"QR"}`))
		srv.ServeHTTP(rec, req)

		m := checkEnvelope(t, rec, http.StatusCreated, true, "Attendance recorded")
		record, _ := m["record"].(map[string]interface{})
		assert.Equal(t, "QR", record["via"])
	})

	t.Run("unknown via channel is rejected", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/attendance", token,
			[]byte(`{"event_id":1,"participant":"x@y.z","via":"Telepathy"}`))
		srv.ServeHTTP(rec, req)
		checkEnvelope(t, rec, http.StatusBadRequest, false, "validation failed")
	})

	t.Run("report aggregates attendance", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/trainings/1/report", token)
		srv.ServeHTTP(rec, req)

		m := checkEnvelope(t, rec, http.StatusOK, true, "")
		report, _ := m["report"].(map[string]interface{})
		assert.Equal(t, float64(1), report["attended"])
	})
}

func Test_trainingApi_exportReports(t *testing.T) {
	srv := newTestServer(t)
	usr := srv.createUser(t, "Dr. Rajesh Kumar", "rajesh.kumar@ndma.gov.in", user.RoleNDMAAdmin, "Delhi", "admin123")
	public, restricted := seedEvents(t, srv)

	req, rec := newAuthRequest(http.MethodGet, "/api/reports/export", getToken(t, usr))
	srv.ServeHTTP(rec, req)

	checkCode(t, rec, http.StatusOK)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "training_reports.csv")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Len(t, lines, 3) // header + 2 events
	assert.Contains(t, rec.Body.String(), public.Title)
	assert.Contains(t, rec.Body.String(), restricted.Title)
}
