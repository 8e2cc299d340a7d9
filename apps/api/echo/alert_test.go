package echoapi

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/safestep/core/alert"
	"github.com/trezcool/safestep/core/training"
	"github.com/trezcool/safestep/core/user"
	inmemdb "github.com/trezcool/safestep/storage/database/inmem"
)

func seedAlert(t *testing.T, srv *testServer) alert.Alert {
	t.Helper()
	alrt, err := inmemdb.NewAlertRepository(srv.db).CreateAlert(context.Background(), alert.Alert{
		Category:  "Low Attendance",
		Message:   "Training in Chennai has low enrollment (22/35)",
		Priority:  alert.PriorityMedium,
		Timestamp: time.Now().UTC(),
		Status:    alert.StatusActive,
	})
	if err != nil {
		t.Fatalf("seedAlert() failed: %v", err)
	}
	return alrt
}

func Test_alertApi(t *testing.T) {
	srv := newTestServer(t)
	usr := srv.createUser(t, "Dr. Rajesh Kumar", "rajesh.kumar@ndma.gov.in", user.RoleNDMAAdmin, "Delhi", "admin123")
	token := getToken(t, usr)
	alrt := seedAlert(t, srv)

	t.Run("listing requires auth", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/api/alerts")
		srv.ServeHTTP(rec, req)
		checkEnvelope(t, rec, http.StatusUnauthorized, false, "not logged in")
	})

	t.Run("list", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/alerts", token)
		srv.ServeHTTP(rec, req)

		m := checkEnvelope(t, rec, http.StatusOK, true, "")
		alerts, _ := m["alerts"].([]interface{})
		assert.Len(t, alerts, 1)
		first, _ := alerts[0].(map[string]interface{})
		assert.Equal(t, alrt.Message, first["message"])
		assert.Equal(t, "Active", first["status"])
	})

	t.Run("resolve is one-way", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/alerts/1/resolve", token)
		srv.ServeHTTP(rec, req)

		m := checkEnvelope(t, rec, http.StatusOK, true, "Alert resolved")
		resolved, _ := m["alert"].(map[string]interface{})
		assert.Equal(t, "Resolved", resolved["status"])

		// resolving again fails
		req, rec = newAuthRequest(http.MethodPost, "/api/alerts/1/resolve", token)
		srv.ServeHTTP(rec, req)
		checkEnvelope(t, rec, http.StatusBadRequest, false, alert.ErrAlreadyResolved.Error())
	})

	t.Run("unknown alert", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/alerts/999/resolve", token)
		srv.ServeHTTP(rec, req)
		checkEnvelope(t, rec, http.StatusNotFound, false, "not found")
	})
}

func Test_dashboardApi_stats(t *testing.T) {
	srv := newTestServer(t)
	seedAlert(t, srv)
	srv.createEvent(t, training.Event{
		Title:     "Disaster Response Training - Mumbai",
		StartDate: "2025-10-15", EndDate: "2025-10-17",
		StartTime: "09:00", EndTime: "17:00",
		Trainer: "Dr. Sunita Patel", Location: "Mumbai, Maharashtra",
		Capacity: 50, Enrolled: 42,
	})
	srv.createEvent(t, training.Event{
		Title:     "Early Warning Systems - Chennai",
		StartDate: "2025-11-05", EndDate: "2025-11-07",
		StartTime: "09:00", EndTime: "18:00",
		Trainer: "Amit Verma", Location: "Chennai, Tamil Nadu",
		Capacity: 35, Enrolled: 22,
	})

	req, rec := newRequest(http.MethodGet, "/api/dashboard/stats")
	srv.ServeHTTP(rec, req)

	m := checkEnvelope(t, rec, http.StatusOK, true, "")
	stats, _ := m["stats"].(map[string]interface{})
	assert.Equal(t, float64(2), stats["total_trainings"])
	assert.Equal(t, float64(64), stats["total_participants"])
	assert.Equal(t, float64(2), stats["states_covered"])
	assert.Equal(t, float64(1), stats["active_alerts"])
}

func Test_dashboardApi_charts(t *testing.T) {
	srv := newTestServer(t)
	usr := srv.createUser(t, "Dr. Rajesh Kumar", "rajesh.kumar@ndma.gov.in", user.RoleNDMAAdmin, "Delhi", "admin123")

	req, rec := newAuthRequest(http.MethodGet, "/api/analytics/charts", getToken(t, usr))
	srv.ServeHTTP(rec, req)

	m := checkEnvelope(t, rec, http.StatusOK, true, "")
	effectiveness, _ := m["effectiveness"].(map[string]interface{})
	labels, _ := effectiveness["labels"].([]interface{})
	assert.Len(t, labels, 4)
	trends, _ := m["monthly_trends"].([]interface{})
	assert.Len(t, trends, 6)
}
