package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/trezcool/safestep/core"
	"github.com/trezcool/safestep/core/alert"
	"github.com/trezcool/safestep/core/training"
	"github.com/trezcool/safestep/core/user"
	dummymail "github.com/trezcool/safestep/services/email/dummy"
	logsvc "github.com/trezcool/safestep/services/logger"
	inmemdb "github.com/trezcool/safestep/storage/database/inmem"
)

type testServer struct {
	Server
	conf        *core.Config
	db          *inmemdb.DB
	usrSvc      *user.Service
	trainingSvc *training.Service
	alertSvc    *alert.Service
	mailSvc     *dummymail.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	conf := &core.Config{
		TestMode:  true,
		Env:       "TEST",
		AppName:   "SafeStep",
		SecretKey: "secret",
		Server: core.ServerConfig{
			JWTExpirationDelta: 10 * time.Minute,
			SessionCookieName:  "safestep_session",
		},
	}

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() failed: %v", err)
	}

	mailSvc := dummymail.NewService()
	usrSvc := user.NewService(inmemdb.NewUserRepository(db), mailSvc, conf)
	trainingSvc := training.NewService(inmemdb.NewTrainingRepository(db))
	alertSvc := alert.NewService(inmemdb.NewAlertRepository(db))

	srv := NewServer(&Options{
		Addr:           ":0",
		DisableReqLogs: true,
		Conf:           conf,
		Logger:         logsvc.NewStdLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags)),
		UserSvc:        usrSvc,
		TrainingSvc:    trainingSvc,
		AlertSvc:       alertSvc,
	})
	return &testServer{
		Server:      srv,
		conf:        conf,
		db:          db,
		usrSvc:      usrSvc,
		trainingSvc: trainingSvc,
		alertSvc:    alertSvc,
		mailSvc:     mailSvc,
	}
}

func (ts *testServer) createUser(t *testing.T, name, email string, role user.Role, jurisdiction, pwd string) user.Principal {
	t.Helper()
	usr, err := ts.usrSvc.Create(context.Background(), user.NewUser{
		Name:            name,
		Email:           email,
		Role:            role,
		Jurisdiction:    jurisdiction,
		Password:        pwd,
		PasswordConfirm: pwd,
	})
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func (ts *testServer) createEvent(t *testing.T, evt training.Event) training.Event {
	t.Helper()
	now := time.Now().UTC()
	evt.CreatedAt, evt.UpdatedAt = now, now
	if evt.Status == "" {
		evt.Status = training.StatusScheduled
	}
	if evt.Visibility == "" {
		evt.Visibility = training.VisibilityPublic
	}
	created, err := inmemdb.NewTrainingRepository(ts.db).CreateEvent(context.Background(), evt)
	if err != nil {
		t.Fatalf("createEvent() failed: %v", err)
	}
	return created
}

func getToken(t *testing.T, usr user.Principal) string {
	t.Helper()
	token, err := GenerateToken(GetPrincipalClaims(usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "safestep_session", Value: token})
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return m
}

func checkCode(t *testing.T, rec *httptest.ResponseRecorder, wantCode int) {
	t.Helper()
	if rec.Code != wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %v", rec.Code, wantCode, rec.Body.String())
	}
}

func checkEnvelope(t *testing.T, rec *httptest.ResponseRecorder, wantCode int, wantSuccess bool, wantMessage string) map[string]interface{} {
	t.Helper()
	checkCode(t, rec, wantCode)
	m := decodeMap(t, rec)
	if success, _ := m["success"].(bool); success != wantSuccess {
		t.Errorf("failed! success = %v; want %v; body %v", success, wantSuccess, rec.Body.String())
	}
	if wantMessage != "" {
		if msg, _ := m["message"].(string); msg != wantMessage {
			t.Errorf("failed! message = %q; want %q", msg, wantMessage)
		}
	}
	return m
}
