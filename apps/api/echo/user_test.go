package echoapi

import (
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/safestep/core/user"
)

func Test_authApi_register(t *testing.T) {
	srv := newTestServer(t)

	body := marshallObj(t, user.NewUser{
		Name:            "Anil Gupta",
		Email:           "anil.gupta@up.gov.in",
		Role:            user.RoleStateAdmin,
		Jurisdiction:    "Uttar Pradesh",
		Password:        "s3cr3t!",
		PasswordConfirm: "s3cr3t!",
	})
	req, rec := newRequest(http.MethodPost, "/api/auth/register", body)
	srv.ServeHTTP(rec, req)

	m := checkEnvelope(t, rec, http.StatusCreated, true, "Registration successful")
	usr, _ := m["user"].(map[string]interface{})
	assert.Equal(t, "anil.gupta@up.gov.in", usr["email"])
	assert.Equal(t, "State Admin", usr["role"])
	assert.Equal(t, "Uttar Pradesh", usr["state"])

	// registration doubles as the first login
	cookie := rec.Header().Get(echo.HeaderSetCookie)
	assert.Contains(t, cookie, srv.conf.Server.SessionCookieName+"=")

	// a welcome email went out
	assert.Len(t, srv.mailSvc.SentMessages, 1)

	t.Run("duplicate email is rejected", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/auth/register", body)
		srv.ServeHTTP(rec, req)

		m := checkEnvelope(t, rec, http.StatusBadRequest, false, "validation failed")
		errs, _ := m["errors"].(map[string]interface{})
		assert.Contains(t, errs, "email")
	})

	t.Run("mismatched passwords are rejected", func(t *testing.T) {
		body := marshallObj(t, user.NewUser{
			Name:            "Meera Nair",
			Email:           "meera.nair@kerala.gov.in",
			Role:            user.RoleDistrictSDMA,
			Jurisdiction:    "Kerala",
			Password:        "s3cr3t!",
			PasswordConfirm: "nope",
		})
		req, rec := newRequest(http.MethodPost, "/api/auth/register", body)
		srv.ServeHTTP(rec, req)

		m := checkEnvelope(t, rec, http.StatusBadRequest, false, "validation failed")
		errs, _ := m["errors"].(map[string]interface{})
		assert.Contains(t, errs, "confirm_password")
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/auth/register", []byte(
			`{"name":"X","email":"x@example.com","role":"Overlord","state":"Goa","password":"s3cr3t!","confirm_password":"s3cr3t!"}`,
		))
		srv.ServeHTTP(rec, req)

		m := checkEnvelope(t, rec, http.StatusBadRequest, false, "validation failed")
		errs, _ := m["errors"].(map[string]interface{})
		assert.Contains(t, errs, "role")
	})
}

func Test_authApi_login(t *testing.T) {
	srv := newTestServer(t)
	srv.createUser(t, "Dr. Rajesh Kumar", "rajesh.kumar@ndma.gov.in", user.RoleNDMAAdmin, "Delhi", "admin123")

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantMsg  string
	}{
		{
			name:     "valid credentials",
			body:     `{"email":"rajesh.kumar@ndma.gov.in","password":"admin123"}`,
			wantCode: http.StatusOK,
			wantMsg:  "Login successful",
		},
		{
			name:     "unknown email",
			body:     `{"email":"nobody@ndma.gov.in","password":"admin123"}`,
			wantCode: http.StatusBadRequest,
			wantMsg:  "invalid email or password",
		},
		{
			name:     "wrong password",
			body:     `{"email":"rajesh.kumar@ndma.gov.in","password":"nope"}`,
			wantCode: http.StatusBadRequest,
			wantMsg:  "invalid email or password",
		},
		{
			name:     "missing fields",
			body:     `{}`,
			wantCode: http.StatusBadRequest,
			wantMsg:  "validation failed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/auth/login", []byte(tt.body))
			srv.ServeHTTP(rec, req)

			checkEnvelope(t, rec, tt.wantCode, tt.wantCode == http.StatusOK, tt.wantMsg)
			if tt.wantCode == http.StatusOK {
				cookie := rec.Header().Get(echo.HeaderSetCookie)
				assert.Contains(t, cookie, srv.conf.Server.SessionCookieName+"=")
				assert.Contains(t, cookie, "HttpOnly")
			}
		})
	}
}

func Test_authApi_check(t *testing.T) {
	srv := newTestServer(t)
	usr := srv.createUser(t, "Dr. Sunita Patel", "sunita.patel@nidm.gov.in", user.RoleTrainer, "Gujarat", "trainer123")

	t.Run("anonymous", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/api/auth/check")
		srv.ServeHTTP(rec, req)

		m := checkEnvelope(t, rec, http.StatusOK, true, "")
		assert.Equal(t, false, m["authenticated"])
	})

	t.Run("authenticated", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/auth/check", getToken(t, usr))
		srv.ServeHTTP(rec, req)

		m := checkEnvelope(t, rec, http.StatusOK, true, "")
		assert.Equal(t, true, m["authenticated"])
		respUsr, _ := m["user"].(map[string]interface{})
		assert.Equal(t, usr.Email, respUsr["email"])
	})

	t.Run("garbage cookie", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/auth/check", "not.a.jwt")
		srv.ServeHTTP(rec, req)

		m := checkEnvelope(t, rec, http.StatusOK, true, "")
		assert.Equal(t, false, m["authenticated"])
	})
}

func Test_authApi_logout(t *testing.T) {
	srv := newTestServer(t)
	usr := srv.createUser(t, "Dr. Sunita Patel", "sunita.patel@nidm.gov.in", user.RoleTrainer, "Gujarat", "trainer123")

	req, rec := newAuthRequest(http.MethodPost, "/api/auth/logout", getToken(t, usr))
	srv.ServeHTTP(rec, req)

	checkEnvelope(t, rec, http.StatusOK, true, "Logged out")

	// the session cookie is dropped
	cookie := rec.Header().Get(echo.HeaderSetCookie)
	assert.Contains(t, cookie, srv.conf.Server.SessionCookieName+"=")
	assert.True(t, strings.Contains(cookie, "Max-Age=0") || strings.Contains(cookie, "Max-Age=-1"))
}

func Test_authApi_profileAndSessions(t *testing.T) {
	srv := newTestServer(t)
	usr := srv.createUser(t, "Dr. Sunita Patel", "sunita.patel@nidm.gov.in", user.RoleTrainer, "Gujarat", "trainer123")

	t.Run("profile requires auth", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/api/user/profile")
		srv.ServeHTTP(rec, req)
		checkEnvelope(t, rec, http.StatusUnauthorized, false, "not logged in")
	})

	t.Run("profile", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/user/profile", getToken(t, usr))
		srv.ServeHTTP(rec, req)

		m := checkEnvelope(t, rec, http.StatusOK, true, "")
		respUsr, _ := m["user"].(map[string]interface{})
		assert.Equal(t, usr.Email, respUsr["email"])
	})

	t.Run("sessions reflect logins", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/auth/login",
			[]byte(`{"email":"sunita.patel@nidm.gov.in","password":"trainer123"}`))
		srv.ServeHTTP(rec, req)
		checkCode(t, rec, http.StatusOK)

		req, rec = newAuthRequest(http.MethodGet, "/api/user/sessions", getToken(t, usr))
		srv.ServeHTTP(rec, req)

		m := checkEnvelope(t, rec, http.StatusOK, true, "")
		sessions, _ := m["sessions"].([]interface{})
		assert.Len(t, sessions, 1)
	})
}
