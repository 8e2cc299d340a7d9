package webapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/safestep/core"
	"github.com/trezcool/safestep/core/alert"
	"github.com/trezcool/safestep/core/analytics"
	"github.com/trezcool/safestep/core/training"
	"github.com/trezcool/safestep/core/user"
)

// Client is the Backend over the SafeStep HTTP API. The cookie jar carries
// the session cookie, so authenticated calls need no explicit credential
// handling here.
type Client struct {
	base *url.URL
	http *http.Client
	log  core.Logger
}

var _ Backend = (*Client)(nil)

func NewClient(conf *core.Config, logger core.Logger) (*Client, error) {
	base, err := url.Parse(conf.Client.BaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parsing base URL")
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating cookie jar")
	}
	return &Client{
		base: base,
		http: &http.Client{Jar: jar, Timeout: conf.Client.RequestTimeout},
		log:  logger,
	}, nil
}

// envelope is the common wrapper on every API response.
type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

func (e envelope) reject(status int) error {
	if status == http.StatusUnauthorized {
		return ErrSessionExpired
	}
	return &RequestError{StatusCode: status, Message: e.Message, Fields: e.Errors}
}

// do sends one request and decodes the enveloped response into out.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encoding request body")
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), reqBody)
	if err != nil {
		return errors.Wrap(err, "creating request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.log.Debug(method + " " + path)

	res, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrap(err, "reading response body")
	}

	var env envelope
	if err = json.Unmarshal(raw, &env); err != nil {
		// non-JSON body (proxy error page, ...); fail on the status alone
		if res.StatusCode >= 300 {
			return envelope{Message: http.StatusText(res.StatusCode)}.reject(res.StatusCode)
		}
		return errors.Wrap(err, "decoding response")
	}
	if res.StatusCode >= 300 || !env.Success {
		if env.Message == "" {
			env.Message = http.StatusText(res.StatusCode)
		}
		return env.reject(res.StatusCode)
	}
	if out != nil {
		if err = json.Unmarshal(raw, out); err != nil {
			return errors.Wrap(err, "decoding response")
		}
	}
	return nil
}

func (c *Client) resolve(path string) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u.String()
}

// Backend implementation

func (c *Client) CheckSession(ctx context.Context) (user.Principal, bool, error) {
	var out struct {
		Authenticated bool           `json:"authenticated"`
		User          user.Principal `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/check", nil, &out); err != nil {
		return user.Principal{}, false, err
	}
	return out.User, out.Authenticated, nil
}

func (c *Client) Register(ctx context.Context, form user.NewUser) (user.Principal, error) {
	var out struct {
		User user.Principal `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", form, &out); err != nil {
		return user.Principal{}, err
	}
	return out.User, nil
}

func (c *Client) Login(ctx context.Context, form user.Login) (user.Principal, error) {
	var out struct {
		User user.Principal `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", form, &out); err != nil {
		return user.Principal{}, err
	}
	return out.User, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

func (c *Client) ListTrainings(ctx context.Context) ([]training.Event, error) {
	var out struct {
		Trainings []training.Event `json:"trainings"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/trainings", nil, &out); err != nil {
		return nil, err
	}
	return out.Trainings, nil
}

func (c *Client) CreateTraining(ctx context.Context, form training.NewEvent) (training.Event, error) {
	var out struct {
		Training training.Event `json:"training"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/trainings", form, &out); err != nil {
		return training.Event{}, err
	}
	return out.Training, nil
}

func (c *Client) UpdateTraining(ctx context.Context, id int, form training.UpdateEvent) (training.Event, error) {
	var out struct {
		Training training.Event `json:"training"`
	}
	path := fmt.Sprintf("/api/trainings/%d", id)
	if err := c.do(ctx, http.MethodPut, path, form, &out); err != nil {
		return training.Event{}, err
	}
	return out.Training, nil
}

func (c *Client) Enroll(ctx context.Context, eventID int) (training.Enrollment, error) {
	var out struct {
		Enrollment training.Enrollment `json:"enrollment"`
	}
	path := fmt.Sprintf("/api/trainings/%d/enroll", eventID)
	if err := c.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return training.Enrollment{}, err
	}
	return out.Enrollment, nil
}

func (c *Client) Profile(ctx context.Context) (user.Principal, error) {
	var out struct {
		User user.Principal `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/user/profile", nil, &out); err != nil {
		return user.Principal{}, err
	}
	return out.User, nil
}

func (c *Client) Enrollments(ctx context.Context) ([]training.EnrolledEvent, error) {
	var out struct {
		Enrollments []training.EnrolledEvent `json:"enrollments"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/user/enrollments", nil, &out); err != nil {
		return nil, err
	}
	return out.Enrollments, nil
}

func (c *Client) Sessions(ctx context.Context) ([]user.SessionLog, error) {
	var out struct {
		Sessions []user.SessionLog `json:"sessions"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/user/sessions", nil, &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

func (c *Client) DashboardStats(ctx context.Context) (analytics.Stats, error) {
	var out struct {
		Stats analytics.Stats `json:"stats"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/dashboard/stats", nil, &out); err != nil {
		return analytics.Stats{}, err
	}
	return out.Stats, nil
}

func (c *Client) TrainingReport(ctx context.Context, eventID int) (training.Report, error) {
	var out struct {
		Report training.Report `json:"report"`
	}
	path := fmt.Sprintf("/api/trainings/%d/report", eventID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return training.Report{}, err
	}
	return out.Report, nil
}

func (c *Client) MarkAttendance(ctx context.Context, form training.Attendance) (training.AttendanceRecord, error) {
	var out struct {
		Record training.AttendanceRecord `json:"record"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/attendance", form, &out); err != nil {
		return training.AttendanceRecord{}, err
	}
	return out.Record, nil
}

// ExportReport downloads the CSV export; the response is a file, not an
// envelope, so it bypasses do.
func (c *Client) ExportReport(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve("/api/reports/export"), nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating request")
	}
	res, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "GET /api/reports/export")
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading response body")
	}
	if res.StatusCode != http.StatusOK {
		var env envelope
		_ = json.Unmarshal(raw, &env)
		if env.Message == "" {
			env.Message = http.StatusText(res.StatusCode)
		}
		return nil, env.reject(res.StatusCode)
	}
	return raw, nil
}

func (c *Client) ListAlerts(ctx context.Context) ([]alert.Alert, error) {
	var out struct {
		Alerts []alert.Alert `json:"alerts"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/alerts", nil, &out); err != nil {
		return nil, err
	}
	return out.Alerts, nil
}

func (c *Client) ResolveAlert(ctx context.Context, id int) (alert.Alert, error) {
	var out struct {
		Alert alert.Alert `json:"alert"`
	}
	path := fmt.Sprintf("/api/alerts/%d/resolve", id)
	if err := c.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return alert.Alert{}, err
	}
	return out.Alert, nil
}
