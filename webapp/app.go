// Package webapp implements the dashboard's view model: a session-gated,
// single-loop state machine that keeps the navigation chrome, the active
// section and its widgets consistent with the current session.
package webapp

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/safestep/core"
	"github.com/trezcool/safestep/core/alert"
	"github.com/trezcool/safestep/core/analytics"
	"github.com/trezcool/safestep/core/training"
	"github.com/trezcool/safestep/core/user"
	"github.com/trezcool/safestep/webapp/widget"
)

type Options struct {
	Backend        Backend
	Host           widget.Host
	Logger         core.Logger
	RequestTimeout time.Duration
}

// NavEntry is one item of the navigation chrome.
type NavEntry struct {
	Section SectionID
	Enabled bool
	Active  bool
}

// GridEntry is one card of the trainings grid: either an event, or the
// sign-in affordance appended when anonymous visitors see a reduced set.
type GridEntry struct {
	Event        training.Event
	SignInPrompt bool
}

// App owns all view state. Every mutation runs on a single event loop; public
// methods only enqueue work, so there is no true parallelism to lock against.
type App struct {
	backend Backend
	host    widget.Host
	log     core.Logger
	timeout time.Duration

	loop     chan func()
	quit     chan struct{}
	inflight int64 // atomic; async backend calls not yet applied or dropped

	session *Session
	active  map[SectionID]bool
	current SectionID

	// epoch tags async calls with the session/section identity they were
	// issued under; responses arriving after a transition are dropped.
	epoch uint64

	maps   map[string]widget.Map
	charts map[string]widget.Chart
	qrs    map[string]widget.QR

	// map section filters
	mapTheme string
	mapState string

	// rendered view state
	nav        []NavEntry
	stats      analytics.Stats
	grid       []GridEntry
	attendance []training.Event
	alerts     []alert.Alert
	report     training.Report
	export     []byte
	loginForm  user.Login
	regForm    user.NewUser
	formErrors map[string]string

	// profile modal state, loaded on demand
	profile     user.Principal
	enrollments []training.EnrolledEvent
	sessionLog  []user.SessionLog
}

func NewApp(opts Options) *App {
	timeout := opts.RequestTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &App{
		backend:    opts.Backend,
		host:       opts.Host,
		log:        opts.Logger,
		timeout:    timeout,
		loop:       make(chan func(), 64),
		quit:       make(chan struct{}),
		session:    &Session{},
		active:     make(map[SectionID]bool),
		current:    DefaultSection,
		maps:       make(map[string]widget.Map),
		charts:     make(map[string]widget.Chart),
		qrs:        make(map[string]widget.QR),
		formErrors: make(map[string]string),
	}
}

// Start launches the event loop, renders the anonymous default view and asks
// the backend whether a session is already live.
func (a *App) Start() {
	go a.run()
	a.dispatch(func() {
		a.renderNav()
		a.activate(DefaultSection)
		a.checkSession()
	})
}

func (a *App) Stop() {
	close(a.quit)
}

func (a *App) run() {
	for {
		select {
		case fn := <-a.loop:
			fn()
		case <-a.quit:
			return
		}
	}
}

func (a *App) dispatch(fn func()) {
	select {
	case a.loop <- fn:
	case <-a.quit:
	}
}

// Flush blocks until all work dispatched before it has run.
func (a *App) Flush() {
	done := make(chan struct{})
	a.dispatch(func() { close(done) })
	select {
	case <-done:
	case <-a.quit:
	}
}

// Settle blocks until the loop is drained and no backend call is in flight.
func (a *App) Settle() {
	for {
		a.Flush()
		if atomic.LoadInt64(&a.inflight) == 0 {
			a.Flush()
			return
		}
		time.Sleep(time.Millisecond)
	}
}

// async runs call off the loop; the apply func it returns runs back on the
// loop unless the app transitioned (epoch bump) since the call was issued.
func (a *App) async(op string, call func(ctx context.Context) (apply func(), err error)) {
	issued := a.epoch
	atomic.AddInt64(&a.inflight, 1)
	go func() {
		defer atomic.AddInt64(&a.inflight, -1)
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		apply, err := call(ctx)
		a.dispatch(func() {
			if issued != a.epoch {
				return // stale response
			}
			if err != nil {
				a.backendFailed(err, op)
				return
			}
			apply()
		})
	}()
}

// backendFailed handles a failed backend call. A 401-equivalent drops the
// session and reconciles; anything else leaves state at its last known good
// value behind a single user-visible message.
func (a *App) backendFailed(err error, op string) {
	if errors.Cause(err) == ErrSessionExpired {
		a.log.Warn("session expired, dropping to anonymous")
		a.session.clear()
		a.host.Notify(widget.LevelError, "Your session has expired. Please sign in again.")
		a.reconcile()
		return
	}
	if reqErr, ok := errors.Cause(err).(*RequestError); ok {
		if len(reqErr.Fields) > 0 {
			flds := make(map[string]string, len(reqErr.Fields))
			for k, v := range reqErr.Fields {
				flds[k] = v
			}
			a.formErrors = flds
		}
		a.host.Notify(widget.LevelError, reqErr.Message)
		return
	}
	a.log.Error(op+" failed", err)
	a.host.Notify(widget.LevelError, "Something went wrong while "+op+". Please try again.")
}

// reconcile is the single entry point after a state transition: it bumps the
// epoch, re-renders the navigation chrome and re-initializes the active
// section from scratch. Authorization-gated content must never survive from a
// prior session, so nothing is patched in place.
func (a *App) reconcile() {
	a.epoch++
	// no view derived under the previous session may survive
	a.grid, a.attendance, a.alerts = nil, nil, nil
	a.report, a.export = training.Report{}, nil
	a.profile, a.enrollments, a.sessionLog = user.Principal{}, nil, nil
	if !CanAccess(a.current, a.session) {
		a.current = DefaultSection
	}
	a.renderNav()
	a.activate(a.current)
}

func (a *App) renderNav() {
	nav := make([]NavEntry, 0, len(sectionOrder))
	for _, id := range sectionOrder {
		nav = append(nav, NavEntry{
			Section: id,
			Enabled: CanAccess(id, a.session),
			Active:  id == a.current,
		})
	}
	a.nav = nav
}

// activate marks the target as the only active section and runs its
// initializer. Exactly one section is active at any time.
func (a *App) activate(id SectionID) {
	for sec := range a.active {
		delete(a.active, sec)
	}
	a.active[id] = true
	a.current = id
	a.initSection(id)
}

// Navigate routes a navigation request. The visibility policy is checked
// before any state changes: a denied request leaves the active section
// untouched and never fetches the target's data.
func (a *App) Navigate(id SectionID) {
	a.dispatch(func() {
		if !CanAccess(id, a.session) {
			a.host.Notify(widget.LevelError, "Please sign in to access this section.")
			return
		}
		a.epoch++
		a.current = id
		a.renderNav()
		a.activate(id)
	})
}

func (a *App) checkSession() {
	a.async("checking your session", func(ctx context.Context) (func(), error) {
		usr, authed, err := a.backend.CheckSession(ctx)
		return func() {
			if !authed {
				return
			}
			a.session.setAuthenticated(usr)
			a.reconcile()
		}, err
	})
}

// Widget caches: instances are created at most once per container and reused,
// so re-entering a section refreshes data instead of stacking duplicates.

func (a *App) mapFor(containerID string) widget.Map {
	if m, ok := a.maps[containerID]; ok {
		return m
	}
	m := a.host.NewMap(containerID)
	a.maps[containerID] = m
	return m
}

func (a *App) chartFor(containerID string, kind widget.ChartKind) widget.Chart {
	if c, ok := a.charts[containerID]; ok {
		return c
	}
	c := a.host.NewChart(containerID, kind)
	a.charts[containerID] = c
	return c
}

func (a *App) qrFor(containerID string) widget.QR {
	if q, ok := a.qrs[containerID]; ok {
		return q
	}
	q := a.host.NewQR(containerID)
	a.qrs[containerID] = q
	return q
}

// dropRestrictedWidgets forgets widget instances living in authenticated-only
// sections; called on logout so nothing from the old session is reused.
func (a *App) dropRestrictedWidgets() {
	a.charts = make(map[string]widget.Chart)
	a.qrs = make(map[string]widget.QR)
}

// Snapshot accessors; each runs on the loop so callers observe a consistent
// view without locking.

func (a *App) inspect(fn func()) {
	done := make(chan struct{})
	a.dispatch(func() {
		fn()
		close(done)
	})
	select {
	case <-done:
	case <-a.quit:
	}
}

func (a *App) CurrentSection() SectionID {
	var id SectionID
	a.inspect(func() { id = a.current })
	return id
}

// ActiveSections returns the sections carrying the active marker; there is
// never more than one.
func (a *App) ActiveSections() []SectionID {
	var res []SectionID
	a.inspect(func() {
		for id := range a.active {
			res = append(res, id)
		}
	})
	return res
}

func (a *App) Authenticated() bool {
	var authed bool
	a.inspect(func() { authed = a.session.Authenticated() })
	return authed
}

func (a *App) Principal() (user.Principal, bool) {
	var usr user.Principal
	var ok bool
	a.inspect(func() { usr, ok = a.session.Principal() })
	return usr, ok
}

func (a *App) Nav() []NavEntry {
	var nav []NavEntry
	a.inspect(func() { nav = append(nav, a.nav...) })
	return nav
}

func (a *App) Grid() []GridEntry {
	var grid []GridEntry
	a.inspect(func() { grid = append(grid, a.grid...) })
	return grid
}

func (a *App) Stats() analytics.Stats {
	var stats analytics.Stats
	a.inspect(func() { stats = a.stats })
	return stats
}

func (a *App) Alerts() []alert.Alert {
	var alerts []alert.Alert
	a.inspect(func() { alerts = append(alerts, a.alerts...) })
	return alerts
}

func (a *App) AttendanceOptions() []training.Event {
	var events []training.Event
	a.inspect(func() { events = append(events, a.attendance...) })
	return events
}

func (a *App) Report() training.Report {
	var report training.Report
	a.inspect(func() { report = a.report })
	return report
}

func (a *App) Export() []byte {
	var export []byte
	a.inspect(func() { export = append(export, a.export...) })
	return export
}

func (a *App) ProfileDetails() user.Principal {
	var usr user.Principal
	a.inspect(func() { usr = a.profile })
	return usr
}

func (a *App) EnrollmentHistory() []training.EnrolledEvent {
	var enrs []training.EnrolledEvent
	a.inspect(func() { enrs = append(enrs, a.enrollments...) })
	return enrs
}

func (a *App) SessionHistory() []user.SessionLog {
	var logs []user.SessionLog
	a.inspect(func() { logs = append(logs, a.sessionLog...) })
	return logs
}

func (a *App) FormErrors() map[string]string {
	res := make(map[string]string)
	a.inspect(func() {
		for k, v := range a.formErrors {
			res[k] = v
		}
	})
	return res
}

func (a *App) LoginForm() user.Login {
	var form user.Login
	a.inspect(func() { form = a.loginForm })
	return form
}

func (a *App) RegistrationForm() user.NewUser {
	var form user.NewUser
	a.inspect(func() { form = a.regForm })
	return form
}
