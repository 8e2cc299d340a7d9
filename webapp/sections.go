package webapp

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/safestep/core/analytics"
	"github.com/trezcool/safestep/core/training"
	"github.com/trezcool/safestep/webapp/widget"
)

// indiaCenter is the initial map view; zoomed to frame the whole country.
var indiaCenter = widget.LatLng{Lat: 20.5937, Lng: 78.9629}

const countryZoom = 5

func (a *App) initSection(id SectionID) {
	switch id {
	case SectionDashboard:
		a.initDashboard()
	case SectionTrainings:
		a.initTrainings()
	case SectionMap:
		a.initMap()
	case SectionAttendance:
		a.initAttendance()
	case SectionAnalytics:
		a.initAnalytics()
	case SectionAlerts:
		a.initAlerts()
	case SectionReports:
		a.initReports()
	}
}

// loadEvents fetches the full training list and hands it to apply on the
// loop. Projection is NOT done here: each render site derives its own view
// from the full list, so a response applied after an auth change can never
// leak a stale projection.
func (a *App) loadEvents(apply func(events []training.Event)) {
	a.async("loading trainings", func(ctx context.Context) (func(), error) {
		events, err := a.backend.ListTrainings(ctx)
		return func() { apply(events) }, err
	})
}

func (a *App) initDashboard() {
	m := a.mapFor("dashboard-map")
	m.SetView(indiaCenter, countryZoom)
	a.async("loading dashboard statistics", func(ctx context.Context) (func(), error) {
		stats, err := a.backend.DashboardStats(ctx)
		return func() { a.stats = stats }, err
	})
	a.loadEvents(func(events []training.Event) {
		m.SetMarkers(eventMarkers(training.Project(events, a.session.Authenticated())))
	})
}

func (a *App) initTrainings() {
	a.loadEvents(func(events []training.Event) { a.renderGrid(events) })
}

// renderGrid derives the grid from the full event list. The projection runs
// here, at the render site, and anonymous visitors get a trailing sign-in
// card whenever the projection hid something.
func (a *App) renderGrid(events []training.Event) {
	authed := a.session.Authenticated()
	visible := training.Project(events, authed)
	grid := make([]GridEntry, 0, len(visible)+1)
	for _, e := range visible {
		grid = append(grid, GridEntry{Event: e})
	}
	if !authed && len(visible) < len(events) {
		grid = append(grid, GridEntry{SignInPrompt: true})
	}
	a.grid = grid
}

func (a *App) initMap() {
	m := a.mapFor("main-map")
	m.SetView(indiaCenter, countryZoom)
	a.loadEvents(func(events []training.Event) {
		visible := training.Project(events, a.session.Authenticated())
		m.SetMarkers(eventMarkers(filterEvents(visible, a.mapTheme, a.mapState)))
	})
}

// SetMapFilters narrows the map markers by theme and/or location; empty
// values clear the corresponding filter.
func (a *App) SetMapFilters(theme, state string) {
	a.dispatch(func() {
		a.mapTheme, a.mapState = theme, state
		if a.current == SectionMap {
			a.initMap()
		}
	})
}

// filterEvents keeps events matching the theme and location filters; empty
// filters match everything.
func filterEvents(events []training.Event, theme, state string) []training.Event {
	if theme == "" && state == "" {
		return events
	}
	res := make([]training.Event, 0, len(events))
	for _, e := range events {
		if theme != "" && !hasTheme(e, theme) {
			continue
		}
		if state != "" && !strings.Contains(e.Location, state) {
			continue
		}
		res = append(res, e)
	}
	return res
}

func hasTheme(e training.Event, theme string) bool {
	for _, t := range e.Themes {
		if t == theme {
			return true
		}
	}
	return false
}

func (a *App) initAttendance() {
	qr := a.qrFor("attendance-qr")
	a.loadEvents(func(events []training.Event) {
		visible := training.Project(events, a.session.Authenticated())
		a.attendance = visible
		if len(visible) > 0 {
			qr.SetContent(attendanceQRContent(visible[0]))
		}
	})
}

func (a *App) initAnalytics() {
	a.chartFor("analytics-effectiveness", widget.ChartDoughnut).Update(widget.Series{
		Labels: analytics.EffectivenessLabels,
		Data:   analytics.EffectivenessData,
	})
	a.chartFor("analytics-coverage", widget.ChartBar).Update(widget.Series{
		Labels: analytics.CoverageLabels,
		Data:   analytics.CoverageData,
	})
	a.chartFor("analytics-satisfaction", widget.ChartLine).Update(widget.Series{
		Labels: analytics.TrendLabels(),
		Data:   analytics.SatisfactionData,
	})
}

func (a *App) initAlerts() {
	a.async("loading alerts", func(ctx context.Context) (func(), error) {
		alerts, err := a.backend.ListAlerts(ctx)
		return func() { a.alerts = alerts }, err
	})
}

// initReports renders static report cards; nothing is fetched until the user
// asks for a specific report or an export.
func (a *App) initReports() {
	a.report = training.Report{}
	a.export = nil
}

func eventMarkers(events []training.Event) []widget.Marker {
	markers := make([]widget.Marker, 0, len(events))
	for _, e := range events {
		markers = append(markers, widget.Marker{
			Pos:    widget.LatLng{Lat: e.Latitude, Lng: e.Longitude},
			Label:  e.Title,
			Detail: fmt.Sprintf("%s | %s | %d/%d enrolled", e.Location, e.StartDate, e.Enrolled, e.Capacity),
		})
	}
	return markers
}

// attendanceQRContent encodes the check-in payload scanned on site. The nonce
// keeps each rendered code distinct.
func attendanceQRContent(e training.Event) string {
	return fmt.Sprintf("safestep://attendance?event=%d&nonce=%s", e.ID, uuid.New())
}

// SelectAttendanceEvent re-renders the check-in code for the chosen event.
func (a *App) SelectAttendanceEvent(eventID int) {
	a.dispatch(func() {
		for _, e := range a.attendance {
			if e.ID == eventID {
				a.qrFor("attendance-qr").SetContent(attendanceQRContent(e))
				return
			}
		}
	})
}

// EnrollInTraining enrolls the current principal on an event and re-runs the
// active section's initializer so seat counts refresh.
func (a *App) EnrollInTraining(eventID int) {
	a.dispatch(func() {
		if !a.session.Authenticated() {
			a.host.Notify(widget.LevelError, "Please sign in to enroll.")
			return
		}
		a.async("enrolling", func(ctx context.Context) (func(), error) {
			_, err := a.backend.Enroll(ctx, eventID)
			return func() {
				a.host.Notify(widget.LevelSuccess, "Enrolled successfully.")
				a.initSection(a.current)
			}, err
		})
	})
}

// SubmitTraining creates a new event from the admin form and refreshes the
// active section so the new event shows up.
func (a *App) SubmitTraining(form training.NewEvent) {
	a.dispatch(func() {
		if !a.session.Authenticated() {
			a.host.Notify(widget.LevelError, "Please sign in to manage trainings.")
			return
		}
		if err := form.Validate(); err != nil {
			a.applyFormErrors(err)
			return
		}
		a.formErrors = make(map[string]string)
		a.async("creating the training", func(ctx context.Context) (func(), error) {
			evt, err := a.backend.CreateTraining(ctx, form)
			return func() {
				a.host.Notify(widget.LevelSuccess, "Training created: "+evt.Title)
				a.initSection(a.current)
			}, err
		})
	})
}

// SubmitTrainingUpdate edits an existing event from the admin form. Zero-value
// fields leave the event unchanged.
func (a *App) SubmitTrainingUpdate(id int, form training.UpdateEvent) {
	a.dispatch(func() {
		if !a.session.Authenticated() {
			a.host.Notify(widget.LevelError, "Please sign in to manage trainings.")
			return
		}
		if err := form.Validate(); err != nil {
			a.applyFormErrors(err)
			return
		}
		a.formErrors = make(map[string]string)
		a.async("updating the training", func(ctx context.Context) (func(), error) {
			evt, err := a.backend.UpdateTraining(ctx, id, form)
			return func() {
				a.host.Notify(widget.LevelSuccess, "Training updated: "+evt.Title)
				a.initSection(a.current)
			}, err
		})
	})
}

// SubmitAttendance validates the check-in form locally, then records it.
func (a *App) SubmitAttendance(form training.Attendance) {
	a.dispatch(func() {
		if err := form.Validate(); err != nil {
			a.applyFormErrors(err)
			return
		}
		a.formErrors = make(map[string]string)
		a.async("recording attendance", func(ctx context.Context) (func(), error) {
			rec, err := a.backend.MarkAttendance(ctx, form)
			return func() {
				a.host.Notify(widget.LevelSuccess, "Attendance recorded for "+rec.Participant+".")
			}, err
		})
	})
}

// ResolveAlert marks an alert resolved and patches it into the rendered list.
func (a *App) ResolveAlert(id int) {
	a.dispatch(func() {
		a.async("resolving the alert", func(ctx context.Context) (func(), error) {
			alrt, err := a.backend.ResolveAlert(ctx, id)
			return func() {
				for i := range a.alerts {
					if a.alerts[i].ID == alrt.ID {
						a.alerts[i] = alrt
					}
				}
				a.host.Notify(widget.LevelSuccess, "Alert resolved.")
			}, err
		})
	})
}

// LoadTrainingReport fetches the per-event report shown in the reports section.
func (a *App) LoadTrainingReport(eventID int) {
	a.dispatch(func() {
		a.async("loading the report", func(ctx context.Context) (func(), error) {
			rpt, err := a.backend.TrainingReport(ctx, eventID)
			return func() { a.report = rpt }, err
		})
	})
}

// ExportReports downloads the CSV export of all training reports.
func (a *App) ExportReports() {
	a.dispatch(func() {
		a.async("exporting reports", func(ctx context.Context) (func(), error) {
			data, err := a.backend.ExportReport(ctx)
			return func() {
				a.export = data
				a.host.Notify(widget.LevelSuccess, "Report export ready.")
			}, err
		})
	})
}
