package webapp

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/safestep/core"
	"github.com/trezcool/safestep/core/user"
	"github.com/trezcool/safestep/webapp/widget"
)

// nonFieldErrors keys form-wide messages in FormErrors.
const nonFieldErrors = "__all__"

// applyFormErrors converts a local validation failure into field-scoped
// messages. No session or section state changes.
func (a *App) applyFormErrors(err error) {
	flds := make(map[string]string)
	switch vErr := errors.Cause(err).(type) {
	case validator.ValidationErrors:
		for _, fldErr := range core.TranslateValidationErrors(vErr) {
			flds[fldErr.Field] = fldErr.Error
		}
	case *core.ValidationError:
		for fld, msg := range vErr.FieldMap() {
			flds[fld] = msg
		}
		if len(flds) == 0 {
			flds[nonFieldErrors] = vErr.Error()
		}
	default:
		flds[nonFieldErrors] = err.Error()
	}
	a.formErrors = flds
	a.host.Notify(widget.LevelError, "Please correct the highlighted fields.")
}

// authSucceeded installs the principal and rebuilds the view from the default
// section; nothing rendered for the previous session survives.
func (a *App) authSucceeded(usr user.Principal, msg string) {
	a.session.setAuthenticated(usr)
	a.formErrors = make(map[string]string)
	a.loginForm = user.Login{}
	a.regForm = user.NewUser{}
	a.current = DefaultSection
	a.reconcile()
	a.host.Notify(widget.LevelSuccess, msg)
}

// SubmitLogin runs the sign-in flow: local validation first, then the backend
// call. On any failure the form keeps its values except the password, which
// is always cleared.
func (a *App) SubmitLogin(form user.Login) {
	a.dispatch(func() {
		a.loginForm = form
		a.loginForm.Password = ""
		if err := form.Validate(); err != nil {
			a.applyFormErrors(err)
			return
		}
		a.formErrors = make(map[string]string)
		a.async("signing in", func(ctx context.Context) (func(), error) {
			usr, err := a.backend.Login(ctx, form)
			return func() { a.authSucceeded(usr, "Welcome back, "+usr.Name+"!") }, err
		})
	})
}

// SubmitRegistration registers a new account; success doubles as the first
// sign-in. Password fields never survive a failed submission.
func (a *App) SubmitRegistration(form user.NewUser) {
	a.dispatch(func() {
		a.regForm = form
		a.regForm.Password, a.regForm.PasswordConfirm = "", ""
		if err := form.Validate(); err != nil {
			a.applyFormErrors(err)
			return
		}
		a.formErrors = make(map[string]string)
		a.async("registering", func(ctx context.Context) (func(), error) {
			usr, err := a.backend.Register(ctx, form)
			return func() { a.authSucceeded(usr, "Welcome to SafeStep, "+usr.Name+"!") }, err
		})
	})
}

// LoadProfile fetches the signed-in user's profile modal: account details,
// enrollment history and recent login sessions.
func (a *App) LoadProfile() {
	a.dispatch(func() {
		if !a.session.Authenticated() {
			a.host.Notify(widget.LevelError, "Please sign in to view your profile.")
			return
		}
		a.async("loading your profile", func(ctx context.Context) (func(), error) {
			usr, err := a.backend.Profile(ctx)
			return func() { a.profile = usr }, err
		})
		a.async("loading your enrollments", func(ctx context.Context) (func(), error) {
			enrs, err := a.backend.Enrollments(ctx)
			return func() { a.enrollments = enrs }, err
		})
		a.async("loading your sessions", func(ctx context.Context) (func(), error) {
			logs, err := a.backend.Sessions(ctx)
			return func() { a.sessionLog = logs }, err
		})
	})
}

// Logout drops the session locally right away and tells the backend on a best
// effort basis; widgets scoped to restricted sections are forgotten.
func (a *App) Logout() {
	a.dispatch(func() {
		if !a.session.Authenticated() {
			return
		}
		a.async("signing out", func(ctx context.Context) (func(), error) {
			return func() {}, a.backend.Logout(ctx)
		})
		a.session.clear()
		a.dropRestrictedWidgets()
		a.current = DefaultSection
		a.reconcile()
		a.host.Notify(widget.LevelInfo, "You have signed out.")
	})
}
