package user

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/safestep/core"
)

var (
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("a user with this email already exists")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...Principal) error
		CreateUser(ctx context.Context, usr Principal) (Principal, error)
		QueryAllUsers(ctx context.Context) ([]Principal, error)
		GetUserByID(ctx context.Context, id int) (Principal, error)
		GetUserByEmail(ctx context.Context, email string) (Principal, error)
		UpdateUser(ctx context.Context, usr Principal) (Principal, error)

		CreateSessionLog(ctx context.Context, sess SessionLog) (SessionLog, error)
		CloseSessionLogs(ctx context.Context, userID int, at time.Time) error
		QuerySessionLogs(ctx context.Context, userID int) ([]SessionLog, error)
	}

	Service struct {
		repo Repository
		mail core.EmailService
		conf *core.Config
	}
)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{repo: repo, mail: mailSvc, conf: conf}
}

func (svc *Service) checkUniqueness(ctx context.Context, email string, exclUsers ...Principal) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, exclUsers...); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Create registers a new Principal and sends them a welcome email.
func (svc *Service) Create(ctx context.Context, nu NewUser) (Principal, error) {
	if err := svc.checkUniqueness(ctx, nu.Email); err != nil {
		return Principal{}, err
	}

	now := time.Now().UTC()
	usr := Principal{
		Name:         nu.Name,
		Email:        nu.Email,
		Role:         nu.Role,
		Jurisdiction: nu.Jurisdiction,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return Principal{}, errors.Wrap(err, "setting password")
	}

	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return Principal{}, err
	}
	svc.sendWelcomeEmail(usr)
	return usr, nil
}

func (svc *Service) sendWelcomeEmail(usr Principal) {
	if svc.mail == nil {
		return
	}
	msg := &core.EmailMessage{
		To:      []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject: "Welcome to " + svc.conf.AppName,
		TextContent: fmt.Sprintf(
			"Hi %s,\n\nYour %s account has been created as %s (%s).\n\nHappy training!",
			usr.Name, svc.conf.AppName, usr.Role, usr.Jurisdiction,
		),
	}
	svc.mail.SendMessages(msg)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Principal, error) {
	return svc.repo.QueryAllUsers(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id int) (Principal, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (Principal, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

// Authenticate verifies the credentials and records the login session.
// It returns ErrNotFound for an unknown email and bcrypt's mismatch error
// for a wrong password; callers collapse both into one user-facing message.
func (svc *Service) Authenticate(ctx context.Context, email, pwd, ipAddr, browserInfo string) (Principal, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return Principal{}, err
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return Principal{}, err
	}

	usr.LastLogin = time.Now().UTC()
	usr.UpdatedAt = usr.LastLogin
	if usr, err = svc.repo.UpdateUser(ctx, usr); err != nil {
		return Principal{}, errors.Wrap(err, "setting lastLogin")
	}
	if _, err = svc.repo.CreateSessionLog(ctx, SessionLog{
		UserID:      usr.ID,
		IPAddress:   ipAddr,
		BrowserInfo: browserInfo,
		LoginTime:   usr.LastLogin,
	}); err != nil {
		return Principal{}, errors.Wrap(err, "recording session")
	}
	return usr, nil
}

// EndSessions closes all open session logs for the user on logout.
func (svc *Service) EndSessions(ctx context.Context, userID int) error {
	return svc.repo.CloseSessionLogs(ctx, userID, time.Now().UTC())
}

func (svc *Service) Sessions(ctx context.Context, userID int) ([]SessionLog, error) {
	return svc.repo.QuerySessionLogs(ctx, userID)
}

// SetPassword resets the user's password; used by the admin CLI.
func (svc *Service) SetPassword(ctx context.Context, usr Principal, pwd string) (Principal, error) {
	if err := usr.SetPassword(pwd); err != nil {
		return Principal{}, errors.Wrap(err, "setting password")
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}
