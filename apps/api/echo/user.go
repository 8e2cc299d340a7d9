package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/safestep/core/user"
)

type authApi struct {
	svc *user.Service
}

func registerAuthAPI(g *echo.Group, jwt, soft echo.MiddlewareFunc, svc *user.Service) {
	api := authApi{svc: svc}

	ag := g.Group("/auth")
	ag.GET("/check", api.check, soft)
	ag.POST("/register", api.register)
	ag.POST("/login", api.login)
	ag.POST("/logout", api.logout, soft)

	ug := g.Group("/user", jwt)
	ug.GET("/profile", api.profile)
	ug.GET("/sessions", api.sessions)
}

// Handlers

func (api *authApi) check(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return ctx.JSON(http.StatusOK, echo.Map{"success": true, "authenticated": false})
	}
	usr, err := getContextUser(ctx, api.svc, claims)
	if err != nil {
		// a stale cookie for a deleted account is not an error
		return ctx.JSON(http.StatusOK, echo.Map{"success": true, "authenticated": false})
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "authenticated": true, "user": usr})
}

func (api *authApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	usr, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}

	// registration doubles as the first login
	token, err := GenerateToken(GetPrincipalClaims(usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	setSessionCookie(ctx, token)

	return ctx.JSON(http.StatusCreated, echo.Map{"success": true, "message": "Registration successful", "user": usr})
}

func (api *authApi) login(ctx echo.Context) error {
	var data user.Login
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Login")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	usr, err := api.svc.Authenticate(
		ctx.Request().Context(),
		data.Email, data.Password,
		ctx.RealIP(), ctx.Request().UserAgent(),
	)
	if err != nil {
		// collapse unknown email and wrong password into one message
		if cause := errors.Cause(err); cause == user.ErrNotFound || cause == bcrypt.ErrMismatchedHashAndPassword {
			return errInvalidCredentials
		}
		return errors.Wrap(err, "authenticating")
	}

	token, err := GenerateToken(GetPrincipalClaims(usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	setSessionCookie(ctx, token)

	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "message": "Login successful", "user": usr})
}

func (api *authApi) logout(ctx echo.Context) error {
	if claims, err := getContextClaims(ctx); err == nil {
		if uid, err := strconv.Atoi(claims.Subject); err == nil {
			if err = api.svc.EndSessions(ctx.Request().Context(), uid); err != nil {
				ctx.Logger().Errorf("%+v", errors.Wrap(err, "ending sessions"))
			}
		}
	}
	clearSessionCookie(ctx)
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "message": "Logged out"})
}

func (api *authApi) profile(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "user": usr})
}

func (api *authApi) sessions(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	sessions, err := api.svc.Sessions(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "querying sessions")
	}
	if sessions == nil {
		sessions = []user.SessionLog{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "sessions": sessions})
}
