package echoapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/safestep/core"
	"github.com/trezcool/safestep/core/user"
)

var (
	authConf       *core.Config
	appJWTConfig   middleware.JWTConfig
	contextUserKey = "user"
)

// Claims represents the authorization claims carried by the session cookie JWT.
type Claims struct {
	jwt.StandardClaims
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
	Role         string `json:"role,omitempty"`
	Jurisdiction string `json:"state,omitempty"`
	IsAdmin      bool   `json:"is_admin,omitempty"`
}

// configureAuth sets up the JWT auth middleware config. The token travels in
// an HttpOnly session cookie instead of the Authorization header.
func configureAuth(conf *core.Config) middleware.JWTConfig {
	authConf = conf
	appJWTConfig = middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    "userToken",
		TokenLookup:   "cookie:" + conf.Server.SessionCookieName,
		Claims:        new(Claims),
		ErrorHandlerWithContext: func(err error, ctx echo.Context) error {
			return errNotLoggedIn
		},
	}
	return appJWTConfig
}

func GetPrincipalClaims(usr user.Principal) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    authConf.AppName,
			Subject:   strconv.Itoa(usr.ID),
			Audience:  "SafeStep",
			ExpiresAt: now.Add(authConf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Name:         usr.Name,
		Email:        usr.Email,
		Role:         string(usr.Role),
		Jurisdiction: usr.Jurisdiction,
		IsAdmin:      usr.IsAdmin(),
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(appJWTConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(appJWTConfig.SigningKey)
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func setSessionCookie(ctx echo.Context, token string) {
	ctx.SetCookie(&http.Cookie{
		Name:     authConf.Server.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(authConf.Server.JWTExpirationDelta),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(ctx echo.Context) {
	ctx.SetCookie(&http.Cookie{
		Name:     authConf.Server.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(appJWTConfig.ContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errNotLoggedIn
}

func getContextUser(ctx echo.Context, svc *user.Service, clms ...Claims) (user.Principal, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.Principal); ok {
		return usr, nil
	}

	var claims Claims
	var err error
	if len(clms) > 0 {
		claims = clms[0]
	} else {
		claims, err = getContextClaims(ctx)
		if err != nil {
			return user.Principal{}, errors.Wrap(err, "getting context claims")
		}
	}

	uid, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return user.Principal{}, errors.Wrap(err, "parsing claims subject")
	}

	usr, err := svc.GetByID(ctx.Request().Context(), uid)
	if err != nil {
		return user.Principal{}, errors.Wrap(err, "finding user by ID")
	}
	ctx.Set(contextUserKey, usr)
	return usr, nil
}

// softAuthMiddleware parses the session cookie when present but lets the
// request through either way; public endpoints use it to tailor their payload
// to the caller.
func softAuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if cookie, err := ctx.Cookie(authConf.Server.SessionCookieName); err == nil && cookie.Value != "" {
				token, err := jwt.ParseWithClaims(cookie.Value, new(Claims), func(t *jwt.Token) (interface{}, error) {
					if t.Method.Alg() != appJWTConfig.SigningMethod {
						return nil, errors.Errorf("unexpected signing method: %v", t.Method.Alg())
					}
					return appJWTConfig.SigningKey, nil
				})
				if err == nil && token.Valid {
					ctx.Set(appJWTConfig.ContextKey, token)
				}
			}
			return next(ctx)
		}
	}
}

func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
