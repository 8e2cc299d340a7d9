package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/safestep/core"
	"github.com/trezcool/safestep/core/alert"
)

type alertApi struct {
	svc *alert.Service
}

func registerAlertAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *alert.Service) {
	api := alertApi{svc: svc}

	ag := g.Group("/alerts", jwt)
	ag.GET("", api.query)
	ag.POST("/:id/resolve", api.resolve)
}

// Handlers

func (api *alertApi) query(ctx echo.Context) error {
	alerts, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying alerts")
	}
	if alerts == nil {
		alerts = []alert.Alert{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "alerts": alerts})
}

func (api *alertApi) resolve(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	alrt, err := api.svc.Resolve(ctx.Request().Context(), id)
	if err != nil {
		switch cause := errors.Cause(err); cause {
		case alert.ErrNotFound:
			return errHttpNotFound
		case alert.ErrAlreadyResolved:
			return core.NewValidationError(cause)
		}
		return errors.Wrap(err, "resolving alert")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "message": "Alert resolved", "alert": alrt})
}
