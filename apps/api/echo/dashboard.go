package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/safestep/core/alert"
	"github.com/trezcool/safestep/core/analytics"
	"github.com/trezcool/safestep/core/training"
	"github.com/trezcool/safestep/core/user"
)

type dashboardApi struct {
	trainingSvc *training.Service
	usrSvc      *user.Service
	alertSvc    *alert.Service
}

func registerDashboardAPI(g *echo.Group, jwt echo.MiddlewareFunc, trainingSvc *training.Service, usrSvc *user.Service, alertSvc *alert.Service) {
	api := dashboardApi{trainingSvc: trainingSvc, usrSvc: usrSvc, alertSvc: alertSvc}

	g.GET("/dashboard/stats", api.stats)
	g.GET("/analytics/charts", api.charts, jwt)
}

// Handlers

func (api *dashboardApi) stats(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	events, err := api.trainingSvc.QueryAll(reqCtx)
	if err != nil {
		return errors.Wrap(err, "querying trainings")
	}

	var participants int
	locations := make(map[string]struct{})
	for _, evt := range events {
		participants += evt.Enrolled
		locations[evt.Location] = struct{}{}
	}

	activeAlerts, err := api.alertSvc.ActiveCount(reqCtx)
	if err != nil {
		return errors.Wrap(err, "counting active alerts")
	}

	stats := analytics.Stats{
		TotalTrainings:    len(events),
		TotalParticipants: participants,
		StatesCovered:     len(locations),
		ActiveAlerts:      activeAlerts,
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "stats": stats})
}

// charts serves the fixed series behind the analytics section.
func (api *dashboardApi) charts(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{
		"success": true,
		"effectiveness": echo.Map{
			"labels": analytics.EffectivenessLabels,
			"data":   analytics.EffectivenessData,
		},
		"coverage": echo.Map{
			"labels": analytics.CoverageLabels,
			"data":   analytics.CoverageData,
		},
		"satisfaction": echo.Map{
			"labels": analytics.TrendLabels(),
			"data":   analytics.SatisfactionData,
		},
		"monthly_trends": analytics.MonthlyTrends,
	})
}
