package echoapi

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/safestep/core"
	"github.com/trezcool/safestep/core/training"
	"github.com/trezcool/safestep/core/user"
)

type trainingApi struct {
	svc    *training.Service
	usrSvc *user.Service
}

func registerTrainingAPI(g *echo.Group, jwt, soft echo.MiddlewareFunc, svc *training.Service, usrSvc *user.Service) {
	api := trainingApi{svc: svc, usrSvc: usrSvc}

	tg := g.Group("/trainings")
	tg.GET("", api.query, soft)
	tg.POST("", api.create, jwt, adminMiddleware())
	tg.PUT("/:id", api.update, jwt, adminMiddleware())
	tg.POST("/:id/enroll", api.enroll, jwt)
	tg.GET("/:id/report", api.report, jwt, adminMiddleware())

	g.POST("/attendance", api.markAttendance, jwt)
	g.GET("/user/enrollments", api.enrollments, jwt)
	g.GET("/reports/export", api.exportReports, jwt)
}

// Handlers

// query lists trainings. Anonymous callers only see the public subset;
// authenticated callers see everything.
func (api *trainingApi) query(ctx echo.Context) error {
	events, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying trainings")
	}

	_, authErr := getContextClaims(ctx)
	events = training.Project(events, authErr == nil)
	if events == nil {
		events = []training.Event{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "trainings": events})
}

func (api *trainingApi) create(ctx echo.Context) error {
	var data training.NewEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	evt, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating training")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"success": true, "message": "Training created", "training": evt})
}

func (api *trainingApi) update(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	var data training.UpdateEvent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEvent")
	}
	if err = data.Validate(); err != nil {
		return err
	}

	evt, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		if errors.Cause(err) == training.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating training")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "message": "Training updated", "training": evt})
}

func (api *trainingApi) enroll(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	enr, err := api.svc.Enroll(ctx.Request().Context(), id, usr.ID)
	if err != nil {
		switch cause := errors.Cause(err); cause {
		case training.ErrNotFound:
			return errHttpNotFound
		case training.ErrEventFull, training.ErrAlreadyEnrolled:
			return core.NewValidationError(cause)
		}
		return errors.Wrap(err, "enrolling")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"success": true, "message": "Enrolled successfully", "enrollment": enr})
}

func (api *trainingApi) enrollments(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	enrolled, err := api.svc.Enrollments(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	if enrolled == nil {
		enrolled = []training.EnrolledEvent{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "enrollments": enrolled})
}

func (api *trainingApi) report(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	rpt, err := api.svc.Report(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == training.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "generating report")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "report": rpt})
}

func (api *trainingApi) markAttendance(ctx echo.Context) error {
	var data training.Attendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Attendance")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	rec, err := api.svc.MarkAttendance(ctx.Request().Context(), data)
	if err != nil {
		if errors.Cause(err) == training.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "marking attendance")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"success": true, "message": "Attendance recorded", "record": rec})
}

func (api *trainingApi) exportReports(ctx echo.Context) error {
	events, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying trainings")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"ID", "Title", "Start Date", "End Date", "Location", "Trainer", "Capacity", "Enrolled", "Status"})
	for _, evt := range events {
		_ = w.Write([]string{
			strconv.Itoa(evt.ID), evt.Title, evt.StartDate, evt.EndDate, evt.Location,
			evt.Trainer, strconv.Itoa(evt.Capacity), strconv.Itoa(evt.Enrolled), string(evt.Status),
		})
	}
	w.Flush()
	if err = w.Error(); err != nil {
		return errors.Wrap(err, "writing csv")
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="training_reports.csv"`)
	return ctx.Blob(http.StatusOK, "text/csv", buf.Bytes())
}
