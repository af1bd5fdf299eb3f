package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/auth"
)

type attendanceAPI struct {
	baseAPI
	svc *attendance.Service
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, base baseAPI, svc *attendance.Service) {
	api := attendanceAPI{baseAPI: base, svc: svc}

	ag := g.Group("/attendance", jwt)
	ag.POST("/mark", api.mark, requirePerm(auth.PermMarkAttendance))
	ag.POST("/mark-bulk", api.markBulk, requirePerm(auth.PermMarkAttendance))
	ag.GET("/check/:classId", api.check, requirePerm(auth.PermViewAttendance))
	ag.POST("/bulk", api.listForStudents, requirePerm(auth.PermViewAttendance))
	ag.GET("/:id", api.listByStudent, requirePerm(auth.PermViewAttendance))
}

func (api *attendanceAPI) mark(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	var data attendance.NewAttendance
	if err = api.bind(ctx, &data); err != nil {
		return err
	}
	a, err := api.svc.Mark(ctx.Request().Context(), p, data)
	if err != nil {
		return errors.Wrap(err, "marking attendance")
	}
	return respond(ctx, http.StatusCreated, "Attendance marked", a)
}

func (api *attendanceAPI) markBulk(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	var data attendance.NewBulkAttendance
	if err = api.bind(ctx, &data); err != nil {
		return err
	}
	res, err := api.svc.MarkBulk(ctx.Request().Context(), p, data)
	if err != nil {
		return errors.Wrap(err, "marking class attendance")
	}
	return respond(ctx, http.StatusCreated, "Attendance marked", res)
}

// check reports whether the attendance of a class was taken on the `date` query param, today by default.
func (api *attendanceAPI) check(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	day, err := attendance.ParseDay(ctx.QueryParam("date"))
	if err != nil {
		return err
	}
	taken, err := api.svc.Check(ctx.Request().Context(), p, ctx.Param("classId"), day)
	if err != nil {
		return errors.Wrap(err, "checking attendance")
	}
	return respond(ctx, http.StatusOK, "", map[string]bool{"attendanceTaken": taken})
}

func (api *attendanceAPI) listByStudent(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	sa, err := api.svc.ListByStudent(ctx.Request().Context(), p, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing student attendance")
	}
	return respond(ctx, http.StatusOK, "", sa)
}

func (api *attendanceAPI) listForStudents(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	var data attendance.StudentsRequest
	if err = api.bind(ctx, &data); err != nil {
		return err
	}
	all, err := api.svc.ListForStudents(ctx.Request().Context(), p, data.StudentIDs)
	if err != nil {
		return errors.Wrap(err, "listing students attendance")
	}
	return respond(ctx, http.StatusOK, "", all)
}
