package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/auth"
	"github.com/trezcool/darasa/core/schedule"
	"github.com/trezcool/darasa/core/subject"
	"github.com/trezcool/darasa/core/teacher"
)

type scheduleAPI struct {
	baseAPI
	svc      *schedule.Service
	teachers *teacher.Service
	subjects *subject.Service
}

func registerScheduleAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	base baseAPI,
	svc *schedule.Service,
	teachers *teacher.Service,
	subjects *subject.Service,
) {
	api := scheduleAPI{baseAPI: base, svc: svc, teachers: teachers, subjects: subjects}

	sg := g.Group("/schedule", jwt)
	sg.POST("/create", api.create, requirePerm(auth.PermManageSchedules))
	sg.PUT("/update/:id", api.update, requirePerm(auth.PermManageSchedules))
	sg.DELETE("/delete/:id", api.destroy, requirePerm(auth.PermManageSchedules))
	sg.GET("/fetch-with-class/:id", api.listByClass, requirePerm(auth.PermViewSchedules))
	sg.GET("/fetch/:id", api.retrieve, requirePerm(auth.PermViewSchedules))
	sg.GET("/teacher/subjects/:teacherId", api.teacherSubjects, requirePerm(auth.PermViewTeacherSubjects))
	sg.POST("/cleanup", api.cleanup, requirePerm(auth.PermCleanupSchedules))
}

func (api *scheduleAPI) create(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	var data schedule.NewSchedule
	if err = api.bind(ctx, &data); err != nil {
		return err
	}
	s, err := api.svc.Create(ctx.Request().Context(), p, data)
	if err != nil {
		return errors.Wrap(err, "creating schedule")
	}
	return respond(ctx, http.StatusCreated, "Schedule created", s)
}

func (api *scheduleAPI) update(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	var data schedule.UpdateSchedule
	if err = api.bind(ctx, &data); err != nil {
		return err
	}
	s, err := api.svc.Update(ctx.Request().Context(), p, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating schedule")
	}
	return respond(ctx, http.StatusOK, "Schedule updated", s)
}

func (api *scheduleAPI) destroy(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), p, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting schedule")
	}
	return respond(ctx, http.StatusOK, "Schedule deleted", nil)
}

func (api *scheduleAPI) listByClass(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	schedules, err := api.svc.ListByClass(ctx.Request().Context(), p, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing class schedules")
	}
	return respond(ctx, http.StatusOK, "", schedules)
}

func (api *scheduleAPI) retrieve(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	s, err := api.svc.Get(ctx.Request().Context(), p, ctx.Param("id"))
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "", s)
}

func (api *scheduleAPI) teacherSubjects(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	c := ctx.Request().Context()
	t, err := api.teachers.Get(c, p, ctx.Param("teacherId"))
	if err != nil {
		return err
	}
	subjects, err := api.subjects.ListByIDs(c, p, t.Subjects)
	if err != nil {
		return errors.Wrap(err, "listing teacher subjects")
	}
	return respond(ctx, http.StatusOK, "", subjects)
}

// cleanup runs the schedule cleanup now, outside of the cron.
func (api *scheduleAPI) cleanup(ctx echo.Context) error {
	res, err := api.svc.Cleanup(ctx.Request().Context(), nowFunc())
	if err != nil {
		return errors.Wrap(err, "cleaning up schedules")
	}
	return respond(ctx, http.StatusOK, "Schedules cleaned up", res)
}
