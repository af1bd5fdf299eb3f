package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/auth"
	"github.com/trezcool/darasa/core/exam"
)

type examAPI struct {
	baseAPI
	svc *exam.Service
}

func registerExamAPI(g *echo.Group, jwt echo.MiddlewareFunc, base baseAPI, svc *exam.Service) {
	api := examAPI{baseAPI: base, svc: svc}

	eg := g.Group("/examination", jwt)
	eg.POST("/create", api.create, requirePerm(auth.PermManageExams))
	eg.GET("/all", api.list, requirePerm(auth.PermViewExams))
	eg.GET("/class/:id", api.listByClass, requirePerm(auth.PermViewExams))
	eg.PUT("/update/:id", api.update, requirePerm(auth.PermManageExams))
	eg.DELETE("/delete/:id", api.destroy, requirePerm(auth.PermManageExams))
	eg.POST("/calculate-duration", api.calculateDuration, requirePerm(auth.PermManageExams))
	eg.GET("/exam-types", api.types, requirePerm(auth.PermManageExams))
}

func (api *examAPI) create(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	var data exam.NewExamination
	if err = api.bind(ctx, &data); err != nil {
		return err
	}
	e, err := api.svc.Create(ctx.Request().Context(), p, data)
	if err != nil {
		return errors.Wrap(err, "creating examination")
	}
	return respond(ctx, http.StatusCreated, "Examination created", e)
}

func (api *examAPI) list(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	exams, err := api.svc.List(ctx.Request().Context(), p)
	if err != nil {
		return errors.Wrap(err, "listing examinations")
	}
	return respond(ctx, http.StatusOK, "", exams)
}

func (api *examAPI) listByClass(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	exams, err := api.svc.ListByClass(ctx.Request().Context(), p, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing class examinations")
	}
	return respond(ctx, http.StatusOK, "", exams)
}

func (api *examAPI) update(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	var data exam.UpdateExamination
	if err = api.bind(ctx, &data); err != nil {
		return err
	}
	e, err := api.svc.Update(ctx.Request().Context(), p, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating examination")
	}
	return respond(ctx, http.StatusOK, "Examination updated", e)
}

func (api *examAPI) destroy(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), p, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting examination")
	}
	return respond(ctx, http.StatusOK, "Examination deleted", nil)
}

func (api *examAPI) calculateDuration(ctx echo.Context) error {
	var data exam.DurationRequest
	if err := api.bind(ctx, &data); err != nil {
		return err
	}
	minutes, err := exam.CalculateDuration(data.StartTime, data.EndTime)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "", map[string]int{"duration": minutes})
}

// types lists the examination types the principal may create.
func (api *examAPI) types(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "", exam.TypesFor(p.Role))
}
