package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/auth"
	"github.com/trezcool/darasa/core/class"
	"github.com/trezcool/darasa/core/subject"
)

type classAPI struct {
	baseAPI
	svc *class.Service
}

func registerClassAPI(g *echo.Group, jwt echo.MiddlewareFunc, base baseAPI, svc *class.Service) {
	api := classAPI{baseAPI: base, svc: svc}

	cg := g.Group("/class", jwt)
	cg.POST("/create", api.create, requirePerm(auth.PermManageClasses))
	cg.GET("/all", api.list, requirePerm(auth.PermViewClasses))
	cg.GET("/attendee", api.listAttendee, requirePerm(auth.PermMarkAttendance))
	cg.GET("/fetch/:id", api.retrieve, requirePerm(auth.PermViewClasses))
	cg.PUT("/update/:id", api.update, requirePerm(auth.PermManageClasses))
	cg.DELETE("/delete/:id", api.destroy, requirePerm(auth.PermManageClasses))
}

func (api *classAPI) create(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	var data class.NewClass
	if err = api.bind(ctx, &data); err != nil {
		return err
	}
	c, err := api.svc.Create(ctx.Request().Context(), p, data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return respond(ctx, http.StatusCreated, "Class created", c)
}

func (api *classAPI) list(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	classes, err := api.svc.List(ctx.Request().Context(), p)
	if err != nil {
		return errors.Wrap(err, "listing classes")
	}
	return respond(ctx, http.StatusOK, "", classes)
}

func (api *classAPI) listAttendee(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	classes, err := api.svc.ListAttendee(ctx.Request().Context(), p)
	if err != nil {
		return errors.Wrap(err, "listing attendee classes")
	}
	return respond(ctx, http.StatusOK, "", classes)
}

func (api *classAPI) retrieve(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	c, err := api.svc.Get(ctx.Request().Context(), p, ctx.Param("id"))
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "", c)
}

func (api *classAPI) update(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	var data class.UpdateClass
	if err = api.bind(ctx, &data); err != nil {
		return err
	}
	c, err := api.svc.Update(ctx.Request().Context(), p, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating class")
	}
	return respond(ctx, http.StatusOK, "Class updated", c)
}

func (api *classAPI) destroy(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), p, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return respond(ctx, http.StatusOK, "Class deleted", nil)
}

type subjectAPI struct {
	baseAPI
	svc *subject.Service
}

func registerSubjectAPI(g *echo.Group, jwt echo.MiddlewareFunc, base baseAPI, svc *subject.Service) {
	api := subjectAPI{baseAPI: base, svc: svc}

	sg := g.Group("/subject", jwt)
	sg.POST("/create", api.create, requirePerm(auth.PermManageSubjects))
	sg.GET("/all", api.list, requirePerm(auth.PermViewSubjects))
	sg.GET("/fetch/:id", api.retrieve, requirePerm(auth.PermViewSubjects))
	sg.PUT("/update/:id", api.update, requirePerm(auth.PermManageSubjects))
	sg.DELETE("/delete/:id", api.destroy, requirePerm(auth.PermManageSubjects))
}

func (api *subjectAPI) create(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	var data subject.NewSubject
	if err = api.bind(ctx, &data); err != nil {
		return err
	}
	s, err := api.svc.Create(ctx.Request().Context(), p, data)
	if err != nil {
		return errors.Wrap(err, "creating subject")
	}
	return respond(ctx, http.StatusCreated, "Subject created", s)
}

func (api *subjectAPI) list(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	subjects, err := api.svc.List(ctx.Request().Context(), p)
	if err != nil {
		return errors.Wrap(err, "listing subjects")
	}
	return respond(ctx, http.StatusOK, "", subjects)
}

func (api *subjectAPI) retrieve(ctx echo.Context) error {
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

func (api *subjectAPI) update(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	var data subject.UpdateSubject
	if err = api.bind(ctx, &data); err != nil {
		return err
	}
	s, err := api.svc.Update(ctx.Request().Context(), p, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating subject")
	}
	return respond(ctx, http.StatusOK, "Subject updated", s)
}

func (api *subjectAPI) destroy(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), p, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting subject")
	}
	return respond(ctx, http.StatusOK, "Subject deleted", nil)
}
