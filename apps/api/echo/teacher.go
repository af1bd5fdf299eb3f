package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/auth"
	"github.com/trezcool/darasa/core/teacher"
)

const teacherEntity = "teacher"

type teacherAPI struct {
	baseAPI
	svc *teacher.Service
}

func registerTeacherAPI(g *echo.Group, jwt echo.MiddlewareFunc, base baseAPI, svc *teacher.Service) {
	api := teacherAPI{baseAPI: base, svc: svc}

	tg := g.Group("/teacher")
	tg.POST("/login", api.login)

	ag := tg.Group("", jwt)
	ag.POST("/register", api.register, requirePerm(auth.PermManageTeachers))
	ag.GET("/fetch-with-query", api.query, requirePerm(auth.PermViewTeachers))
	ag.GET("/fetch-single", api.retrieveSelf, requireRole(auth.RoleTeacher))
	ag.GET("/fetch/:id", api.retrieve, requirePerm(auth.PermManageTeachers))
	ag.PUT("/update/:id", api.update, requirePerm(auth.PermManageTeachers))
	ag.DELETE("/delete/:id", api.destroy, requirePerm(auth.PermManageTeachers))
}

func (api *teacherAPI) register(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	var data teacher.NewTeacher
	if err = api.bind(ctx, &data); err != nil {
		return err
	}
	up, err := api.stageImage(ctx, teacherEntity, true, nil)
	if err != nil {
		return err
	}
	defer discard(up)

	t, err := api.svc.Register(ctx.Request().Context(), p, data, filename(up))
	if err != nil {
		return errors.Wrap(err, "registering teacher")
	}
	api.commitImage(up, teacherEntity, "")
	return respond(ctx, http.StatusCreated, "Teacher is registered Successfully", t)
}

func (api *teacherAPI) login(ctx echo.Context) error {
	var data LoginRequest
	if err := api.bind(ctx, &data); err != nil {
		return err
	}
	t, err := api.svc.Authenticate(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		return trapLoginErr(err)
	}
	return api.baseAPI.login(ctx, t.Principal(), t.TeacherImg)
}

func (api *teacherAPI) query(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	var filter teacher.QueryFilter
	if err = ctx.Bind(&filter); err != nil {
		return err
	}
	teachers, err := api.svc.Query(ctx.Request().Context(), p, filter)
	if err != nil {
		return errors.Wrap(err, "querying teachers")
	}
	return respond(ctx, http.StatusOK, "", teachers)
}

func (api *teacherAPI) retrieveSelf(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	t, err := api.svc.Get(ctx.Request().Context(), p, p.ID)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "", t)
}

func (api *teacherAPI) retrieve(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	t, err := api.svc.Get(ctx.Request().Context(), p, ctx.Param("id"))
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "", t)
}

func (api *teacherAPI) update(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	var data teacher.UpdateTeacher
	if err = api.bind(ctx, &data); err != nil {
		return err
	}
	c, id := ctx.Request().Context(), ctx.Param("id")
	current, err := api.svc.Get(c, p, id)
	if err != nil {
		return err
	}
	up, err := api.stageImage(ctx, teacherEntity, false, nil)
	if err != nil {
		return err
	}
	defer discard(up)

	t, err := api.svc.Update(c, p, id, data, filename(up))
	if err != nil {
		return errors.Wrap(err, "updating teacher")
	}
	api.commitImage(up, teacherEntity, current.TeacherImg)
	return respond(ctx, http.StatusOK, "Teacher updated", t)
}

func (api *teacherAPI) destroy(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	t, err := api.svc.Delete(ctx.Request().Context(), p, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "deleting teacher")
	}
	if t.TeacherImg != "" {
		api.removeImage(teacherEntity, t.TeacherImg)
	}
	return respond(ctx, http.StatusOK, "Teacher deleted", nil)
}
