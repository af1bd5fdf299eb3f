package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/auth"
	"github.com/trezcool/darasa/core/student"
)

const studentEntity = "student"

type studentAPI struct {
	baseAPI
	svc *student.Service
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, base baseAPI, svc *student.Service) {
	api := studentAPI{baseAPI: base, svc: svc}

	sg := g.Group("/student")
	sg.POST("/login", api.login)

	ag := sg.Group("", jwt)
	ag.POST("/register", api.register, requirePerm(auth.PermManageStudents))
	ag.GET("/fetch-with-query", api.query, requirePerm(auth.PermViewStudents))
	ag.GET("/fetch-single", api.retrieveSelf, requireRole(auth.RoleStudent))
	ag.GET("/fetch/:id", api.retrieve, requirePerm(auth.PermViewStudents))
	ag.PUT("/update/:id", api.update, requirePerm(auth.PermManageStudents))
	ag.DELETE("/delete/:id", api.destroy, requirePerm(auth.PermManageStudents))
}

func (api *studentAPI) register(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	var data student.NewStudent
	if err = api.bind(ctx, &data); err != nil {
		return err
	}
	up, err := api.stageImage(ctx, studentEntity, true, nil)
	if err != nil {
		return err
	}
	defer discard(up)

	s, err := api.svc.Register(ctx.Request().Context(), p, data, filename(up))
	if err != nil {
		return errors.Wrap(err, "registering student")
	}
	api.commitImage(up, studentEntity, "")
	return respond(ctx, http.StatusCreated, "Student is registered Successfully", s)
}

func (api *studentAPI) login(ctx echo.Context) error {
	var data LoginRequest
	if err := api.bind(ctx, &data); err != nil {
		return err
	}
	s, err := api.svc.Authenticate(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		return trapLoginErr(err)
	}
	return api.baseAPI.login(ctx, s.Principal(), s.StudentImg)
}

func (api *studentAPI) query(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	var filter student.QueryFilter
	if err = ctx.Bind(&filter); err != nil {
		return err
	}
	students, err := api.svc.Query(ctx.Request().Context(), p, filter)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return respond(ctx, http.StatusOK, "", students)
}

func (api *studentAPI) retrieveSelf(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	s, err := api.svc.Get(ctx.Request().Context(), p, p.ID)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "", s)
}

func (api *studentAPI) retrieve(ctx echo.Context) error {
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

func (api *studentAPI) update(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	var data student.UpdateStudent
	if err = api.bind(ctx, &data); err != nil {
		return err
	}
	c, id := ctx.Request().Context(), ctx.Param("id")
	current, err := api.svc.Get(c, p, id)
	if err != nil {
		return err
	}
	up, err := api.stageImage(ctx, studentEntity, false, nil)
	if err != nil {
		return err
	}
	defer discard(up)

	s, err := api.svc.Update(c, p, id, data, filename(up))
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	api.commitImage(up, studentEntity, current.StudentImg)
	return respond(ctx, http.StatusOK, "Student updated", s)
}

func (api *studentAPI) destroy(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	s, err := api.svc.Delete(ctx.Request().Context(), p, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	if s.StudentImg != "" {
		api.removeImage(studentEntity, s.StudentImg)
	}
	return respond(ctx, http.StatusOK, "Student deleted", nil)
}
