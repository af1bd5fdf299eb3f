package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/auth"
	"github.com/trezcool/darasa/core/school"
	"github.com/trezcool/darasa/services/imagestore"
)

const schoolEntity = "school"

type schoolAPI struct {
	baseAPI
	svc *school.Service
}

func registerSchoolAPI(g *echo.Group, jwt echo.MiddlewareFunc, base baseAPI, svc *school.Service) {
	api := schoolAPI{baseAPI: base, svc: svc}

	sg := g.Group("/school")

	// un-authed endpoints
	sg.POST("/register", api.register)
	sg.POST("/login", api.login)
	sg.GET("/all", api.list)

	// authed endpoints
	ag := sg.Group("", jwt, requirePerm(auth.PermManageSchool))
	ag.PUT("/update", api.update)
	ag.GET("/fetch-single", api.retrieve)
}

func timestamped(name string) string {
	return imagestore.TimestampedName(name, nowFunc())
}

func (api *schoolAPI) register(ctx echo.Context) error {
	var data school.NewSchool
	if err := api.bind(ctx, &data); err != nil {
		return err
	}
	up, err := api.stageImage(ctx, schoolEntity, true, timestamped)
	if err != nil {
		return err
	}
	defer discard(up)

	s, err := api.svc.Register(ctx.Request().Context(), data, filename(up))
	if err != nil {
		return errors.Wrap(err, "registering school")
	}
	api.commitImage(up, schoolEntity, "")
	return respond(ctx, http.StatusCreated, "School is registered Successfully", s)
}

func (api *schoolAPI) login(ctx echo.Context) error {
	var data LoginRequest
	if err := api.bind(ctx, &data); err != nil {
		return err
	}
	s, err := api.svc.Authenticate(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		return trapLoginErr(err)
	}
	return api.baseAPI.login(ctx, s.Principal(), s.SchoolImg)
}

func (api *schoolAPI) list(ctx echo.Context) error {
	schools, err := api.svc.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing schools")
	}
	return respond(ctx, http.StatusOK, "Data Found", schools)
}

func (api *schoolAPI) retrieve(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	s, err := api.svc.Get(ctx.Request().Context(), p.SchoolID)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "", s)
}

func (api *schoolAPI) update(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	var data school.UpdateSchool
	if err = api.bind(ctx, &data); err != nil {
		return err
	}
	c := ctx.Request().Context()
	current, err := api.svc.Get(c, p.SchoolID)
	if err != nil {
		return err
	}
	up, err := api.stageImage(ctx, schoolEntity, false, timestamped)
	if err != nil {
		return err
	}
	defer discard(up)

	s, err := api.svc.Update(c, p.SchoolID, data, filename(up))
	if err != nil {
		return errors.Wrap(err, "updating school")
	}
	api.commitImage(up, schoolEntity, current.SchoolImg)
	return respond(ctx, http.StatusOK, "School updated", s)
}
