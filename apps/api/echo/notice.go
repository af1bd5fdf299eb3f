package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/auth"
	"github.com/trezcool/darasa/core/notice"
)

type noticeAPI struct {
	baseAPI
	svc *notice.Service
}

func registerNoticeAPI(g *echo.Group, jwt echo.MiddlewareFunc, base baseAPI, svc *notice.Service) {
	api := noticeAPI{baseAPI: base, svc: svc}

	ng := g.Group("/notice", jwt)
	ng.POST("/create", api.create, requirePerm(auth.PermPostNotices))
	ng.GET("/all", api.list, requirePerm(auth.PermViewNotices))
	ng.GET("/important", api.important, requirePerm(auth.PermViewNotices))
	ng.GET("/fetch/:id", api.retrieve, requirePerm(auth.PermViewNotices))
	ng.PUT("/update/:id", api.update, requirePerm(auth.PermPostNotices))
	ng.DELETE("/delete/:id", api.destroy, requirePerm(auth.PermPostNotices))
}

func (api *noticeAPI) create(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	var data notice.NewNotice
	if err = api.bind(ctx, &data); err != nil {
		return err
	}
	n, err := api.svc.Create(ctx.Request().Context(), p, data)
	if err != nil {
		return errors.Wrap(err, "creating notice")
	}
	return respond(ctx, http.StatusCreated, "Notice created", n)
}

func (api *noticeAPI) list(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	page, err := api.svc.List(ctx.Request().Context(), p, bindNoticeFilter(ctx))
	if err != nil {
		return errors.Wrap(err, "listing notices")
	}
	return respond(ctx, http.StatusOK, "", page)
}

func (api *noticeAPI) important(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	notices, err := api.svc.Important(ctx.Request().Context(), p)
	if err != nil {
		return errors.Wrap(err, "listing important notices")
	}
	return respond(ctx, http.StatusOK, "", notices)
}

func (api *noticeAPI) retrieve(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	n, err := api.svc.Get(ctx.Request().Context(), p, ctx.Param("id"))
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "", n)
}

func (api *noticeAPI) update(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	var data notice.UpdateNotice
	if err = api.bind(ctx, &data); err != nil {
		return err
	}
	n, err := api.svc.Update(ctx.Request().Context(), p, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating notice")
	}
	return respond(ctx, http.StatusOK, "Notice updated", n)
}

func (api *noticeAPI) destroy(ctx echo.Context) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), p, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting notice")
	}
	return respond(ctx, http.StatusOK, "Notice deleted", nil)
}
