package echoapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/notice"
	"github.com/trezcool/darasa/services/imagestore"
)

const imageField = "image"

var errImageRequired = core.NewValidationError(nil, core.FieldError{Field: imageField, Error: "image is required"})

// Response is the body of every successful request.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data"`
}

func respond(ctx echo.Context, code int, msg string, data interface{}) error {
	return ctx.JSON(code, Response{Success: true, Message: msg, Data: data})
}

type validatable interface {
	Validate(validate *validator.Validate) error
}

// baseAPI holds what every resource API needs.
type baseAPI struct {
	validate *validator.Validate
	auth     *Authenticator
	images   *imagestore.Store
	logger   core.Logger
}

// bind decodes the request into `data` and validates it.
func (api *baseAPI) bind(ctx echo.Context, data validatable) error {
	if err := ctx.Bind(data); err != nil {
		return err
	}
	return data.Validate(api.validate)
}

// stageImage stages the uploaded image of the request, if any.
// `name` derives the stored filename from the uploaded one; nil keeps it.
func (api *baseAPI) stageImage(ctx echo.Context, entity string, required bool, name func(string) string) (*imagestore.Upload, error) {
	fh, err := ctx.FormFile(imageField)
	if err != nil {
		if errors.Cause(err) == http.ErrMissingFile || errors.Cause(err) == http.ErrNotMultipart {
			if required {
				return nil, errImageRequired
			}
			return nil, nil
		}
		return nil, errors.Wrap(err, "reading image")
	}
	file, err := fh.Open()
	if err != nil {
		return nil, errors.Wrap(err, "opening image")
	}
	defer func() { _ = file.Close() }()

	filename := fh.Filename
	if name != nil {
		filename = name(filename)
	}
	return api.images.Stage(entity, filename, file)
}

// commitImage makes the staged image visible and removes the one it replaces.
// The record already points at the new image, so failures are only logged.
func (api *baseAPI) commitImage(up *imagestore.Upload, entity, replaced string) {
	if up == nil {
		return
	}
	if err := up.Commit(); err != nil {
		api.logger.Error("committing image", err, map[string]interface{}{"entity": entity, "filename": up.Filename})
		return
	}
	if replaced != "" && replaced != up.Filename {
		api.removeImage(entity, replaced)
	}
}

func (api *baseAPI) removeImage(entity, filename string) {
	if err := api.images.Remove(entity, filename); err != nil {
		api.logger.Error("removing image", err, map[string]interface{}{"entity": entity, "filename": filename})
	}
}

func discard(up *imagestore.Upload) {
	if up != nil {
		up.Discard()
	}
}

func filename(up *imagestore.Upload) string {
	if up == nil {
		return ""
	}
	return up.Filename
}

// bindNoticeFilter reads the notice listing filters from the query string.
// Malformed numbers and booleans are ignored.
func bindNoticeFilter(ctx echo.Context) notice.QueryFilter {
	var filter notice.QueryFilter
	data := ctx.QueryParams()
	if len(data) == 0 {
		return filter
	}

	filter.Audience = notice.Audience(data.Get("audience"))
	filter.Search = data.Get("search")
	if val := strings.TrimSpace(data.Get("important")); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			filter.Important = &b
		}
	}
	filter.Page, _ = strconv.Atoi(data.Get("page"))
	filter.Limit, _ = strconv.Atoi(data.Get("limit"))
	return filter
}
