package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/darasa/apps/api/di"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/services/imagestore"
	"github.com/trezcool/darasa/services/metrics"
)

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		Services       *di.Services
		Images         *imagestore.Store
		Metrics        *metrics.Prometheus // optional
		Validate       *validator.Validate
		Translator     ut.Translator
		DisableReqLogs bool
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	if s.deps.Metrics != nil {
		s.app.Use(s.deps.Metrics.Middleware())
		s.app.GET("/metrics", echo.WrapHandler(s.deps.Metrics.Handler()))
	}
	s.app.Use(middleware.BodyLimit("12M"))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	g := s.app.Group("/api")
	g.Static("/uploads", s.deps.Images.Dir())

	authn := NewAuthenticator(conf)
	jwt := authn.Middleware()
	base := baseAPI{
		validate: s.deps.Validate,
		auth:     authn,
		images:   s.deps.Images,
		logger:   s.deps.Logger,
	}
	svcs := s.deps.Services

	registerSchoolAPI(g, jwt, base, svcs.Schools)
	registerClassAPI(g, jwt, base, svcs.Classes)
	registerSubjectAPI(g, jwt, base, svcs.Subjects)
	registerTeacherAPI(g, jwt, base, svcs.Teachers)
	registerStudentAPI(g, jwt, base, svcs.Students)
	registerScheduleAPI(g, jwt, base, svcs.Schedules, svcs.Teachers, svcs.Subjects)
	registerExamAPI(g, jwt, base, svcs.Exams)
	registerAttendanceAPI(g, jwt, base, svcs.Attendances)
	registerNoticeAPI(g, jwt, base, svcs.Notices)
}

// Start serves until the server is stopped; failures are reported on Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

// Shutdown stops accepting requests and waits for the outstanding ones, up to `ctx`.
func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Darasa API!")
}
