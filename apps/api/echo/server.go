package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/uwezocare/uwezo/core"
	"github.com/uwezocare/uwezo/core/assessment"
	"github.com/uwezocare/uwezo/core/assignment"
	"github.com/uwezocare/uwezo/core/dashboard"
	"github.com/uwezocare/uwezo/core/participant"
	"github.com/uwezocare/uwezo/core/user"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool

		UserSvc        *user.Service
		ParticipantSvc *participant.Service
		AssignmentSvc  *assignment.Service
		AssessmentSvc  *assessment.Service
		DashboardSvc   *dashboard.Service

		Logger core.Logger

		// Shutdown is called when an unrecoverable integrity error is
		// caught so main can stop the process gracefully.
		Shutdown func()
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Shutdown)
	s.app.Debug = core.Conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerUserAPI(v1, jwt, s.opts.UserSvc)
	registerParticipantAPI(v1, jwt, s.opts.ParticipantSvc)
	registerAssignmentAPI(v1, jwt, s.opts.AssignmentSvc)
	registerAssessmentAPI(v1, jwt, s.opts.AssessmentSvc)
	registerDashboardAPI(v1, jwt, s.opts.DashboardSvc)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Address))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+core.Conf.AppName+" API!")
}
