package echoapi

import (
	"context"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/baitusshuffah20-wq/TPQ-BAITUS-SHUFFAH-sub003/core"
	"github.com/baitusshuffah20-wq/TPQ-BAITUS-SHUFFAH-sub003/core/insights"
)

type (
	Options struct {
		Addr           string
		DisableReqLogs bool

		Conf   *core.Config
		Logger core.Logger

		StudentSvc *insights.StudentService
		GroupSvc   *insights.GroupService
		SystemSvc  *insights.SystemService
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts     *Options
		app      *echo.Echo
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options, shutdown chan os.Signal) Server {
	s := &server{
		opts:     opts,
		app:      echo.New(),
		shutdown: shutdown,
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwtConf := newJWTConfig(conf)
	jwt := middleware.JWTWithConfig(jwtConf)

	registerAuthAPI(v1, conf)
	registerInsightsAPI(v1, jwt, s.opts.StudentSvc, s.opts.GroupSvc, s.opts.SystemSvc)
}

// signalShutdown sends the app a SIGTERM for a graceful shutdown.
func (s *server) signalShutdown() {
	s.shutdown <- os.Interrupt
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Addr))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to the TPQ Baitus Shuffah Insights API!")
}
