package echoapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/luct/reports/core"
	"github.com/luct/reports/core/assignment"
	"github.com/luct/reports/core/rating"
	"github.com/luct/reports/core/report"
	"github.com/luct/reports/core/user"
)

type (
	Deps struct {
		Conf           *core.Config
		Logger         core.Logger
		Tokens         *user.TokenIssuer
		UserSvc        *user.Service
		ReportSvc      *report.Service
		RatingSvc      *rating.Service
		AssignmentSvc  *assignment.Service
		DisableReqLogs bool
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		address    string
		shutdown   chan os.Signal
		deps       *Deps
		app        *echo.Echo
		validate   *validator.Validate
		translator ut.Translator
	}
)

var _ Server = (*server)(nil)

// NewServer builds the HTTP API. A fatal error sends SIGTERM on shutdown, when it is not nil.
func NewServer(address string, shutdown chan os.Signal, deps *Deps) Server {
	s := &server{
		address:    address,
		shutdown:   shutdown,
		deps:       deps,
		app:        echo.New(),
		validate:   validator.New(),
		translator: core.NewTranslator(),
	}
	core.InitValidators(s.validate, s.translator)
	user.InitValidators(s.validate, s.translator)
	report.InitValidators(s.validate, s.translator)
	s.setup()
	return s
}

func (s *server) signalShutdown() {
	if s.shutdown != nil {
		s.shutdown <- syscall.SIGTERM
	}
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Debug = conf.Debug
	s.app.Server.ReadTimeout = conf.Server.ReadTimeout
	s.app.Server.WriteTimeout = conf.Server.WriteTimeout

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: conf.Server.AllowedOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.translator, s.signalShutdown)

	s.app.GET("/", home(conf.AppName))

	auth := authMiddleware(s.deps.Tokens)
	registerUserAPI(s.app, auth, s)
	registerReportAPI(s.app, auth, s)
	registerRatingAPI(s.app, auth, s)
	registerAssignmentAPI(s.app, auth, s)
}

func (s *server) Start() error {
	return s.app.Start(s.address)
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

// bindBody decodes the JSON request body into data. Query and path params are never bound.
// An empty body leaves data untouched.
func bindBody(ctx echo.Context, data interface{}) error {
	req := ctx.Request()
	if req.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(req.Body).Decode(data); err != nil && err != io.EOF {
		return core.NewValidationError(errInvalidData)
	}
	return nil
}

// bindAndValidate binds the request body to data and validates it.
// Validation failures are reported as a core.ValidationError carrying msg.
func (s *server) bindAndValidate(ctx echo.Context, data validatable, msg string) error {
	if err := bindBody(ctx, data); err != nil {
		return err
	}
	if err := data.Validate(s.validate); err != nil {
		if vErrs, ok := err.(validator.ValidationErrors); ok {
			return core.NewValidationError(newMessage(msg), core.TranslateFieldErrors(vErrs, s.translator)...)
		}
		return err
	}
	return nil
}

type validatable interface {
	Validate(validate *validator.Validate) error
}

func home(appName string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		return ctx.String(http.StatusOK, "Welcome to the "+appName+" API!")
	}
}
