package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/luct/reports/core"
	"github.com/luct/reports/core/user"
)

var (
	msgAllFieldsRequired = "All fields required"
	errUserNotFound      = core.NewAuthError("User not found")
)

type (
	loginResponse struct {
		Message string       `json:"message"`
		Token   string       `json:"token"`
		User    user.Summary `json:"user"`
	}

	messageResponse struct {
		Message string `json:"message"`
	}
)

type userApi struct {
	*server
	svc    *user.Service
	tokens *user.TokenIssuer
}

func registerUserAPI(app *echo.Echo, auth echo.MiddlewareFunc, s *server) {
	api := userApi{server: s, svc: s.deps.UserSvc, tokens: s.deps.Tokens}

	app.POST("/register", api.register)
	app.POST("/login", api.login)
	app.GET("/students", api.students, auth, requireRoles(user.StaffRoles...))
}

// Handlers

func (api *userApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := api.bindAndValidate(ctx, &data, msgAllFieldsRequired); err != nil {
		return err
	}
	if _, err := api.svc.Register(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "registering user")
	}
	return ctx.JSON(http.StatusOK, messageResponse{Message: "User registered successfully!"})
}

func (api *userApi) login(ctx echo.Context) error {
	var data user.Credentials
	if err := api.bindAndValidate(ctx, &data, msgAllFieldsRequired); err != nil {
		return err
	}

	usr, err := api.svc.Authenticate(ctx.Request().Context(), data)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errUserNotFound
		}
		return errors.Wrap(err, "authenticating")
	}
	token, err := api.tokens.Issue(usr)
	if err != nil {
		return errors.Wrap(err, "issuing token")
	}

	return ctx.JSON(http.StatusOK, loginResponse{Message: "Login successful", Token: token, User: usr.Summary()})
}

func (api *userApi) students(ctx echo.Context) error {
	users, err := api.svc.QueryByRole(ctx.Request().Context(), getContextIdentity(ctx), user.RoleStudent)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	summaries := make([]user.Summary, 0, len(users))
	for _, usr := range users {
		summaries = append(summaries, usr.Summary())
	}
	return ctx.JSON(http.StatusOK, summaries)
}
