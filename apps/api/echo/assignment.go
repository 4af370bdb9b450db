package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/luct/reports/core/assignment"
)

type assignResponse struct {
	Message    string                `json:"message"`
	Assignment assignment.Assignment `json:"assignment"`
}

type assignmentApi struct {
	*server
	svc *assignment.Service
}

func registerAssignmentAPI(app *echo.Echo, auth echo.MiddlewareFunc, s *server) {
	api := assignmentApi{server: s, svc: s.deps.AssignmentSvc}

	app.POST("/assign_course", api.assign, auth, requireRoles(assignment.AssignRoles...))
	app.GET("/assignments", api.list, auth)
}

// Handlers

func (api *assignmentApi) assign(ctx echo.Context) error {
	var data assignment.NewAssignment
	if err := api.bindAndValidate(ctx, &data, msgAllFieldsRequired); err != nil {
		return err
	}
	a, err := api.svc.Assign(ctx.Request().Context(), getContextIdentity(ctx), data)
	if err != nil {
		return errors.Wrap(err, "assigning course")
	}
	return ctx.JSON(http.StatusOK, assignResponse{Message: "Course assigned successfully", Assignment: a})
}

func (api *assignmentApi) list(ctx echo.Context) error {
	assignments, err := api.svc.List(ctx.Request().Context(), getContextIdentity(ctx))
	if err != nil {
		return errors.Wrap(err, "listing assignments")
	}
	return ctx.JSON(http.StatusOK, assignments)
}
