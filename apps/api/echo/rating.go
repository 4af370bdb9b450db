package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/luct/reports/core"
	"github.com/luct/reports/core/rating"
)

var msgInvalidData = errInvalidData.Error()

type ratingApi struct {
	*server
	svc *rating.Service
}

func registerRatingAPI(app *echo.Echo, auth echo.MiddlewareFunc, s *server) {
	api := ratingApi{server: s, svc: s.deps.RatingSvc}

	app.POST("/student_ratings", api.submit, auth, requireRoles(rating.SubmitRoles...))
	app.GET("/student_ratings", api.summaries, auth)
	app.GET("/student_my_ratings", api.mine, auth, requireRoles(rating.SubmitRoles...))
	app.POST("/lecturer_rate_student", api.rateStudent, auth, requireRoles(rating.RateStudentRoles...))
}

// Handlers

func (api *ratingApi) submit(ctx echo.Context) error {
	var data rating.Batch
	if err := api.bindAndValidate(ctx, &data, msgInvalidData); err != nil {
		return err
	}
	if _, err := api.svc.SubmitBatch(ctx.Request().Context(), getContextIdentity(ctx), data); err != nil {
		return errors.Wrap(err, "submitting ratings")
	}
	return ctx.JSON(http.StatusOK, messageResponse{Message: "Ratings saved successfully"})
}

func (api *ratingApi) summaries(ctx echo.Context) error {
	var filter rating.AggregateFilter
	if err := ctx.Bind(&filter); err != nil {
		return core.NewValidationError(errInvalidData)
	}
	summaries, err := api.svc.AggregateByLecturer(ctx.Request().Context(), getContextIdentity(ctx), filter)
	if err != nil {
		return errors.Wrap(err, "aggregating ratings")
	}
	return ctx.JSON(http.StatusOK, summaries)
}

func (api *ratingApi) mine(ctx echo.Context) error {
	ratings, err := api.svc.ListForStudent(ctx.Request().Context(), getContextIdentity(ctx))
	if err != nil {
		return errors.Wrap(err, "listing ratings")
	}
	return ctx.JSON(http.StatusOK, ratings)
}

func (api *ratingApi) rateStudent(ctx echo.Context) error {
	var data rating.NewStudentRating
	if err := api.bindAndValidate(ctx, &data, msgInvalidData); err != nil {
		return err
	}
	if _, err := api.svc.RateStudent(ctx.Request().Context(), getContextIdentity(ctx), data); err != nil {
		return errors.Wrap(err, "rating student")
	}
	return ctx.JSON(http.StatusOK, messageResponse{Message: "Rating saved successfully"})
}
