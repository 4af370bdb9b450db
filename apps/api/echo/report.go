package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/luct/reports/core/report"
)

var msgRequiredFieldsMissing = "Required fields missing"

type (
	submitReportResponse struct {
		Message  string `json:"message"`
		ReportID int64  `json:"report_id"`
	}

	feedbackRequest struct {
		Feedback string `json:"feedback"`
	}

	feedbackResponse struct {
		Message string        `json:"message"`
		Report  report.Report `json:"report"`
	}
)

type reportApi struct {
	*server
	svc *report.Service
}

func registerReportAPI(app *echo.Echo, auth echo.MiddlewareFunc, s *server) {
	api := reportApi{server: s, svc: s.deps.ReportSvc}

	app.POST("/lecturer_reports", api.submit, auth, requireRoles(report.SubmitRoles...))
	app.GET("/lecturer_reports", api.list, auth)
	app.GET("/classes", api.classes, auth)
	app.POST("/lecturer_feedback/:id", api.feedback, auth, requireRoles(report.FeedbackRoles...))
}

// Handlers

func (api *reportApi) submit(ctx echo.Context) error {
	var data report.NewReport
	if err := api.bindAndValidate(ctx, &data, msgRequiredFieldsMissing); err != nil {
		return err
	}
	rpt, err := api.svc.Submit(ctx.Request().Context(), getContextIdentity(ctx), data)
	if err != nil {
		return errors.Wrap(err, "submitting report")
	}
	return ctx.JSON(http.StatusOK, submitReportResponse{Message: "Report submitted successfully", ReportID: rpt.ID})
}

func (api *reportApi) list(ctx echo.Context) error {
	reports, err := api.svc.List(ctx.Request().Context(), getContextIdentity(ctx))
	if err != nil {
		return errors.Wrap(err, "listing reports")
	}
	return ctx.JSON(http.StatusOK, reports)
}

func (api *reportApi) classes(ctx echo.Context) error {
	classes, err := api.svc.ListClasses(ctx.Request().Context(), getContextIdentity(ctx))
	if err != nil {
		return errors.Wrap(err, "listing classes")
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *reportApi) feedback(ctx echo.Context) error {
	reportID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || reportID <= 0 {
		return report.ErrNotFound
	}

	var data feedbackRequest
	if err := bindBody(ctx, &data); err != nil {
		return err
	}

	rpt, err := api.svc.AttachFeedback(ctx.Request().Context(), getContextIdentity(ctx), reportID, data.Feedback)
	if err != nil {
		return errors.Wrap(err, "attaching feedback")
	}
	return ctx.JSON(http.StatusOK, feedbackResponse{Message: "Feedback saved successfully", Report: rpt})
}
