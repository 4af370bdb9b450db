package report

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"text/template"
	"time"

	"github.com/luct/reports/core"
	"github.com/luct/reports/core/user"
)

var (
	nowFunc = time.Now // mockable

	SubmitRoles   = []user.Role{user.RoleLecturer}
	FeedbackRoles = user.ReviewerRoles

	// errors
	ErrNotFound      = core.NewNotFoundError("Report not found")
	ErrEmptyFeedback = core.NewValidationError(errors.New("Feedback required"), core.FieldError{Field: "feedback", Error: "feedback is required"})

	feedbackTmpl = template.Must(template.New("feedback").Parse(`Hello {{.Lecturer}},

{{.Reviewer}} left feedback on your report for {{.Report.CourseCode}} {{.Report.CourseName}} ({{.Report.ClassName}}, {{.Report.WeekOfReporting}}):

{{.Feedback}}
`))
)

type (
	Repository interface {
		CreateReport(ctx context.Context, rpt Report) (Report, error)
		// QueryReports returns reports newest first; ties are broken by descending id.
		QueryReports(ctx context.Context, filter Filter) ([]Report, error)
		// QueryClasses returns distinct classes ordered by class, course and lecturer name.
		QueryClasses(ctx context.Context, filter Filter) ([]Class, error)
		// SetFeedback overwrites the feedback of report f.ReportID in a single write.
		// It fails with ErrNotFound if there is no such report.
		SetFeedback(ctx context.Context, f Feedback) (Report, error)
	}

	// UserGetter finds the lecturer to notify about feedback.
	UserGetter interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	Service struct {
		repo        Repository
		users       UserGetter
		mailSvc     core.EmailService
		log         core.Logger
		mailTimeout time.Duration
	}
)

func NewService(repo Repository, users UserGetter, mailSvc core.EmailService, log core.Logger, mailTimeout time.Duration) *Service {
	return &Service{
		repo:        repo,
		users:       users,
		mailSvc:     mailSvc,
		log:         log,
		mailTimeout: mailTimeout,
	}
}

// Submit files a validated NewReport on behalf of the lecturer id.
func (svc *Service) Submit(ctx context.Context, id user.Identity, nr NewReport) (Report, error) {
	if err := id.Require(SubmitRoles...); err != nil {
		return Report{}, err
	}
	return svc.repo.CreateReport(ctx, nr.report(id, nowFunc().UTC()))
}

// List returns the reports visible to id: lecturers only see their own.
func (svc *Service) List(ctx context.Context, id user.Identity) ([]Report, error) {
	if err := id.Require(); err != nil {
		return nil, err
	}
	return svc.repo.QueryReports(ctx, scope(id))
}

func (svc *Service) ListClasses(ctx context.Context, id user.Identity) ([]Class, error) {
	if err := id.Require(); err != nil {
		return nil, err
	}
	return svc.repo.QueryClasses(ctx, scope(id))
}

// AttachFeedback stores a reviewer's feedback on a report, replacing any earlier feedback,
// then notifies the report's lecturer.
func (svc *Service) AttachFeedback(ctx context.Context, id user.Identity, reportID int64, text string) (Report, error) {
	if err := id.Require(FeedbackRoles...); err != nil {
		return Report{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Report{}, ErrEmptyFeedback
	}

	rpt, err := svc.repo.SetFeedback(ctx, Feedback{
		ReportID:     reportID,
		Text:         text,
		ReviewerID:   id.UserID,
		ReviewerName: id.Name,
		At:           nowFunc().UTC(),
	})
	if err != nil {
		return Report{}, err
	}

	svc.notifyLecturer(ctx, rpt)
	return rpt, nil
}

// notifyLecturer emails the feedback of rpt to its lecturer. Failures are logged only.
func (svc *Service) notifyLecturer(ctx context.Context, rpt Report) {
	if svc.mailSvc == nil || rpt.LecturerID == "" || rpt.Feedback == nil {
		return
	}

	lecturer, err := svc.users.GetByID(ctx, rpt.LecturerID)
	if err != nil {
		svc.log.Warn(fmt.Sprintf("feedback notification: report %d: lecturer lookup: %v", rpt.ID, err), err)
		return
	}

	var reviewer string
	if rpt.FeedbackBy != nil {
		reviewer = *rpt.FeedbackBy
	}
	body := new(strings.Builder)
	err = feedbackTmpl.Execute(body, map[string]interface{}{
		"Lecturer": lecturer.Name,
		"Reviewer": reviewer,
		"Report":   rpt,
		"Feedback": *rpt.Feedback,
	})
	if err != nil {
		svc.log.Error(fmt.Sprintf("feedback notification: report %d: rendering: %v", rpt.ID, err), err)
		return
	}

	if svc.mailTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, svc.mailTimeout)
		defer cancel()
	}

	msg := core.EmailMessage{
		To:      []mail.Address{{Name: lecturer.Name, Address: lecturer.Email}},
		Subject: fmt.Sprintf("Feedback on your %s report", rpt.CourseCode),
		Body:    body.String(),
	}
	if err := svc.mailSvc.Send(ctx, msg); err != nil {
		svc.log.Error(fmt.Sprintf("feedback notification: report %d: sending: %v", rpt.ID, err), err)
	}
}

func scope(id user.Identity) Filter {
	if id.Is(user.RoleLecturer) {
		return Filter{LecturerID: id.UserID}
	}
	return Filter{}
}
