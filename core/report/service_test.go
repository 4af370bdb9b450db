package report_test

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luct/reports/core"
	"github.com/luct/reports/core/report"
	"github.com/luct/reports/core/user"
	"github.com/luct/reports/services/email"
	"github.com/luct/reports/services/logger"
	"github.com/luct/reports/storage/database/inmem"
	"github.com/luct/reports/tests"
)

type failingMail struct{}

func (failingMail) Send(context.Context, core.EmailMessage) error {
	return errors.New("smtp unavailable")
}

type fixture struct {
	svc     *report.Service
	mailSvc *emailsvc.ConsoleService
	logs    *bytes.Buffer

	lecturer, other, student, prl, pl user.User
}

func newFixture(t *testing.T, mailSvc core.EmailService) *fixture {
	t.Helper()

	conf := core.NewTestConfig()
	db := inmemdb.Open()
	users := inmemdb.NewUserRepository(db)
	f := &fixture{logs: new(bytes.Buffer)}
	if mailSvc == nil {
		f.mailSvc = emailsvc.NewConsoleService(conf, nil)
		mailSvc = f.mailSvc
	}
	logger := logsvc.NewRollbarLogger(log.New(f.logs, "", 0), conf)
	f.svc = report.NewService(inmemdb.NewReportRepository(db), user.NewService(users), mailSvc, logger, conf.EmailTimeout)

	f.lecturer = testutil.CreateUser(t, users, "Lineo", "lineo@luct.ac.ls", user.RoleLecturer)
	f.other = testutil.CreateUser(t, users, "Tumelo", "tumelo@luct.ac.ls", user.RoleLecturer)
	f.student = testutil.CreateUser(t, users, "Palesa", "palesa@luct.ac.ls", user.RoleStudent)
	f.prl = testutil.CreateUser(t, users, "Mpho", "mpho@luct.ac.ls", user.RolePrincipalLecturer)
	f.pl = testutil.CreateUser(t, users, "Refiloe", "refiloe@luct.ac.ls", user.RoleProgramLeader)
	return f
}

func newReport(class string) report.NewReport {
	return report.NewReport{
		FacultyName:     "FICT",
		ClassName:       class,
		WeekOfReporting: "Week 6",
		LectureDate:     "2026-03-02",
		CourseName:      "Web Application Development",
		CourseCode:      "BIWA2110",
		LecturerName:    "Someone Else",
	}
}

func TestService_Submit(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	for _, usr := range []user.User{f.student, f.prl, f.pl} {
		_, err := f.svc.Submit(ctx, usr.Identity(), newReport("BSCSM Y2"))
		assert.Equal(t, core.ErrForbidden, err, usr.Role)
	}
	_, err := f.svc.Submit(ctx, user.Identity{}, newReport("BSCSM Y2"))
	assert.Equal(t, core.ErrForbidden, err)

	rpt, err := f.svc.Submit(ctx, f.lecturer.Identity(), newReport("BSCSM Y2"))
	require.NoError(t, err)
	assert.NotZero(t, rpt.ID)
	assert.Equal(t, f.lecturer.ID, rpt.LecturerID)
	assert.Equal(t, "Lineo", rpt.LecturerName)
	assert.Equal(t, "UTC", rpt.CreatedAt.Location().String())
}

func TestService_List(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	r1, err := f.svc.Submit(ctx, f.lecturer.Identity(), newReport("BSCSM Y2"))
	require.NoError(t, err)
	r2, err := f.svc.Submit(ctx, f.other.Identity(), newReport("BSCIT Y1"))
	require.NoError(t, err)

	own, err := f.svc.List(ctx, f.lecturer.Identity())
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, r1.ID, own[0].ID)

	for _, usr := range []user.User{f.student, f.prl, f.pl} {
		all, err := f.svc.List(ctx, usr.Identity())
		require.NoError(t, err)
		assert.Len(t, all, 2, usr.Role)
	}

	classes, err := f.svc.ListClasses(ctx, f.other.Identity())
	require.NoError(t, err)
	assert.Equal(t, []report.Class{{ClassName: "BSCIT Y1", CourseName: r2.CourseName, LecturerName: "Tumelo"}}, classes)

	_, err = f.svc.List(ctx, user.Identity{})
	assert.Equal(t, core.ErrForbidden, err)
}

func TestService_AttachFeedback(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	rpt, err := f.svc.Submit(ctx, f.lecturer.Identity(), newReport("BSCSM Y2"))
	require.NoError(t, err)

	for _, usr := range []user.User{f.lecturer, f.student} {
		_, err = f.svc.AttachFeedback(ctx, usr.Identity(), rpt.ID, "nice")
		assert.Equal(t, core.ErrForbidden, err, usr.Role)
	}
	_, err = f.svc.AttachFeedback(ctx, f.prl.Identity(), rpt.ID, " \n ")
	assert.Equal(t, report.ErrEmptyFeedback, err)
	_, err = f.svc.AttachFeedback(ctx, f.prl.Identity(), rpt.ID+100, "nice")
	assert.Equal(t, report.ErrNotFound, err)
	assert.Empty(t, f.mailSvc.Sent())

	got, err := f.svc.AttachFeedback(ctx, f.prl.Identity(), rpt.ID, " First pass ")
	require.NoError(t, err)
	assert.Equal(t, "First pass", *got.Feedback)
	assert.Equal(t, "Mpho", *got.FeedbackBy)

	got, err = f.svc.AttachFeedback(ctx, f.pl.Identity(), rpt.ID, "Second pass")
	require.NoError(t, err)
	assert.Equal(t, "Second pass", *got.Feedback)
	assert.Equal(t, f.pl.ID, *got.FeedbackByID)

	sent := f.mailSvc.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "lineo@luct.ac.ls", sent[1].To[0].Address)
	assert.Equal(t, "Feedback on your BIWA2110 report", sent[1].Subject)
	assert.True(t, strings.HasPrefix(sent[1].Body, "Hello Lineo,"))
	assert.Contains(t, sent[1].Body, "Refiloe left feedback")
	assert.Contains(t, sent[1].Body, "Second pass")
}

func TestService_AttachFeedback_mailFailure(t *testing.T) {
	f := newFixture(t, failingMail{})
	ctx := context.Background()

	rpt, err := f.svc.Submit(ctx, f.lecturer.Identity(), newReport("BSCSM Y2"))
	require.NoError(t, err)

	got, err := f.svc.AttachFeedback(ctx, f.prl.Identity(), rpt.ID, "Good pacing")
	require.NoError(t, err, "a failed notification must not fail the feedback")
	assert.Equal(t, "Good pacing", *got.Feedback)
	assert.Contains(t, f.logs.String(), "smtp unavailable")
}
