// Package storagetest holds the behaviour every repository implementation must share.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luct/reports/core/assignment"
	"github.com/luct/reports/core/rating"
	"github.com/luct/reports/core/report"
	"github.com/luct/reports/core/user"
	"github.com/luct/reports/tests"
)

type Repos struct {
	Users       user.Repository
	Reports     report.Repository
	Ratings     rating.Repository
	Assignments assignment.Repository
}

// Run runs the repository suite; newRepos must return empty repositories.
func Run(t *testing.T, newRepos func(t *testing.T) Repos) {
	t.Run("users", func(t *testing.T) { testUsers(t, newRepos(t)) })
	t.Run("reports", func(t *testing.T) { testReports(t, newRepos(t)) })
	t.Run("concurrent feedback", func(t *testing.T) { testConcurrentFeedback(t, newRepos(t)) })
	t.Run("ratings", func(t *testing.T) { testRatings(t, newRepos(t)) })
	t.Run("assignments", func(t *testing.T) { testAssignments(t, newRepos(t)) })
}

func testUsers(t *testing.T, repos Repos) {
	ctx := context.Background()
	usr := testutil.CreateUser(t, repos.Users, "Palesa", "palesa@luct.ac.ls", user.RoleStudent)
	_ = testutil.CreateUser(t, repos.Users, "Ayanda", "ayanda@luct.ac.ls", user.RoleStudent)
	_ = testutil.CreateUser(t, repos.Users, "Lineo", "lineo@luct.ac.ls", user.RoleLecturer)
	assert.NotEmpty(t, usr.ID)

	_, err := repos.Users.CreateUser(ctx, user.User{Name: "Other", Email: "palesa@luct.ac.ls", Role: user.RoleStudent, PasswordHash: []byte("x")})
	assert.Equal(t, user.ErrEmailExists, err)

	got, err := repos.Users.GetUserByEmail(ctx, "palesa@luct.ac.ls")
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)
	assert.NoError(t, got.CheckPassword(testutil.TestPassword))

	got, err = repos.Users.GetUserByID(ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, "Palesa", got.Name)

	_, err = repos.Users.GetUserByID(ctx, "6f1c7f44-0000-4000-8000-000000000000")
	assert.Equal(t, user.ErrNotFound, err)
	_, err = repos.Users.GetUserByID(ctx, "not-a-uuid")
	assert.Equal(t, user.ErrNotFound, err)
	_, err = repos.Users.GetUserByEmail(ctx, "nobody@luct.ac.ls")
	assert.Equal(t, user.ErrNotFound, err)

	students, err := repos.Users.QueryUsersByRole(ctx, user.RoleStudent)
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "Ayanda", students[0].Name)
	assert.Equal(t, "Palesa", students[1].Name)

	got.Name = "Palesa M."
	got.UpdatedAt = time.Now().UTC()
	require.NoError(t, got.SetPassword("N3w!Secret"))
	updated, err := repos.Users.UpdateUser(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, "Palesa M.", updated.Name)
	assert.NoError(t, updated.CheckPassword("N3w!Secret"))
}

func newReport(lecturer user.User, class string, createdAt time.Time) report.Report {
	return report.Report{
		FacultyName:     "FICT",
		ClassName:       class,
		WeekOfReporting: "Week 6",
		LectureDate:     "2026-03-02",
		CourseName:      "Web Application Development",
		CourseCode:      "BIWA2110",
		LecturerID:      lecturer.ID,
		LecturerName:    lecturer.Name,
		StudentsPresent: report.NewCount(40),
		TotalStudents:   report.NewCount(45),
		Venue:           "Hall 6",
		LectureTime:     "08:30",
		TopicTaught:     "Routing",
		CreatedAt:       createdAt,
	}
}

func testReports(t *testing.T, repos Repos) {
	ctx := context.Background()
	l1 := testutil.CreateUser(t, repos.Users, "Lineo", "lineo@luct.ac.ls", user.RoleLecturer)
	l2 := testutil.CreateUser(t, repos.Users, "Tumelo", "tumelo@luct.ac.ls", user.RoleLecturer)
	prl := testutil.CreateUser(t, repos.Users, "Mpho", "mpho@luct.ac.ls", user.RolePrincipalLecturer)

	now := time.Now().UTC().Truncate(time.Second)
	r1, err := repos.Reports.CreateReport(ctx, newReport(l1, "BSCSM Y2", now.Add(-time.Hour)))
	require.NoError(t, err)
	r2, err := repos.Reports.CreateReport(ctx, newReport(l2, "BSCIT Y1", now))
	require.NoError(t, err)
	r3, err := repos.Reports.CreateReport(ctx, newReport(l1, "BSCSM Y2", now))
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02", r1.LectureDate)
	assert.Equal(t, report.NewCount(40), r1.StudentsPresent)
	assert.Nil(t, r1.Feedback)

	all, err := repos.Reports.QueryReports(ctx, report.Filter{})
	require.NoError(t, err)
	assert.Equal(t, []int64{r3.ID, r2.ID, r1.ID}, reportIDs(all))

	own, err := repos.Reports.QueryReports(ctx, report.Filter{LecturerID: l1.ID})
	require.NoError(t, err)
	assert.Equal(t, []int64{r3.ID, r1.ID}, reportIDs(own))

	classes, err := repos.Reports.QueryClasses(ctx, report.Filter{})
	require.NoError(t, err)
	assert.Equal(t, []report.Class{
		{ClassName: "BSCIT Y1", CourseName: "Web Application Development", LecturerName: "Tumelo"},
		{ClassName: "BSCSM Y2", CourseName: "Web Application Development", LecturerName: "Lineo"},
	}, classes)

	at := now.Add(time.Minute)
	rpt, err := repos.Reports.SetFeedback(ctx, report.Feedback{ReportID: r1.ID, Text: "Good pacing", ReviewerID: prl.ID, ReviewerName: prl.Name, At: at})
	require.NoError(t, err)
	require.NotNil(t, rpt.Feedback)
	assert.Equal(t, "Good pacing", *rpt.Feedback)
	assert.Equal(t, "Mpho", *rpt.FeedbackBy)
	assert.Equal(t, prl.ID, *rpt.FeedbackByID)
	assert.True(t, at.Equal(*rpt.FeedbackAt))
	assert.Equal(t, l1.ID, rpt.LecturerID)

	_, err = repos.Reports.SetFeedback(ctx, report.Feedback{ReportID: 999999, Text: "x", ReviewerID: prl.ID, ReviewerName: prl.Name, At: at})
	assert.Equal(t, report.ErrNotFound, err)
}

// testConcurrentFeedback checks that concurrent reviewers never lose a write: the stored
// feedback is exactly one of the submitted values.
func testConcurrentFeedback(t *testing.T, repos Repos) {
	ctx := context.Background()
	lecturer := testutil.CreateUser(t, repos.Users, "Lineo", "lineo@luct.ac.ls", user.RoleLecturer)
	prl := testutil.CreateUser(t, repos.Users, "Mpho", "mpho@luct.ac.ls", user.RolePrincipalLecturer)
	pl := testutil.CreateUser(t, repos.Users, "Refiloe", "refiloe@luct.ac.ls", user.RoleProgramLeader)
	rpt, err := repos.Reports.CreateReport(ctx, newReport(lecturer, "BSCSM Y2", time.Now().UTC()))
	require.NoError(t, err)

	reviewers := []user.User{prl, pl}
	submitted := make(map[string]bool)
	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		reviewer := reviewers[i%2]
		text := fmt.Sprintf("feedback #%d from %s", i, reviewer.Name)
		submitted[text] = true

		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repos.Reports.SetFeedback(ctx, report.Feedback{
				ReportID: rpt.ID, Text: text, ReviewerID: reviewer.ID, ReviewerName: reviewer.Name, At: time.Now().UTC(),
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	reports, err := repos.Reports.QueryReports(ctx, report.Filter{})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	require.NotNil(t, reports[0].Feedback)
	assert.True(t, submitted[*reports[0].Feedback], "unexpected feedback %q", *reports[0].Feedback)
}

func testRatings(t *testing.T, repos Repos) {
	ctx := context.Background()
	s1 := testutil.CreateUser(t, repos.Users, "Palesa", "palesa@luct.ac.ls", user.RoleStudent)
	s2 := testutil.CreateUser(t, repos.Users, "Ayanda", "ayanda@luct.ac.ls", user.RoleStudent)
	l1 := testutil.CreateUser(t, repos.Users, "Lineo", "lineo@luct.ac.ls", user.RoleLecturer)

	now := time.Now().UTC().Truncate(time.Second)
	studentRating := func(s user.User, lecturer string, score int, at time.Time) rating.Rating {
		id := s.ID
		return rating.Rating{StudentID: &id, StudentName: s.Name, LecturerName: lecturer, Rating: score, Direction: rating.StudentRatesLecturer, CreatedAt: at}
	}

	created, err := repos.Ratings.CreateRatings(ctx, []rating.Rating{
		studentRating(s1, "Lineo", 5, now.Add(-time.Minute)),
		studentRating(s1, "Tumelo", 2, now.Add(-time.Minute)),
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.NotZero(t, created[0].ID)

	_, err = repos.Ratings.CreateRatings(ctx, []rating.Rating{studentRating(s2, "Lineo", 3, now)})
	require.NoError(t, err)

	lecturerID := l1.ID
	_, err = repos.Ratings.CreateRatings(ctx, []rating.Rating{{
		StudentName: "Palesa", LecturerID: &lecturerID, LecturerName: "Lineo", Rating: 1, Direction: rating.LecturerRatesStudent, CreatedAt: now,
	}})
	require.NoError(t, err)

	summaries, err := repos.Ratings.AggregateByLecturer(ctx, rating.AggregateFilter{})
	require.NoError(t, err)
	assert.Equal(t, []rating.LecturerSummary{
		{LecturerName: "Lineo", AvgRating: 4, TotalVotes: 2},
		{LecturerName: "Tumelo", AvgRating: 2, TotalVotes: 1},
	}, summaries)

	summaries, err = repos.Ratings.AggregateByLecturer(ctx, rating.AggregateFilter{LecturerName: "Tumelo"})
	require.NoError(t, err)
	assert.Equal(t, []rating.LecturerSummary{{LecturerName: "Tumelo", AvgRating: 2, TotalVotes: 1}}, summaries)

	summaries, err = repos.Ratings.AggregateByLecturer(ctx, rating.AggregateFilter{LecturerName: "Nobody"})
	require.NoError(t, err)
	assert.Empty(t, summaries)

	mine, err := repos.Ratings.QueryRatings(ctx, rating.Filter{StudentID: s1.ID, Direction: rating.StudentRatesLecturer})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, r := range mine {
		assert.Equal(t, "Palesa", r.StudentName)
		assert.Nil(t, r.LecturerID)
	}

	given, err := repos.Ratings.QueryRatings(ctx, rating.Filter{LecturerID: l1.ID})
	require.NoError(t, err)
	require.Len(t, given, 1)
	assert.Equal(t, rating.LecturerRatesStudent, given[0].Direction)
	assert.Nil(t, given[0].StudentID)
}

func testAssignments(t *testing.T, repos Repos) {
	ctx := context.Background()
	pl := testutil.CreateUser(t, repos.Users, "Refiloe", "refiloe@luct.ac.ls", user.RoleProgramLeader)

	now := time.Now().UTC().Truncate(time.Second)
	assign := func(lecturer, course string, at time.Time) assignment.Assignment {
		a, err := repos.Assignments.CreateAssignment(ctx, assignment.Assignment{
			LecturerName: lecturer, CourseName: course, AssignedBy: pl.Name, AssignedByID: pl.ID, AssignedAt: at,
		})
		require.NoError(t, err)
		return a
	}
	a1 := assign("Lineo", "Web Application Development", now.Add(-time.Hour))
	a2 := assign("Tumelo", "Data Communication", now)
	a3 := assign("Lineo", "Web Application Development", now) // duplicates are kept

	all, err := repos.Assignments.QueryAssignments(ctx, assignment.Filter{})
	require.NoError(t, err)
	assert.Equal(t, []int64{a3.ID, a2.ID, a1.ID}, assignmentIDs(all))

	lineo, err := repos.Assignments.QueryAssignments(ctx, assignment.Filter{LecturerName: "Lineo"})
	require.NoError(t, err)
	assert.Equal(t, []int64{a3.ID, a1.ID}, assignmentIDs(lineo))
	assert.Equal(t, "Refiloe", lineo[0].AssignedBy)
}

func reportIDs(reports []report.Report) []int64 {
	ids := make([]int64, 0, len(reports))
	for _, r := range reports {
		ids = append(ids, r.ID)
	}
	return ids
}

func assignmentIDs(assignments []assignment.Assignment) []int64 {
	ids := make([]int64, 0, len(assignments))
	for _, a := range assignments {
		ids = append(ids, a.ID)
	}
	return ids
}
