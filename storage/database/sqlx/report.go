package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/luct/reports/core"
	"github.com/luct/reports/core/report"
)

const reportTable = "lecturer_reports"

var (
	reportInsertColumns = []string{
		"faculty_name", "class_name", "week_of_reporting", "lecture_date", "course_name", "course_code",
		"lecturer_id", "lecturer_name", "students_present", "total_students", "venue", "lecture_time",
		"topic_taught", "learning_outcomes", "recommendations", "created_at",
	}
	reportColumns = []string{
		"id", "faculty_name", "class_name", "week_of_reporting", "to_char(lecture_date, 'YYYY-MM-DD') AS lecture_date",
		"course_name", "course_code", "lecturer_id", "lecturer_name", "students_present", "total_students",
		"venue", "lecture_time", "topic_taught", "learning_outcomes", "recommendations", "created_at",
		"feedback", "feedback_by", "feedback_by_id", "feedback_at",
	}
	reportOrdering = []core.DBOrdering{{Field: "created_at"}, {Field: "id"}}
	classOrdering  = []core.DBOrdering{
		{Field: "class_name", Ascending: true},
		{Field: "course_name", Ascending: true},
		{Field: "lecturer_name", Ascending: true},
	}
)

type reportRepository struct {
	base
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(db core.DB, timeout time.Duration) *reportRepository {
	return &reportRepository{base{db: db, timeout: timeout}}
}

func (repo reportRepository) where(qb sq.SelectBuilder, filter report.Filter) sq.SelectBuilder {
	if filter.LecturerID != "" {
		qb = qb.Where(sq.Eq{"lecturer_id": filter.LecturerID})
	}
	return qb
}

func (repo reportRepository) CreateReport(ctx context.Context, rpt report.Report) (report.Report, error) {
	qb := psql.Insert(reportTable).
		Columns(reportInsertColumns...).
		Values(
			rpt.FacultyName, rpt.ClassName, rpt.WeekOfReporting, rpt.LectureDate, rpt.CourseName, rpt.CourseCode,
			rpt.LecturerID, rpt.LecturerName, rpt.StudentsPresent, rpt.TotalStudents, rpt.Venue, rpt.LectureTime,
			rpt.TopicTaught, rpt.LearningOutcomes, rpt.Recommendations, rpt.CreatedAt.UTC(),
		).
		Suffix("RETURNING " + joinColumns(reportColumns))

	var created report.Report
	if err := repo.get(ctx, &created, qb); err != nil {
		return report.Report{}, wrapErr(err, "inserting report")
	}
	return created, nil
}

func (repo reportRepository) QueryReports(ctx context.Context, filter report.Filter) ([]report.Report, error) {
	reports := make([]report.Report, 0)
	qb := repo.where(psql.Select(reportColumns...).From(reportTable), filter).
		OrderBy(orderBy(reportOrdering)...)
	if err := repo.selectAll(ctx, &reports, qb); err != nil {
		return nil, wrapErr(err, "querying reports")
	}
	return reports, nil
}

func (repo reportRepository) QueryClasses(ctx context.Context, filter report.Filter) ([]report.Class, error) {
	classes := make([]report.Class, 0)
	qb := repo.where(psql.Select("class_name", "course_name", "lecturer_name").Distinct().From(reportTable), filter).
		OrderBy(orderBy(classOrdering)...)
	if err := repo.selectAll(ctx, &classes, qb); err != nil {
		return nil, wrapErr(err, "querying classes")
	}
	return classes, nil
}

// SetFeedback is a single conditional UPDATE: concurrent reviewers never lose a write, the last one wins.
func (repo reportRepository) SetFeedback(ctx context.Context, f report.Feedback) (report.Report, error) {
	qb := psql.Update(reportTable).
		Set("feedback", f.Text).
		Set("feedback_by", f.ReviewerName).
		Set("feedback_by_id", f.ReviewerID).
		Set("feedback_at", f.At.UTC()).
		Where(sq.Eq{"id": f.ReportID}).
		Suffix("RETURNING " + joinColumns(reportColumns))

	var updated report.Report
	if err := repo.get(ctx, &updated, qb); err != nil {
		if err == sql.ErrNoRows {
			return report.Report{}, report.ErrNotFound
		}
		return report.Report{}, wrapErr(err, "setting report feedback")
	}
	return updated, nil
}
