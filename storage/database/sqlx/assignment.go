package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/luct/reports/core"
	"github.com/luct/reports/core/assignment"
)

const assignmentTable = "course_assignments"

var (
	assignmentInsertColumns = []string{"lecturer_name", "course_name", "assigned_by", "assigned_by_id", "assigned_at"}
	assignmentColumns       = append([]string{"id"}, assignmentInsertColumns...)
	assignmentOrdering      = []core.DBOrdering{{Field: "assigned_at"}, {Field: "id"}}
)

type assignmentRepository struct {
	base
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db core.DB, timeout time.Duration) *assignmentRepository {
	return &assignmentRepository{base{db: db, timeout: timeout}}
}

func (repo assignmentRepository) CreateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	qb := psql.Insert(assignmentTable).
		Columns(assignmentInsertColumns...).
		Values(a.LecturerName, a.CourseName, a.AssignedBy, a.AssignedByID, a.AssignedAt.UTC()).
		Suffix("RETURNING " + joinColumns(assignmentColumns))

	var created assignment.Assignment
	if err := repo.get(ctx, &created, qb); err != nil {
		return assignment.Assignment{}, wrapErr(err, "inserting assignment")
	}
	return created, nil
}

func (repo assignmentRepository) QueryAssignments(ctx context.Context, filter assignment.Filter) ([]assignment.Assignment, error) {
	qb := psql.Select(assignmentColumns...).From(assignmentTable).OrderBy(orderBy(assignmentOrdering)...)
	if filter.LecturerName != "" {
		qb = qb.Where(sq.Eq{"lecturer_name": filter.LecturerName})
	}

	assignments := make([]assignment.Assignment, 0)
	if err := repo.selectAll(ctx, &assignments, qb); err != nil {
		return nil, wrapErr(err, "querying assignments")
	}
	return assignments, nil
}
