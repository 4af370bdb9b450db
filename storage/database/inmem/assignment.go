package inmemdb

import (
	"context"
	"sort"

	"github.com/luct/reports/core/assignment"
)

type assignmentRepository struct {
	db *assignmentTable
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *DB) *assignmentRepository {
	return &assignmentRepository{db: db.assignment}
}

func (repo *assignmentRepository) CreateAssignment(_ context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.seq++
	a.ID = repo.db.seq
	repo.db.table = append(repo.db.table, a)
	return a, nil
}

func (repo *assignmentRepository) QueryAssignments(_ context.Context, filter assignment.Filter) ([]assignment.Assignment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	assignments := make([]assignment.Assignment, 0)
	for _, a := range repo.db.table {
		if filter.LecturerName != "" && a.LecturerName != filter.LecturerName {
			continue
		}
		assignments = append(assignments, a)
	}
	sort.Slice(assignments, func(i, j int) bool {
		if assignments[i].AssignedAt.Equal(assignments[j].AssignedAt) {
			return assignments[i].ID > assignments[j].ID
		}
		return assignments[i].AssignedAt.After(assignments[j].AssignedAt)
	})
	return assignments, nil
}
