package assignment

import (
	"context"
	"time"

	"github.com/luct/reports/core/user"
)

var (
	nowFunc = time.Now // mockable

	AssignRoles = []user.Role{user.RoleProgramLeader}
)

type (
	Repository interface {
		CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		// QueryAssignments returns assignments newest first.
		QueryAssignments(ctx context.Context, filter Filter) ([]Assignment, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Assign records a validated NewAssignment. The same course may be assigned more than once.
func (svc *Service) Assign(ctx context.Context, id user.Identity, na NewAssignment) (Assignment, error) {
	if err := id.Require(AssignRoles...); err != nil {
		return Assignment{}, err
	}
	return svc.repo.CreateAssignment(ctx, Assignment{
		LecturerName: na.LecturerName,
		CourseName:   na.CourseName,
		AssignedBy:   id.Name,
		AssignedByID: id.UserID,
		AssignedAt:   nowFunc().UTC(),
	})
}

// List returns the assignments visible to id: lecturers only see their own.
func (svc *Service) List(ctx context.Context, id user.Identity) ([]Assignment, error) {
	if err := id.Require(); err != nil {
		return nil, err
	}
	var filter Filter
	if id.Is(user.RoleLecturer) {
		filter.LecturerName = id.Name
	}
	return svc.repo.QueryAssignments(ctx, filter)
}
