package rating

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/luct/reports/core"
	"github.com/luct/reports/core/user"
)

var (
	nowFunc = time.Now // mockable

	SubmitRoles      = []user.Role{user.RoleStudent}
	RateStudentRoles = []user.Role{user.RoleLecturer}

	// errors
	errInvalidData  = errors.New("Invalid data")
	ErrEmptyBatch   = core.NewValidationError(errInvalidData, core.FieldError{Field: "ratings", Error: "ratings is required"})
	ErrOnBehalfOf   = core.NewForbiddenError("students may only rate on their own behalf")
	ErrInvalidScore = core.NewValidationError(errInvalidData, core.FieldError{Field: "rating", Error: "rating must be between 1 and 5"})
)

type (
	Repository interface {
		// CreateRatings stores all ratings or none of them.
		CreateRatings(ctx context.Context, ratings []Rating) ([]Rating, error)
		// QueryRatings returns ratings newest first.
		QueryRatings(ctx context.Context, filter Filter) ([]Rating, error)
		// AggregateByLecturer summarises student-to-lecturer ratings per lecturer name, ordered by name.
		AggregateByLecturer(ctx context.Context, filter AggregateFilter) ([]LecturerSummary, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// SubmitBatch stores a validated Batch of student-to-lecturer ratings atomically.
func (svc *Service) SubmitBatch(ctx context.Context, id user.Identity, batch Batch) ([]Rating, error) {
	if err := id.Require(SubmitRoles...); err != nil {
		return nil, err
	}
	if len(batch.Ratings) == 0 {
		return nil, ErrEmptyBatch
	}

	now := nowFunc().UTC()
	ratings := make([]Rating, 0, len(batch.Ratings))
	for _, nr := range batch.Ratings {
		if !strings.EqualFold(core.CleanString(nr.StudentName), core.CleanString(id.Name)) {
			return nil, ErrOnBehalfOf
		}
		if !validScore(nr.Rating) {
			return nil, ErrInvalidScore
		}
		ratings = append(ratings, Rating{
			StudentID:    optional(id.UserID),
			StudentName:  id.Name,
			LecturerName: nr.LecturerName,
			Rating:       nr.Rating,
			Direction:    StudentRatesLecturer,
			CreatedAt:    now,
		})
	}
	return svc.repo.CreateRatings(ctx, ratings)
}

// AggregateByLecturer returns the average student rating and vote count of every rated lecturer.
func (svc *Service) AggregateByLecturer(ctx context.Context, id user.Identity, filter AggregateFilter) ([]LecturerSummary, error) {
	if err := id.Require(); err != nil {
		return nil, err
	}
	filter.LecturerName = core.CleanString(filter.LecturerName)
	return svc.repo.AggregateByLecturer(ctx, filter)
}

// ListForStudent returns the ratings the student id has given.
func (svc *Service) ListForStudent(ctx context.Context, id user.Identity) ([]Rating, error) {
	if err := id.Require(SubmitRoles...); err != nil {
		return nil, err
	}
	return svc.repo.QueryRatings(ctx, Filter{StudentID: id.UserID, Direction: StudentRatesLecturer})
}

// RateStudent stores a lecturer's rating of a student.
func (svc *Service) RateStudent(ctx context.Context, id user.Identity, nsr NewStudentRating) (Rating, error) {
	if err := id.Require(RateStudentRoles...); err != nil {
		return Rating{}, err
	}
	if !validScore(nsr.Rating) {
		return Rating{}, ErrInvalidScore
	}

	ratings, err := svc.repo.CreateRatings(ctx, []Rating{{
		StudentName:  nsr.StudentName,
		LecturerID:   optional(id.UserID),
		LecturerName: id.Name,
		Rating:       nsr.Rating,
		Direction:    LecturerRatesStudent,
		CreatedAt:    nowFunc().UTC(),
	}})
	if err != nil {
		return Rating{}, err
	}
	return ratings[0], nil
}

func validScore(score int) bool {
	return score >= 1 && score <= 5
}
