package assignment

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/luct/reports/core"
)

// Assignment records that a program leader assigned a course to a lecturer.
type Assignment struct {
	ID           int64     `json:"id" db:"id"`
	LecturerName string    `json:"lecturer_name" db:"lecturer_name"`
	CourseName   string    `json:"course_name" db:"course_name"`
	AssignedBy   string    `json:"assigned_by" db:"assigned_by"`
	AssignedByID string    `json:"assigned_by_id" db:"assigned_by_id"`
	AssignedAt   time.Time `json:"assigned_at" db:"assigned_at"` // UTC
}

// Filter restricts an assignment query. Zero values match everything.
type Filter struct {
	LecturerName string
}

// NewAssignment is what a program leader submits. The assigner is taken from the caller.
type NewAssignment struct {
	LecturerName string `json:"lecturer_name" validate:"required"`
	CourseName   string `json:"course_name" validate:"required"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.LecturerName = core.CleanString(na.LecturerName)
	na.CourseName = core.CleanString(na.CourseName)
	return validate.Struct(na)
}
