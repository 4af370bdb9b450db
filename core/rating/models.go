package rating

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/luct/reports/core"
)

type Direction string

// Directions
const (
	StudentRatesLecturer Direction = "student-rates-lecturer"
	LecturerRatesStudent Direction = "lecturer-rates-student"
)

// Rating is a 1 to 5 score given by a student to a lecturer or by a lecturer to a student.
type Rating struct {
	ID           int64     `json:"id" db:"id"`
	StudentID    *string   `json:"student_id,omitempty" db:"student_id"`
	StudentName  string    `json:"student_name" db:"student_name"`
	LecturerID   *string   `json:"lecturer_id,omitempty" db:"lecturer_id"`
	LecturerName string    `json:"lecturer_name" db:"lecturer_name"`
	Rating       int       `json:"rating" db:"rating"`
	Direction    Direction `json:"direction" db:"direction"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // UTC
}

// LecturerSummary aggregates the ratings students gave a lecturer.
type LecturerSummary struct {
	LecturerName string  `json:"lecturer_name" db:"lecturer_name"`
	AvgRating    float64 `json:"avg_rating" db:"avg_rating"`
	TotalVotes   int     `json:"total_votes" db:"total_votes"`
}

// AggregateFilter restricts the lecturer summaries. Zero values match everything.
type AggregateFilter struct {
	LecturerName string `query:"lecturer_name"`
}

// Filter restricts a rating query. Zero values match everything.
type Filter struct {
	StudentID  string
	LecturerID string
	Direction  Direction
}

// NewRating is one student-to-lecturer rating of a batch.
type NewRating struct {
	StudentName  string `json:"student_name" validate:"required"`
	LecturerName string `json:"lecturer_name" validate:"required"`
	Rating       int    `json:"rating" validate:"required,min=1,max=5"`
}

// Batch is what a student submits; it is stored whole or not at all.
type Batch struct {
	Ratings []NewRating `json:"ratings" validate:"required,min=1,dive"`
}

func (b *Batch) Validate(validate *validator.Validate) error {
	for i := range b.Ratings {
		b.Ratings[i].StudentName = core.CleanString(b.Ratings[i].StudentName)
		b.Ratings[i].LecturerName = core.CleanString(b.Ratings[i].LecturerName)
	}
	return validate.Struct(b)
}

// NewStudentRating is a lecturer's rating of a student.
type NewStudentRating struct {
	StudentName string `json:"student_name" validate:"required"`
	Rating      int    `json:"rating" validate:"required,min=1,max=5"`
}

func (nsr *NewStudentRating) Validate(validate *validator.Validate) error {
	nsr.StudentName = core.CleanString(nsr.StudentName)
	return validate.Struct(nsr)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
