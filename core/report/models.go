package report

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/luct/reports/core"
	"github.com/luct/reports/core/user"
)

// Count is an optional head count. It decodes from a JSON number, a numeric string, "" or null.
type Count struct {
	Int   int
	Valid bool // Valid is true if Int is set
}

func NewCount(v int) Count { return Count{Int: v, Valid: true} }

func (c *Count) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = Count{}
		return nil
	}

	s := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*c = Count{}
			return nil
		}
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("count: %q is not a whole number", s)
	}
	*c = Count{Int: v, Valid: true}
	return nil
}

func (c Count) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(c.Int)), nil
}

// Scan implements the sql.Scanner interface.
func (c *Count) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*c = Count{}
	case int64:
		*c = Count{Int: int(v), Valid: true}
	case []byte:
		n, err := strconv.Atoi(string(v))
		if err != nil {
			return err
		}
		*c = Count{Int: n, Valid: true}
	default:
		return fmt.Errorf("count: cannot scan %T", value)
	}
	return nil
}

// Value implements the driver.Valuer interface.
func (c Count) Value() (driver.Value, error) {
	if !c.Valid {
		return nil, nil
	}
	return int64(c.Int), nil
}

// Report is a lecture-delivery report.
type Report struct {
	ID               int64      `json:"id" db:"id"`
	FacultyName      string     `json:"faculty_name" db:"faculty_name"`
	ClassName        string     `json:"class_name" db:"class_name"`
	WeekOfReporting  string     `json:"week_of_reporting" db:"week_of_reporting"`
	LectureDate      string     `json:"lecture_date" db:"lecture_date"` // YYYY-MM-DD
	CourseName       string     `json:"course_name" db:"course_name"`
	CourseCode       string     `json:"course_code" db:"course_code"`
	LecturerID       string     `json:"lecturer_id" db:"lecturer_id"`
	LecturerName     string     `json:"lecturer_name" db:"lecturer_name"`
	StudentsPresent  Count      `json:"students_present" db:"students_present"`
	TotalStudents    Count      `json:"total_students" db:"total_students"`
	Venue            string     `json:"venue" db:"venue"`
	LectureTime      string     `json:"lecture_time" db:"lecture_time"`
	TopicTaught      string     `json:"topic_taught" db:"topic_taught"`
	LearningOutcomes string     `json:"learning_outcomes" db:"learning_outcomes"`
	Recommendations  string     `json:"recommendations" db:"recommendations"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"` // UTC
	Feedback         *string    `json:"feedback" db:"feedback"`
	FeedbackBy       *string    `json:"feedback_by" db:"feedback_by"`
	FeedbackByID     *string    `json:"feedback_by_id" db:"feedback_by_id"`
	FeedbackAt       *time.Time `json:"feedback_at" db:"feedback_at"` // UTC
}

// Class is a distinct (class, course, lecturer) combination taken from the reports.
type Class struct {
	ClassName    string `json:"class_name" db:"class_name"`
	CourseName   string `json:"course_name" db:"course_name"`
	LecturerName string `json:"lecturer_name" db:"lecturer_name"`
}

// Feedback is a reviewer's annotation of a Report.
type Feedback struct {
	ReportID     int64
	Text         string
	ReviewerID   string
	ReviewerName string
	At           time.Time // UTC
}

// Filter restricts a report query. Zero values match everything.
type Filter struct {
	LecturerID string
}

// NewReport contains what a lecturer submits.
type NewReport struct {
	FacultyName      string `json:"faculty_name" validate:"required"`
	ClassName        string `json:"class_name" validate:"required"`
	WeekOfReporting  string `json:"week_of_reporting" validate:"required"`
	LectureDate      string `json:"lecture_date" validate:"required,isodate"`
	CourseName       string `json:"course_name" validate:"required"`
	CourseCode       string `json:"course_code" validate:"required"`
	LecturerName     string `json:"lecturer_name" validate:"required"`
	StudentsPresent  Count  `json:"students_present"`
	TotalStudents    Count  `json:"total_students"`
	Venue            string `json:"venue"`
	LectureTime      string `json:"lecture_time"`
	TopicTaught      string `json:"topic_taught"`
	LearningOutcomes string `json:"learning_outcomes"`
	Recommendations  string `json:"recommendations"`
}

func (nr *NewReport) Validate(validate *validator.Validate) error {
	nr.FacultyName = core.CleanString(nr.FacultyName)
	nr.ClassName = core.CleanString(nr.ClassName)
	nr.WeekOfReporting = core.CleanString(nr.WeekOfReporting)
	nr.LectureDate = core.CleanString(nr.LectureDate)
	nr.CourseName = core.CleanString(nr.CourseName)
	nr.CourseCode = core.CleanString(nr.CourseCode)
	nr.LecturerName = core.CleanString(nr.LecturerName)
	nr.Venue = core.CleanString(nr.Venue)
	nr.LectureTime = core.CleanString(nr.LectureTime)
	return validate.Struct(nr)
}

// report builds the Report a lecturer files; ownership comes from the identity, not the payload.
func (nr NewReport) report(id user.Identity, now time.Time) Report {
	return Report{
		FacultyName:      nr.FacultyName,
		ClassName:        nr.ClassName,
		WeekOfReporting:  nr.WeekOfReporting,
		LectureDate:      nr.LectureDate,
		CourseName:       nr.CourseName,
		CourseCode:       nr.CourseCode,
		LecturerID:       id.UserID,
		LecturerName:     id.Name,
		StudentsPresent:  nr.StudentsPresent,
		TotalStudents:    nr.TotalStudents,
		Venue:            nr.Venue,
		LectureTime:      nr.LectureTime,
		TopicTaught:      nr.TopicTaught,
		LearningOutcomes: nr.LearningOutcomes,
		Recommendations:  nr.Recommendations,
		CreatedAt:        now,
	}
}
