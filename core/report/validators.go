package report

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/luct/reports/core"
)

var (
	countMinTag  = "countmin"
	countMinText = "{0} cannot be negative"

	presentMaxTag  = "presentmax"
	presentMaxText = "{0} cannot exceed total_students"
)

// InitValidators registers the report validators on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(reportStructValidation, NewReport{})
	core.RegisterCustomTranslation(validate, translator, countMinTag, countMinText)
	core.RegisterCustomTranslation(validate, translator, presentMaxTag, presentMaxText)
}

// reportStructValidation checks the optional head counts of a NewReport.
func reportStructValidation(sl validator.StructLevel) {
	nr, ok := sl.Current().Interface().(NewReport)
	if !ok {
		return
	}

	if nr.StudentsPresent.Valid && nr.StudentsPresent.Int < 0 {
		sl.ReportError(nr.StudentsPresent, "students_present", "StudentsPresent", countMinTag, "")
	}
	if nr.TotalStudents.Valid && nr.TotalStudents.Int < 0 {
		sl.ReportError(nr.TotalStudents, "total_students", "TotalStudents", countMinTag, "")
	}
	if nr.StudentsPresent.Valid && nr.TotalStudents.Valid && nr.StudentsPresent.Int > nr.TotalStudents.Int {
		sl.ReportError(nr.StudentsPresent, "students_present", "StudentsPresent", presentMaxTag, "")
	}
}
