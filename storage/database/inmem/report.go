package inmemdb

import (
	"context"
	"sort"

	"github.com/luct/reports/core/report"
)

type reportRepository struct {
	db *reportTable
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(db *DB) *reportRepository {
	return &reportRepository{db: db.report}
}

func (repo *reportRepository) query(filter report.Filter) []report.Report {
	reports := make([]report.Report, 0, len(repo.db.table))
	for _, rpt := range repo.db.table {
		if filter.LecturerID != "" && rpt.LecturerID != filter.LecturerID {
			continue
		}
		reports = append(reports, *rpt)
	}
	return reports
}

func (repo *reportRepository) CreateReport(_ context.Context, rpt report.Report) (report.Report, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.seq++
	rpt.ID = repo.db.seq
	repo.db.table[rpt.ID] = &rpt
	return rpt, nil
}

func (repo *reportRepository) QueryReports(_ context.Context, filter report.Filter) ([]report.Report, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	reports := repo.query(filter)
	sort.Slice(reports, func(i, j int) bool {
		if reports[i].CreatedAt.Equal(reports[j].CreatedAt) {
			return reports[i].ID > reports[j].ID
		}
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
	return reports, nil
}

func (repo *reportRepository) QueryClasses(_ context.Context, filter report.Filter) ([]report.Class, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	seen := make(map[report.Class]bool)
	classes := make([]report.Class, 0)
	for _, rpt := range repo.query(filter) {
		cls := report.Class{ClassName: rpt.ClassName, CourseName: rpt.CourseName, LecturerName: rpt.LecturerName}
		if !seen[cls] {
			seen[cls] = true
			classes = append(classes, cls)
		}
	}
	sort.Slice(classes, func(i, j int) bool {
		a, b := classes[i], classes[j]
		if a.ClassName != b.ClassName {
			return a.ClassName < b.ClassName
		}
		if a.CourseName != b.CourseName {
			return a.CourseName < b.CourseName
		}
		return a.LecturerName < b.LecturerName
	})
	return classes, nil
}

func (repo *reportRepository) SetFeedback(_ context.Context, f report.Feedback) (report.Report, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	rpt, ok := repo.db.table[f.ReportID]
	if !ok {
		return report.Report{}, report.ErrNotFound
	}
	text, by, byID, at := f.Text, f.ReviewerName, f.ReviewerID, f.At
	rpt.Feedback = &text
	rpt.FeedbackBy = &by
	rpt.FeedbackByID = &byID
	rpt.FeedbackAt = &at
	return *rpt, nil
}
