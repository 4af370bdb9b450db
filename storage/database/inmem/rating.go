package inmemdb

import (
	"context"
	"sort"

	"github.com/luct/reports/core/rating"
)

type ratingRepository struct {
	db *ratingTable
}

var _ rating.Repository = (*ratingRepository)(nil) // interface compliance check

func NewRatingRepository(db *DB) *ratingRepository {
	return &ratingRepository{db: db.rating}
}

func (repo *ratingRepository) CreateRatings(_ context.Context, ratings []rating.Rating) ([]rating.Rating, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	created := make([]rating.Rating, 0, len(ratings))
	for _, r := range ratings {
		repo.db.seq++
		r.ID = repo.db.seq
		created = append(created, r)
	}
	repo.db.table = append(repo.db.table, created...)
	return created, nil
}

func (repo *ratingRepository) QueryRatings(_ context.Context, filter rating.Filter) ([]rating.Rating, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	ratings := make([]rating.Rating, 0)
	for _, r := range repo.db.table {
		if filter.Direction != "" && r.Direction != filter.Direction {
			continue
		}
		if filter.StudentID != "" && (r.StudentID == nil || *r.StudentID != filter.StudentID) {
			continue
		}
		if filter.LecturerID != "" && (r.LecturerID == nil || *r.LecturerID != filter.LecturerID) {
			continue
		}
		ratings = append(ratings, r)
	}
	sort.Slice(ratings, func(i, j int) bool {
		if ratings[i].CreatedAt.Equal(ratings[j].CreatedAt) {
			return ratings[i].ID > ratings[j].ID
		}
		return ratings[i].CreatedAt.After(ratings[j].CreatedAt)
	})
	return ratings, nil
}

func (repo *ratingRepository) AggregateByLecturer(_ context.Context, filter rating.AggregateFilter) ([]rating.LecturerSummary, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	totals := make(map[string]int)
	votes := make(map[string]int)
	for _, r := range repo.db.table {
		if r.Direction != rating.StudentRatesLecturer {
			continue
		}
		if filter.LecturerName != "" && r.LecturerName != filter.LecturerName {
			continue
		}
		totals[r.LecturerName] += r.Rating
		votes[r.LecturerName]++
	}

	summaries := make([]rating.LecturerSummary, 0, len(votes))
	for name, n := range votes {
		summaries = append(summaries, rating.LecturerSummary{
			LecturerName: name,
			AvgRating:    float64(totals[name]) / float64(n),
			TotalVotes:   n,
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].LecturerName < summaries[j].LecturerName })
	return summaries, nil
}
