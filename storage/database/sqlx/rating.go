package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/luct/reports/core"
	"github.com/luct/reports/core/rating"
)

const ratingTable = "ratings"

var (
	ratingInsertColumns = []string{"student_id", "student_name", "lecturer_id", "lecturer_name", "rating", "direction", "created_at"}
	ratingColumns       = append([]string{"id"}, ratingInsertColumns...)
	ratingOrdering      = []core.DBOrdering{{Field: "created_at"}, {Field: "id"}}
)

type ratingRepository struct {
	base
}

var _ rating.Repository = (*ratingRepository)(nil) // interface compliance check

func NewRatingRepository(db core.DB, timeout time.Duration) *ratingRepository {
	return &ratingRepository{base{db: db, timeout: timeout}}
}

// CreateRatings inserts all ratings in one transaction.
func (repo ratingRepository) CreateRatings(ctx context.Context, ratings []rating.Rating) ([]rating.Rating, error) {
	ctx, cancel := repo.withTimeout(ctx)
	defer cancel()

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, wrapErr(err, "beginning ratings transaction")
	}
	defer func() { _ = tx.Rollback() }() // no-op once committed

	created := make([]rating.Rating, 0, len(ratings))
	for _, r := range ratings {
		query, args, err := psql.Insert(ratingTable).
			Columns(ratingInsertColumns...).
			Values(r.StudentID, r.StudentName, r.LecturerID, r.LecturerName, r.Rating, r.Direction, r.CreatedAt.UTC()).
			Suffix("RETURNING " + joinColumns(ratingColumns)).
			ToSql()
		if err != nil {
			return nil, wrapErr(err, "building rating insert")
		}

		var c rating.Rating
		if err = tx.GetContext(ctx, &c, query, args...); err != nil {
			return nil, wrapErr(err, "inserting rating")
		}
		created = append(created, c)
	}

	if err = tx.Commit(); err != nil {
		return nil, wrapErr(err, "committing ratings")
	}
	return created, nil
}

func (repo ratingRepository) QueryRatings(ctx context.Context, filter rating.Filter) ([]rating.Rating, error) {
	qb := psql.Select(ratingColumns...).From(ratingTable).OrderBy(orderBy(ratingOrdering)...)
	if filter.StudentID != "" {
		qb = qb.Where(sq.Eq{"student_id": filter.StudentID})
	}
	if filter.LecturerID != "" {
		qb = qb.Where(sq.Eq{"lecturer_id": filter.LecturerID})
	}
	if filter.Direction != "" {
		qb = qb.Where(sq.Eq{"direction": filter.Direction})
	}

	ratings := make([]rating.Rating, 0)
	if err := repo.selectAll(ctx, &ratings, qb); err != nil {
		return nil, wrapErr(err, "querying ratings")
	}
	return ratings, nil
}

func (repo ratingRepository) AggregateByLecturer(ctx context.Context, filter rating.AggregateFilter) ([]rating.LecturerSummary, error) {
	qb := psql.Select("lecturer_name", "AVG(rating)::float8 AS avg_rating", "COUNT(*) AS total_votes").
		From(ratingTable).
		Where(sq.Eq{"direction": rating.StudentRatesLecturer}).
		GroupBy("lecturer_name").
		OrderBy(core.DBOrdering{Field: "lecturer_name", Ascending: true}.String())
	if filter.LecturerName != "" {
		qb = qb.Where(sq.Eq{"lecturer_name": filter.LecturerName})
	}

	summaries := make([]rating.LecturerSummary, 0)
	if err := repo.selectAll(ctx, &summaries, qb); err != nil {
		return nil, wrapErr(err, "aggregating ratings")
	}
	return summaries, nil
}
