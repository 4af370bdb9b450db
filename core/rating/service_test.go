package rating_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luct/reports/core"
	"github.com/luct/reports/core/rating"
	"github.com/luct/reports/core/user"
	"github.com/luct/reports/storage/database/inmem"
)

var (
	student  = user.Identity{UserID: "3b0c7a52-2d1c-4a8e-9a55-1d3c0f6d9a01", Name: "Palesa", Role: user.RoleStudent}
	student2 = user.Identity{UserID: "3b0c7a52-2d1c-4a8e-9a55-1d3c0f6d9a02", Name: "Ayanda", Role: user.RoleStudent}
	lecturer = user.Identity{UserID: "3b0c7a52-2d1c-4a8e-9a55-1d3c0f6d9a03", Name: "Lineo", Role: user.RoleLecturer}
	leader   = user.Identity{UserID: "3b0c7a52-2d1c-4a8e-9a55-1d3c0f6d9a04", Name: "Refiloe", Role: user.RoleProgramLeader}
)

func newService() (*rating.Service, rating.Repository) {
	repo := inmemdb.NewRatingRepository(inmemdb.Open())
	return rating.NewService(repo), repo
}

func batch(ratings ...rating.NewRating) rating.Batch {
	return rating.Batch{Ratings: ratings}
}

func TestService_SubmitBatch(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()

	tests := []struct {
		name    string
		id      user.Identity
		batch   rating.Batch
		wantErr error
	}{
		{name: "lecturer", id: lecturer, batch: batch(rating.NewRating{StudentName: "Lineo", LecturerName: "Tumelo", Rating: 3}), wantErr: core.ErrForbidden},
		{name: "anonymous", batch: batch(rating.NewRating{StudentName: "Palesa", LecturerName: "Lineo", Rating: 3}), wantErr: core.ErrForbidden},
		{name: "empty", id: student, batch: batch(), wantErr: rating.ErrEmptyBatch},
		{
			name: "score out of range", id: student,
			batch:   batch(rating.NewRating{StudentName: "Palesa", LecturerName: "Lineo", Rating: 5}, rating.NewRating{StudentName: "Palesa", LecturerName: "Tumelo", Rating: 6}),
			wantErr: rating.ErrInvalidScore,
		},
		{
			name: "on behalf of another student", id: student,
			batch:   batch(rating.NewRating{StudentName: "Palesa", LecturerName: "Lineo", Rating: 5}, rating.NewRating{StudentName: "Ayanda", LecturerName: "Lineo", Rating: 1}),
			wantErr: rating.ErrOnBehalfOf,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SubmitBatch(ctx, tt.id, tt.batch)
			assert.Equal(t, tt.wantErr, err)
		})
	}

	all, err := repo.QueryRatings(ctx, rating.Filter{})
	require.NoError(t, err)
	assert.Empty(t, all, "rejected batches must not store anything")

	created, err := svc.SubmitBatch(ctx, student, batch(
		rating.NewRating{StudentName: "palesa", LecturerName: "Lineo", Rating: 5},
		rating.NewRating{StudentName: "Palesa", LecturerName: "Tumelo", Rating: 3},
	))
	require.NoError(t, err)
	require.Len(t, created, 2)
	for _, r := range created {
		assert.Equal(t, student.UserID, *r.StudentID)
		assert.Equal(t, "Palesa", r.StudentName)
		assert.Equal(t, rating.StudentRatesLecturer, r.Direction)
		assert.Nil(t, r.LecturerID)
	}
}

func TestService_AggregateByLecturer(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	_, err := svc.SubmitBatch(ctx, student, batch(rating.NewRating{StudentName: "Palesa", LecturerName: "Lineo", Rating: 5}))
	require.NoError(t, err)
	_, err = svc.SubmitBatch(ctx, student2, batch(rating.NewRating{StudentName: "Ayanda", LecturerName: "Lineo", Rating: 3}))
	require.NoError(t, err)
	_, err = svc.RateStudent(ctx, lecturer, rating.NewStudentRating{StudentName: "Palesa", Rating: 1})
	require.NoError(t, err)

	summaries, err := svc.AggregateByLecturer(ctx, leader, rating.AggregateFilter{})
	require.NoError(t, err)
	assert.Equal(t, []rating.LecturerSummary{{LecturerName: "Lineo", AvgRating: 4, TotalVotes: 2}}, summaries)

	summaries, err = svc.AggregateByLecturer(ctx, student, rating.AggregateFilter{LecturerName: " Lineo "})
	require.NoError(t, err)
	assert.Len(t, summaries, 1)

	summaries, err = svc.AggregateByLecturer(ctx, student, rating.AggregateFilter{LecturerName: "Tumelo"})
	require.NoError(t, err)
	assert.Empty(t, summaries)

	_, err = svc.AggregateByLecturer(ctx, user.Identity{}, rating.AggregateFilter{})
	assert.Equal(t, core.ErrForbidden, err)
}

func TestService_ListForStudent(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	_, err := svc.SubmitBatch(ctx, student, batch(rating.NewRating{StudentName: "Palesa", LecturerName: "Lineo", Rating: 5}))
	require.NoError(t, err)
	_, err = svc.SubmitBatch(ctx, student2, batch(rating.NewRating{StudentName: "Ayanda", LecturerName: "Lineo", Rating: 3}))
	require.NoError(t, err)

	mine, err := svc.ListForStudent(ctx, student)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, 5, mine[0].Rating)

	_, err = svc.ListForStudent(ctx, lecturer)
	assert.Equal(t, core.ErrForbidden, err)
}

func TestService_RateStudent(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	_, err := svc.RateStudent(ctx, student, rating.NewStudentRating{StudentName: "Ayanda", Rating: 4})
	assert.Equal(t, core.ErrForbidden, err)
	_, err = svc.RateStudent(ctx, leader, rating.NewStudentRating{StudentName: "Ayanda", Rating: 4})
	assert.Equal(t, core.ErrForbidden, err)
	_, err = svc.RateStudent(ctx, lecturer, rating.NewStudentRating{StudentName: "Ayanda", Rating: 0})
	assert.Equal(t, rating.ErrInvalidScore, err)

	r, err := svc.RateStudent(ctx, lecturer, rating.NewStudentRating{StudentName: "Ayanda", Rating: 4})
	require.NoError(t, err)
	assert.Equal(t, rating.LecturerRatesStudent, r.Direction)
	assert.Equal(t, "Lineo", r.LecturerName)
	assert.Equal(t, lecturer.UserID, *r.LecturerID)
	assert.Nil(t, r.StudentID)
}
