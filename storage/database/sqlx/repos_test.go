package sqlxrepos_test

import (
	"testing"
	"time"

	"github.com/luct/reports/storage/database/sqlx"
	"github.com/luct/reports/storage/database/storagetest"
	"github.com/luct/reports/tests"
)

func TestRepositories(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storagetest.Repos {
		db := testutil.PrepareDB(t)
		return storagetest.Repos{
			Users:       sqlxrepos.NewUserRepository(db, 5*time.Second),
			Reports:     sqlxrepos.NewReportRepository(db, 5*time.Second),
			Ratings:     sqlxrepos.NewRatingRepository(db, 5*time.Second),
			Assignments: sqlxrepos.NewAssignmentRepository(db, 5*time.Second),
		}
	})
}
