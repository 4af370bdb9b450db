package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/luct/reports/core"
	"github.com/luct/reports/core/user"
	"github.com/luct/reports/storage/database"
)

// TestPassword satisfies the password policy for every user created by the tests.
const TestPassword = "S3cure!Pass"

func CreateUser(t *testing.T, repo user.Repository, name, email string, role user.Role, createdAt ...time.Time) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if err := usr.SetPassword(TestPassword); err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// PrepareDB opens the postgres test database named by TEST_DATABASE_NAME and resets its schema.
// The test is skipped when TEST_DATABASE_NAME is not set.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()

	name := os.Getenv("TEST_DATABASE_NAME")
	if name == "" {
		t.Skip("TEST_DATABASE_NAME not set")
	}

	conf := core.NewTestConfig()
	conf.Database.Engine = "postgres"
	conf.Database.Name = name
	conf.Database.Host = getenv("TEST_DATABASE_HOST", "localhost")
	conf.Database.Port = getenv("TEST_DATABASE_PORT", "5432")
	conf.Database.User = getenv("TEST_DATABASE_USER", "postgres")
	conf.Database.Password = os.Getenv("TEST_DATABASE_PASSWORD")
	conf.Database.DisableTLS = true

	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("database.Open(): %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db, "reset"); err != nil {
		t.Fatalf("database.Migrate(reset): %v", err)
	}
	if err = database.Migrate(db, "up"); err != nil {
		t.Fatalf("database.Migrate(up): %v", err)
	}
	return db
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
