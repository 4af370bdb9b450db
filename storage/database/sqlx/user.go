package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/luct/reports/core"
	"github.com/luct/reports/core/user"
)

const userTable = "users"

var (
	userColumns  = []string{"id", "name", "email", "role", "password_hash", "created_at", "updated_at"}
	userOrdering = []core.DBOrdering{{Field: "name", Ascending: true}, {Field: "id", Ascending: true}}
)

type userRepository struct {
	base
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db core.DB, timeout time.Duration) *userRepository {
	return &userRepository{base{db: db, timeout: timeout}}
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return wrapErr(err, msg)
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	qb := psql.Insert(userTable).
		Columns(userColumns...).
		Values(usr.ID, usr.Name, usr.Email, usr.Role, usr.PasswordHash, usr.CreatedAt.UTC(), usr.UpdatedAt.UTC()).
		Suffix("RETURNING *")

	var created user.User
	if err := repo.get(ctx, &created, qb); err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, wrapErr(err, "inserting user")
	}
	return created, nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return user.User{}, user.ErrNotFound
	}
	var usr user.User
	qb := psql.Select(userColumns...).From(userTable).Where(sq.Eq{"id": id})
	if err := repo.get(ctx, &usr, qb); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user by ID")
	}
	return usr, nil
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var usr user.User
	qb := psql.Select(userColumns...).From(userTable).Where(sq.Eq{"email": email})
	if err := repo.get(ctx, &usr, qb); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user by email")
	}
	return usr, nil
}

func (repo userRepository) QueryUsersByRole(ctx context.Context, role user.Role) ([]user.User, error) {
	users := make([]user.User, 0)
	qb := psql.Select(userColumns...).
		From(userTable).
		Where(sq.Eq{"role": role}).
		OrderBy(orderBy(userOrdering)...)
	if err := repo.selectAll(ctx, &users, qb); err != nil {
		return nil, wrapErr(err, "querying users")
	}
	return users, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	qb := psql.Update(userTable).
		Set("name", usr.Name).
		Set("role", usr.Role).
		Set("updated_at", usr.UpdatedAt.UTC()).
		Where(sq.Eq{"id": usr.ID}).
		Suffix("RETURNING *")
	if usr.PasswordHash != nil {
		qb = qb.Set("password_hash", usr.PasswordHash)
	}

	var updated user.User
	if err := repo.get(ctx, &updated, qb); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "updating user")
	}
	return updated, nil
}
