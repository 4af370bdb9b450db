package user

import (
	"context"

	"github.com/pkg/errors"

	"github.com/luct/reports/core"
)

var (
	// errors
	ErrNotFound        = core.NewNotFoundError("User not found")
	ErrEmailExists     = core.NewConflictError("email", "Email already exists")
	ErrInvalidPassword = core.NewAuthError("Invalid password")
)

type (
	Repository interface {
		// CreateUser fails with ErrEmailExists if the email is already taken.
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		// QueryUsersByRole returns users of role ordered by name.
		QueryUsersByRole(ctx context.Context, role Role) ([]User, error)
		// UpdateUser overwrites name, role and password hash of the user with usr.ID.
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register stores a new User. The NewUser must have been validated.
func (svc *Service) Register(ctx context.Context, nu NewUser) (User, error) {
	now := nowFunc().UTC()
	usr := User{
		Name:      nu.Name,
		Email:     nu.Email,
		Role:      Role(nu.Role),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateUser(ctx, usr)
}

// UpdateOrCreate registers nu, or overwrites the name, role and password of the User holding nu.Email.
func (svc *Service) UpdateOrCreate(ctx context.Context, nu NewUser) (User, error) {
	usr, err := svc.repo.GetUserByEmail(ctx, nu.Email)
	switch errors.Cause(err) {
	case nil:
	case ErrNotFound:
		return svc.Register(ctx, nu)
	default:
		return User{}, err
	}

	usr.Name = nu.Name
	usr.Role = Role(nu.Role)
	usr.UpdatedAt = nowFunc().UTC()
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.UpdateUser(ctx, usr)
}

// Authenticate returns the User matching the credentials.
func (svc *Service) Authenticate(ctx context.Context, cred Credentials) (User, error) {
	usr, err := svc.repo.GetUserByEmail(ctx, cred.Email)
	if err != nil {
		return User{}, err
	}
	if err := usr.CheckPassword(cred.Password); err != nil {
		return User{}, ErrInvalidPassword
	}
	return usr, nil
}

func (svc *Service) ResetPassword(ctx context.Context, rp ResetPassword) (User, error) {
	usr, err := svc.repo.GetUserByEmail(ctx, rp.Email)
	if err != nil {
		return User{}, err
	}
	if err := usr.SetPassword(rp.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = nowFunc().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

// QueryByRole lists the users holding role; only staff may list users.
func (svc *Service) QueryByRole(ctx context.Context, id Identity, role Role) ([]User, error) {
	if err := id.Require(StaffRoles...); err != nil {
		return nil, err
	}
	return svc.repo.QueryUsersByRole(ctx, role)
}
