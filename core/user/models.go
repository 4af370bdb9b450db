package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/luct/reports/core"
)

type Role string

// Roles
const (
	RoleStudent           Role = "student"
	RoleLecturer          Role = "lecturer"
	RolePrincipalLecturer Role = "principal-lecturer"
	RoleProgramLeader     Role = "program-leader"
)

var (
	AllRoles      = []Role{RoleStudent, RoleLecturer, RolePrincipalLecturer, RoleProgramLeader}
	ReviewerRoles = []Role{RolePrincipalLecturer, RoleProgramLeader}
	StaffRoles    = []Role{RoleLecturer, RolePrincipalLecturer, RoleProgramLeader}

	// roleAliases maps canonical input forms (lower case, no whitespace) to a Role.
	roleAliases = map[string]Role{
		"student":            RoleStudent,
		"lecturer":           RoleLecturer,
		"principal-lecturer": RolePrincipalLecturer,
		"principallecturer":  RolePrincipalLecturer,
		"principallecture":   RolePrincipalLecturer,
		"principal_lecturer": RolePrincipalLecturer,
		"prl":                RolePrincipalLecturer,
		"program-leader":     RoleProgramLeader,
		"programleader":      RoleProgramLeader,
		"program_leader":     RoleProgramLeader,
		"programmanager":     RoleProgramLeader,
		"pl":                 RoleProgramLeader,
	}
)

// CanonicalRole returns the canonical form of a role: lower case, whitespace removed.
func CanonicalRole(role string) string {
	return core.StripSpaces(role)
}

// ParseRole maps free text to one of AllRoles.
func ParseRole(role string) (Role, bool) {
	r, ok := roleAliases[CanonicalRole(role)]
	return r, ok
}

// Valid reports whether r is one of AllRoles, already in canonical form.
func (r Role) Valid() bool {
	for _, role := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Canonical maps r to one of AllRoles when it is a known alias, or else to its canonical form.
func (r Role) Canonical() Role {
	if role, ok := ParseRole(string(r)); ok {
		return role
	}
	return Role(CanonicalRole(string(r)))
}

func (r Role) String() string { return string(r) }

type User struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	Role         Role      `json:"role" db:"role"`
	PasswordHash []byte    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u User) Identity() Identity {
	return Identity{UserID: u.ID, Name: u.Name, Role: u.Role.Canonical()}
}

func (u User) Summary() Summary {
	return Summary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role.Canonical()}
}

// Summary is the public view of a User.
type Summary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// NewUser contains information needed to register a new User.
type NewUser struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,role"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	if r, ok := ParseRole(nu.Role); ok {
		nu.Role = string(r)
	}
	return validate.Struct(nu)
}

// Credentials are what a User logs in with.
type Credentials struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (c *Credentials) Validate(validate *validator.Validate) error {
	c.Email = core.CleanString(c.Email, true /* lower */)
	return validate.Struct(c)
}

// ResetPassword contains what is needed to set a new password on an existing User.
type ResetPassword struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (rp *ResetPassword) Validate(validate *validator.Validate) error {
	rp.Email = core.CleanString(rp.Email, true /* lower */)
	return validate.Struct(rp)
}
