package user

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/uwezocare/uwezo/core"
)

// Role is the closed set of user roles. A user holds exactly one role.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleSupervisor  Role = "supervisor"
	RoleAssessor    Role = "assessor"
	RoleParticipant Role = "participant"
)

var (
	AllRoles = []Role{RoleAdmin, RoleSupervisor, RoleAssessor, RoleParticipant}

	rolePriorities = map[Role]int{
		RoleAdmin:       40,
		RoleSupervisor:  30,
		RoleAssessor:    20,
		RoleParticipant: 10,
	}
)

func (r Role) Valid() bool {
	_, ok := rolePriorities[r]
	return ok
}

func (r Role) String() string { return string(r) }

// Priority orders roles by privilege; a user may not grant a role
// higher than their own.
func (r Role) Priority() int { return rolePriorities[r] }

// Actor identifies who is performing a core operation. It is threaded
// explicitly through every service call instead of being read from
// ambient session state.
type Actor struct {
	ID   string
	Role Role
}

func (a Actor) IsAdmin() bool       { return a.Role == RoleAdmin }
func (a Actor) IsSupervisor() bool  { return a.Role == RoleSupervisor }
func (a Actor) IsAssessor() bool    { return a.Role == RoleAssessor }
func (a Actor) IsParticipant() bool { return a.Role == RoleParticipant }

// Notification is an in-app message appended to a user's notification
// list, newest first. The list is capped; oldest entries are evicted.
type Notification struct {
	ID      string    `json:"id"`
	Message string    `json:"message"`
	Type    string    `json:"type"`
	Link    string    `json:"link,omitempty"`
	Date    time.Time `json:"date"` // UTC
	IsRead  bool      `json:"is_read"`
}

type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
	Organization string `json:"organization,omitempty"`
	IsActive     bool   `json:"is_active"`
	PasswordHash []byte `json:"-"`

	// participant-only fields
	NDISNumber    string    `json:"ndis_number,omitempty"`
	DateOfBirth   time.Time `json:"date_of_birth,omitempty"`
	ContactNumber string    `json:"contact_number,omitempty"`
	Address       string    `json:"address,omitempty"`

	Notifications []Notification `json:"notifications,omitempty"`

	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
	LastLogin time.Time `json:"last_login"` // UTC
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

func (u User) Actor() Actor {
	return Actor{ID: u.ID, Role: u.Role}
}

func (u User) IsAdmin() bool       { return u.Role == RoleAdmin }
func (u User) IsSupervisor() bool  { return u.Role == RoleSupervisor }
func (u User) IsAssessor() bool    { return u.Role == RoleAssessor }
func (u User) IsParticipant() bool { return u.Role == RoleParticipant }

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	Role            Role   `json:"role" validate:"required,role"`
	Organization    string `json:"organization"`

	// participant-only fields
	NDISNumber    string    `json:"ndis_number" validate:"omitempty,ndisnum"`
	DateOfBirth   time.Time `json:"date_of_birth"`
	ContactNumber string    `json:"contact_number"`
	Address       string    `json:"address"`
}

func (nu *NewUser) Validate(svc *Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Organization = core.CleanString(nu.Organization)
	nu.NDISNumber = core.CleanString(nu.NDISNumber)

	if err := core.Validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(nu.Email, nu.NDISNumber)
}

// UpdateUser defines what information may be provided to modify an existing User.
// Role is accepted but referencing assignments/assessments are not rewritten;
// in practice the role is left alone after creation.
type UpdateUser struct {
	Name            string `json:"name"`
	Email           string `json:"email" validate:"omitempty,email"`
	IsActive        *bool  `json:"is_active"`
	Role            Role   `json:"role" validate:"omitempty,role"`
	Organization    string `json:"organization"`
	Password        string `json:"password" validate:"omitempty,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`

	NDISNumber    string    `json:"ndis_number" validate:"omitempty,ndisnum"`
	DateOfBirth   time.Time `json:"date_of_birth"`
	ContactNumber string    `json:"contact_number"`
	Address       string    `json:"address"`
}

func (uu *UpdateUser) Validate(origUsr User, svc *Service) error {
	if name := core.CleanString(uu.Name); name != "" {
		uu.Name = name
	} else {
		uu.Name = origUsr.Name
	}

	if email := core.CleanString(uu.Email, true /* lower */); email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}

	if uu.Role == "" {
		uu.Role = origUsr.Role
	}
	if uu.Organization == "" {
		uu.Organization = origUsr.Organization
	}
	if uu.NDISNumber = core.CleanString(uu.NDISNumber); uu.NDISNumber == "" {
		uu.NDISNumber = origUsr.NDISNumber
	}

	if err := core.Validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckUniqueness(uu.Email, uu.NDISNumber, origUsr)
}

type QueryFilter struct {
	Search      string    `query:"search"`
	Role        Role      `query:"role"`
	IsActive    *bool     `query:"is_active"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Role == "" && qf.IsActive == nil && qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
