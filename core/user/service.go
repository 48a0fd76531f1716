package user

import (
	"errors"
	"net/mail"
	"time"

	"github.com/uwezocare/uwezo/core"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("user not found")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrNDISNumberExists   = errors.New("a user with this NDIS number already exists")
	ErrNotificationNoUser = core.NewNotFoundError("notification target user not found")
)

type (
	Repository interface {
		// CheckUniqueness reports ErrEmailExists / ErrNDISNumberExists when
		// another (non-excluded) user holds the same email or NDIS number.
		// NDIS numbers are checked against participant contact records as
		// well as accounts. An empty ndisNumber is never considered a
		// duplicate.
		CheckUniqueness(email, ndisNumber string, excludedUsers ...User) error
		CreateUser(user User) (User, error)
		QueryAllUsers() ([]User, error)
		GetUserByID(id string) (User, error)
		GetUserByEmail(email string) (User, error)
		// FilterUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.Name or User.Email.
		FilterUsers(filter QueryFilter) ([]User, error)
		UpdateUser(user User, isActive *bool) (User, error)
		DeleteUsersByID(ids ...string) error

		// UserHasWork reports whether the user is referenced by any
		// assignment or assessment; such users are deactivated instead
		// of deleted.
		UserHasWork(id string) (bool, error)

		// AddNotification prepends n to the user's notification list,
		// evicting the oldest entries beyond max.
		AddNotification(userID string, n Notification, max int) error
		MarkNotificationsRead(userID string) error
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
	}
)

func NewService(repo Repository, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, mailSvc: mailSvc}
}

func (svc *Service) CheckUniqueness(email, ndisNumber string, exclUsers ...User) error {
	if err := svc.repo.CheckUniqueness(email, ndisNumber, exclUsers...); err != nil {
		var field string
		switch err {
		case ErrEmailExists:
			field = "email"
		case ErrNDISNumberExists:
			field = "ndis_number"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *Service) Create(nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		Name:          nu.Name,
		Email:         nu.Email,
		Role:          nu.Role,
		Organization:  nu.Organization,
		IsActive:      true,
		NDISNumber:    nu.NDISNumber,
		DateOfBirth:   nu.DateOfBirth,
		ContactNumber: nu.ContactNumber,
		Address:       nu.Address,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	usr, err := svc.repo.CreateUser(usr)
	if err != nil {
		return User{}, err
	}
	svc.sendWelcomeEmail(usr)
	return usr, nil
}

func (svc *Service) sendWelcomeEmail(usr User) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Welcome to " + core.Conf.AppName,
		TemplateName: "welcome",
		TemplateData: struct {
			Name    string
			Role    string
			AppName string
		}{usr.Name, usr.Role.String(), core.Conf.AppName},
	})
}

func (svc *Service) QueryAll() ([]User, error) {
	return svc.repo.QueryAllUsers()
}

func (svc *Service) GetByID(id string) (User, error) {
	return svc.repo.GetUserByID(id)
}

func (svc *Service) GetByEmail(email string) (User, error) {
	return svc.repo.GetUserByEmail(core.CleanString(email, true /* lower */))
}

func (svc *Service) Filter(filter QueryFilter) ([]User, error) {
	return svc.repo.FilterUsers(filter)
}

func (svc *Service) Update(id string, uu UpdateUser) (User, error) {
	usr := User{
		ID:            id,
		Name:          uu.Name,
		Email:         uu.Email,
		Role:          uu.Role,
		Organization:  uu.Organization,
		NDISNumber:    uu.NDISNumber,
		DateOfBirth:   uu.DateOfBirth,
		ContactNumber: uu.ContactNumber,
		Address:       uu.Address,
		UpdatedAt:     time.Now().UTC(),
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, err
		}
	}
	return svc.repo.UpdateUser(usr, uu.IsActive)
}

func (svc *Service) SetLastLogin(usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(usr, nil)
}

// Delete hard-deletes users with no referencing assignments/assessments
// and deactivates the rest.
func (svc *Service) Delete(ids ...string) error {
	inactive := false
	for _, id := range ids {
		hasWork, err := svc.repo.UserHasWork(id)
		if err != nil {
			return err
		}
		if hasWork {
			usr, err := svc.repo.GetUserByID(id)
			if err != nil {
				return err
			}
			usr.UpdatedAt = time.Now().UTC()
			if _, err = svc.repo.UpdateUser(usr, &inactive); err != nil {
				return err
			}
			continue
		}
		if err = svc.repo.DeleteUsersByID(id); err != nil {
			return err
		}
	}
	return nil
}

func (svc *Service) MarkNotificationsRead(userID string) error {
	return svc.repo.MarkNotificationsRead(userID)
}
