package dummydb

import (
	"strings"

	"github.com/google/uuid"

	"github.com/uwezocare/uwezo/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.user.table))
	for _, u := range repo.db.user.table {
		users = append(users, *u)
	}
	return users
}

func (repo *userRepository) CheckUniqueness(email, ndisNumber string, excludedUsers ...user.User) error {
	repo.db.user.RLock()
	defer repo.db.user.RUnlock()

	for _, usr := range repo.query() {
		if isExcluded(usr, excludedUsers) {
			continue
		}
		if email != "" && usr.Email == email {
			return user.ErrEmailExists
		}
		if ndisNumber != "" && usr.NDISNumber == ndisNumber {
			return user.ErrNDISNumberExists
		}
	}

	// NDIS numbers must also be unique against participant contact
	// records, not just against accounts.
	if ndisNumber != "" {
		repo.db.participant.RLock()
		defer repo.db.participant.RUnlock()

		for _, pcpt := range repo.db.participant.table {
			if pcpt.LinkedUserID != "" && isExcludedID(pcpt.LinkedUserID, excludedUsers) {
				continue
			}
			if pcpt.NDISNumber == ndisNumber {
				return user.ErrNDISNumberExists
			}
		}
	}
	return nil
}

func isExcluded(usr user.User, excluded []user.User) bool {
	return isExcludedID(usr.ID, excluded)
}

func isExcludedID(id string, excluded []user.User) bool {
	for _, ex := range excluded {
		if ex.ID == id {
			return true
		}
	}
	return false
}

func (repo *userRepository) CreateUser(usr user.User) (user.User, error) {
	repo.db.user.Lock()
	defer repo.db.user.Unlock()

	usr.ID = uuid.New().String()
	repo.db.user.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) QueryAllUsers() ([]user.User, error) {
	repo.db.user.RLock()
	defer repo.db.user.RUnlock()
	return repo.query(), nil
}

func (repo *userRepository) GetUserByID(id string) (user.User, error) {
	repo.db.user.RLock()
	defer repo.db.user.RUnlock()

	if usr, ok := repo.db.user.table[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(email string) (user.User, error) {
	repo.db.user.RLock()
	defer repo.db.user.RUnlock()

	for _, usr := range repo.query() {
		if usr.Email == email {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) FilterUsers(filter user.QueryFilter) ([]user.User, error) {
	repo.db.user.RLock()
	defer repo.db.user.RUnlock()

	users := repo.query()

	if filter.Search != "" {
		var filtered []user.User
		search := strings.ToLower(filter.Search)
		for _, usr := range users {
			if strings.Contains(strings.ToLower(usr.Name), search) ||
				strings.Contains(strings.ToLower(usr.Email), search) {
				filtered = append(filtered, usr)
			}
		}
		users = filtered
	}

	if filter.Role != "" {
		var filtered []user.User
		for _, usr := range users {
			if usr.Role == filter.Role {
				filtered = append(filtered, usr)
			}
		}
		users = filtered
	}

	if filter.IsActive != nil {
		var filtered []user.User
		for _, usr := range users {
			if usr.IsActive == *filter.IsActive {
				filtered = append(filtered, usr)
			}
		}
		users = filtered
	}

	if !filter.CreatedFrom.IsZero() {
		var filtered []user.User
		for _, usr := range users {
			if !usr.CreatedAt.Before(filter.CreatedFrom) {
				filtered = append(filtered, usr)
			}
		}
		users = filtered
	}

	if !filter.CreatedTo.IsZero() {
		var filtered []user.User
		for _, usr := range users {
			if !usr.CreatedAt.After(filter.CreatedTo) {
				filtered = append(filtered, usr)
			}
		}
		users = filtered
	}

	return users, nil
}

func (repo *userRepository) UpdateUser(usr user.User, isActive *bool) (user.User, error) {
	repo.db.user.Lock()
	defer repo.db.user.Unlock()

	orig, ok := repo.db.user.table[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	if usr.Name != "" {
		orig.Name = usr.Name
	}
	if usr.Email != "" {
		orig.Email = usr.Email
	}
	if usr.Role != "" {
		orig.Role = usr.Role
	}
	if usr.Organization != "" {
		orig.Organization = usr.Organization
	}
	if usr.NDISNumber != "" {
		orig.NDISNumber = usr.NDISNumber
	}
	if !usr.DateOfBirth.IsZero() {
		orig.DateOfBirth = usr.DateOfBirth
	}
	if usr.ContactNumber != "" {
		orig.ContactNumber = usr.ContactNumber
	}
	if usr.Address != "" {
		orig.Address = usr.Address
	}
	if usr.PasswordHash != nil {
		orig.PasswordHash = usr.PasswordHash
	}
	if !usr.UpdatedAt.IsZero() {
		orig.UpdatedAt = usr.UpdatedAt
	}
	if !usr.LastLogin.IsZero() {
		orig.LastLogin = usr.LastLogin
	}
	if isActive != nil {
		orig.IsActive = *isActive
	}
	return *orig, nil
}

func (repo *userRepository) DeleteUsersByID(ids ...string) error {
	repo.db.user.Lock()
	defer repo.db.user.Unlock()

	for _, id := range ids {
		delete(repo.db.user.table, id)
	}
	return nil
}

func (repo *userRepository) UserHasWork(id string) (bool, error) {
	repo.db.assignment.RLock()
	for _, a := range repo.db.assignment.table {
		if a.SupervisorID == id || a.AssessorID == id || a.ParticipantID == id {
			repo.db.assignment.RUnlock()
			return true, nil
		}
	}
	repo.db.assignment.RUnlock()

	repo.db.assessment.RLock()
	defer repo.db.assessment.RUnlock()
	for _, a := range repo.db.assessment.table {
		if a.AssessorID == id || a.ParticipantUserID == id || a.ReviewerID == id {
			return true, nil
		}
	}
	return false, nil
}

func (repo *userRepository) AddNotification(userID string, n user.Notification, max int) error {
	repo.db.user.Lock()
	defer repo.db.user.Unlock()

	usr, ok := repo.db.user.table[userID]
	if !ok {
		return user.ErrNotFound
	}

	// newest first, oldest evicted beyond max
	usr.Notifications = append([]user.Notification{n}, usr.Notifications...)
	if max > 0 && len(usr.Notifications) > max {
		usr.Notifications = usr.Notifications[:max]
	}
	return nil
}

func (repo *userRepository) MarkNotificationsRead(userID string) error {
	repo.db.user.Lock()
	defer repo.db.user.Unlock()

	usr, ok := repo.db.user.table[userID]
	if !ok {
		return user.ErrNotFound
	}
	for i := range usr.Notifications {
		usr.Notifications[i].IsRead = true
	}
	return nil
}
