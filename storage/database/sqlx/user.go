package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/uwezocare/uwezo/core/user"
)

type userRow struct {
	ID            string         `db:"id"`
	Name          string         `db:"name"`
	Email         string         `db:"email"`
	Role          string         `db:"role"`
	Organization  string         `db:"organization"`
	IsActive      bool           `db:"is_active"`
	PasswordHash  []byte         `db:"password_hash"`
	NDISNumber    sql.NullString `db:"ndis_number"`
	DateOfBirth   sql.NullTime   `db:"date_of_birth"`
	ContactNumber string         `db:"contact_number"`
	Address       string         `db:"address"`
	Notifications []byte         `db:"notifications"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
	LastLogin     sql.NullTime   `db:"last_login"`
}

func (r userRow) unmarshal() (user.User, error) {
	usr := user.User{
		ID:            r.ID,
		Name:          r.Name,
		Email:         r.Email,
		Role:          user.Role(r.Role),
		Organization:  r.Organization,
		IsActive:      r.IsActive,
		PasswordHash:  r.PasswordHash,
		NDISNumber:    strOrEmpty(r.NDISNumber),
		DateOfBirth:   timeOrZero(r.DateOfBirth),
		ContactNumber: r.ContactNumber,
		Address:       r.Address,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
		LastLogin:     timeOrZero(r.LastLogin),
	}
	err := fromJSON(r.Notifications, &usr.Notifications)
	return usr, err
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckUniqueness(email, ndisNumber string, excludedUsers ...user.User) error {
	exclIDs := make([]string, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		exclIDs = append(exclIDs, usr.ID)
	}
	// the unique indexes enforce this too; checking up front yields
	// field-level validation errors instead of driver errors
	if email != "" {
		exists, err := repo.exists(`SELECT 1 FROM "user" WHERE email = $1 AND id != ALL($2)`, email, exclIDs)
		if err != nil {
			return err
		}
		if exists {
			return user.ErrEmailExists
		}
	}
	if ndisNumber != "" {
		exists, err := repo.exists(`SELECT 1 FROM "user" WHERE ndis_number = $1 AND id != ALL($2)`, ndisNumber, exclIDs)
		if err != nil {
			return err
		}
		if exists {
			return user.ErrNDISNumberExists
		}
		// participant contact records hold NDIS numbers too
		exists, err = repo.exists(
			`SELECT 1 FROM participant WHERE ndis_number = $1 AND (linked_user_id IS NULL OR linked_user_id != ALL($2))`,
			ndisNumber, exclIDs)
		if err != nil {
			return err
		}
		if exists {
			return user.ErrNDISNumberExists
		}
	}
	return nil
}

func (repo *userRepository) exists(query string, val string, exclIDs []string) (bool, error) {
	var one int
	err := repo.db.QueryRow(query, val, pqStringArray(exclIDs)).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "checking uniqueness")
	}
	return true, nil
}

func (repo *userRepository) CreateUser(usr user.User) (user.User, error) {
	const q = `
		INSERT INTO "user" (name, email, role, organization, is_active, password_hash,
			ndis_number, date_of_birth, contact_number, address, notifications, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`
	notifs := usr.Notifications
	if notifs == nil {
		notifs = []user.Notification{}
	}
	err := repo.db.QueryRow(q,
		usr.Name, usr.Email, usr.Role.String(), usr.Organization, usr.IsActive, usr.PasswordHash,
		nullStr(usr.NDISNumber), nullTime(usr.DateOfBirth), usr.ContactNumber, usr.Address,
		mustJSON(notifs), usr.CreatedAt, usr.UpdatedAt,
	).Scan(&usr.ID)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) QueryAllUsers() ([]user.User, error) {
	return repo.queryUsers(`SELECT * FROM "user" ORDER BY created_at DESC`)
}

func (repo *userRepository) queryUsers(query string, args ...interface{}) ([]user.User, error) {
	var rows []userRow
	if err := repo.db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		usr, err := r.unmarshal()
		if err != nil {
			return nil, err
		}
		users = append(users, usr)
	}
	return users, nil
}

func (repo *userRepository) getUser(query string, args ...interface{}) (user.User, error) {
	var r userRow
	err := repo.db.Get(&r, query, args...)
	if err == sql.ErrNoRows {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return r.unmarshal()
}

func (repo *userRepository) GetUserByID(id string) (user.User, error) {
	return repo.getUser(`SELECT * FROM "user" WHERE id = $1`, id)
}

func (repo *userRepository) GetUserByEmail(email string) (user.User, error) {
	return repo.getUser(`SELECT * FROM "user" WHERE email = $1`, email)
}

func (repo *userRepository) FilterUsers(filter user.QueryFilter) ([]user.User, error) {
	query := `SELECT * FROM "user" WHERE 1=1`
	args := make([]interface{}, 0, 5)
	arg := func(v interface{}) string {
		args = append(args, v)
		return dollar(len(args))
	}

	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		query += ` AND (name ILIKE ` + p + ` OR email ILIKE ` + p + `)`
	}
	if filter.Role != "" {
		query += ` AND role = ` + arg(filter.Role.String())
	}
	if filter.IsActive != nil {
		query += ` AND is_active = ` + arg(*filter.IsActive)
	}
	if !filter.CreatedFrom.IsZero() {
		query += ` AND created_at >= ` + arg(filter.CreatedFrom)
	}
	if !filter.CreatedTo.IsZero() {
		query += ` AND created_at <= ` + arg(filter.CreatedTo)
	}
	query += ` ORDER BY created_at DESC`

	return repo.queryUsers(query, args...)
}

func (repo *userRepository) UpdateUser(usr user.User, isActive *bool) (user.User, error) {
	// read-merge-write; each aggregate is one row so the final UPDATE
	// is atomic (last write wins, per the storage contract)
	orig, err := repo.GetUserByID(usr.ID)
	if err != nil {
		return user.User{}, err
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

	const q = `
		UPDATE "user" SET name=$2, email=$3, role=$4, organization=$5, is_active=$6,
			password_hash=$7, ndis_number=$8, date_of_birth=$9, contact_number=$10,
			address=$11, updated_at=$12, last_login=$13
		WHERE id = $1`
	_, err = repo.db.Exec(q,
		orig.ID, orig.Name, orig.Email, orig.Role.String(), orig.Organization, orig.IsActive,
		orig.PasswordHash, nullStr(orig.NDISNumber), nullTime(orig.DateOfBirth), orig.ContactNumber,
		orig.Address, orig.UpdatedAt, nullTime(orig.LastLogin),
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return orig, nil
}

func (repo *userRepository) DeleteUsersByID(ids ...string) error {
	_, err := repo.db.Exec(`DELETE FROM "user" WHERE id = ANY($1)`, pqStringArray(ids))
	return errors.Wrap(err, "deleting users")
}

func (repo *userRepository) UserHasWork(id string) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM assignment WHERE supervisor_id = $1 OR assessor_id = $1 OR participant_id = $1
		) OR EXISTS (
			SELECT 1 FROM assessment WHERE assessor_id = $1 OR participant_user_id = $1 OR reviewer_id = $1
		)`
	var hasWork bool
	if err := repo.db.QueryRow(q, id).Scan(&hasWork); err != nil {
		return false, errors.Wrap(err, "checking user references")
	}
	return hasWork, nil
}

func (repo *userRepository) AddNotification(userID string, n user.Notification, max int) error {
	tx, err := repo.db.Beginx()
	if err != nil {
		return errors.Wrap(err, "beginning notification tx")
	}
	defer func() { _ = tx.Rollback() }()

	var raw []byte
	err = tx.QueryRow(`SELECT notifications FROM "user" WHERE id = $1 FOR UPDATE`, userID).Scan(&raw)
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	if err != nil {
		return errors.Wrap(err, "loading notifications")
	}

	var notifs []user.Notification
	if err = fromJSON(raw, &notifs); err != nil {
		return err
	}

	// newest first, oldest evicted beyond max
	notifs = append([]user.Notification{n}, notifs...)
	if max > 0 && len(notifs) > max {
		notifs = notifs[:max]
	}

	if _, err = tx.Exec(`UPDATE "user" SET notifications = $2 WHERE id = $1`, userID, mustJSON(notifs)); err != nil {
		return errors.Wrap(err, "storing notifications")
	}
	return errors.Wrap(tx.Commit(), "committing notification tx")
}

func (repo *userRepository) MarkNotificationsRead(userID string) error {
	const q = `
		UPDATE "user"
		SET notifications = (
			SELECT COALESCE(jsonb_agg(n || '{"is_read": true}'), '[]'::jsonb)
			FROM jsonb_array_elements(notifications) AS n
		)
		WHERE id = $1`
	res, err := repo.db.Exec(q, userID)
	if err != nil {
		return errors.Wrap(err, "marking notifications read")
	}
	if count, err := res.RowsAffected(); err == nil && count == 0 {
		return user.ErrNotFound
	}
	return nil
}
