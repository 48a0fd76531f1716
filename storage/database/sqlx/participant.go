package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/uwezocare/uwezo/core/participant"
)

type participantRow struct {
	ID            string         `db:"id"`
	FullName      string         `db:"full_name"`
	NDISNumber    string         `db:"ndis_number"`
	DateOfBirth   sql.NullTime   `db:"date_of_birth"`
	ContactNumber string         `db:"contact_number"`
	Address       string         `db:"address"`
	LinkedUserID  sql.NullString `db:"linked_user_id"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (r participantRow) unmarshal() participant.Participant {
	return participant.Participant{
		ID:            r.ID,
		FullName:      r.FullName,
		NDISNumber:    r.NDISNumber,
		DateOfBirth:   timeOrZero(r.DateOfBirth),
		ContactNumber: r.ContactNumber,
		Address:       r.Address,
		LinkedUserID:  strOrEmpty(r.LinkedUserID),
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
}

type participantRepository struct {
	db *sqlx.DB
}

var _ participant.Repository = (*participantRepository)(nil) // interface compliance check

func NewParticipantRepository(db *sqlx.DB) participant.Repository {
	return &participantRepository{db: db}
}

func (repo *participantRepository) CreateParticipant(p participant.Participant) (participant.Participant, error) {
	const q = `
		INSERT INTO participant (full_name, ndis_number, date_of_birth, contact_number, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	err := repo.db.QueryRow(q,
		p.FullName, p.NDISNumber, nullTime(p.DateOfBirth), p.ContactNumber, p.Address, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		return participant.Participant{}, errors.Wrap(err, "inserting participant")
	}
	return p, nil
}

func (repo *participantRepository) QueryAllParticipants() ([]participant.Participant, error) {
	var rows []participantRow
	if err := repo.db.Select(&rows, `SELECT * FROM participant ORDER BY created_at DESC`); err != nil {
		return nil, errors.Wrap(err, "querying participants")
	}
	out := make([]participant.Participant, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.unmarshal())
	}
	return out, nil
}

func (repo *participantRepository) getParticipant(query string, args ...interface{}) (participant.Participant, error) {
	var r participantRow
	err := repo.db.Get(&r, query, args...)
	if err == sql.ErrNoRows {
		return participant.Participant{}, participant.ErrNotFound
	}
	if err != nil {
		return participant.Participant{}, errors.Wrap(err, "getting participant")
	}
	return r.unmarshal(), nil
}

func (repo *participantRepository) GetParticipantByID(id string) (participant.Participant, error) {
	return repo.getParticipant(`SELECT * FROM participant WHERE id = $1`, id)
}

func (repo *participantRepository) GetParticipantByNDISNumber(ndisNumber string) (participant.Participant, error) {
	return repo.getParticipant(`SELECT * FROM participant WHERE ndis_number = $1`, ndisNumber)
}

func (repo *participantRepository) UpdateParticipant(p participant.Participant) (participant.Participant, error) {
	const q = `
		UPDATE participant SET full_name=$2, ndis_number=$3, date_of_birth=$4,
			contact_number=$5, address=$6, linked_user_id=$7, updated_at=$8
		WHERE id = $1`
	res, err := repo.db.Exec(q,
		p.ID, p.FullName, p.NDISNumber, nullTime(p.DateOfBirth),
		p.ContactNumber, p.Address, nullStr(p.LinkedUserID), p.UpdatedAt,
	)
	if err != nil {
		return participant.Participant{}, errors.Wrap(err, "updating participant")
	}
	if count, err := res.RowsAffected(); err == nil && count == 0 {
		return participant.Participant{}, participant.ErrNotFound
	}
	return p, nil
}

func (repo *participantRepository) DeleteParticipantsByID(ids ...string) error {
	_, err := repo.db.Exec(`DELETE FROM participant WHERE id = ANY($1)`, pqStringArray(ids))
	return errors.Wrap(err, "deleting participants")
}
