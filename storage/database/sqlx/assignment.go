package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/uwezocare/uwezo/core"
	"github.com/uwezocare/uwezo/core/assignment"
)

type assignmentRow struct {
	ID               string       `db:"id"`
	Title            string       `db:"title"`
	Description      string       `db:"description"`
	SupervisorID     string       `db:"supervisor_id"`
	AssessorID       string       `db:"assessor_id"`
	ParticipantID    string       `db:"participant_id"`
	RequiredSections []byte       `db:"required_sections"`
	AssessmentIDs    []byte       `db:"assessment_ids"`
	Status           string       `db:"status"`
	DueDate          sql.NullTime `db:"due_date"`
	StartDate        sql.NullTime `db:"start_date"`
	CompletionDate   sql.NullTime `db:"completion_date"`
	Notes            []byte       `db:"notes"`
	History          []byte       `db:"history"`
	LastActivity     []byte       `db:"last_activity"`
	CreatedAt        time.Time    `db:"created_at"`
	UpdatedAt        time.Time    `db:"updated_at"`
}

func (r assignmentRow) unmarshal() (assignment.Assignment, error) {
	a := assignment.Assignment{
		ID:             r.ID,
		Title:          r.Title,
		Description:    r.Description,
		SupervisorID:   r.SupervisorID,
		AssessorID:     r.AssessorID,
		ParticipantID:  r.ParticipantID,
		Status:         assignment.Status(r.Status),
		DueDate:        timeOrZero(r.DueDate),
		StartDate:      timeOrZero(r.StartDate),
		CompletionDate: timeOrZero(r.CompletionDate),
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
	for _, col := range []struct {
		src []byte
		dst interface{}
	}{
		{r.RequiredSections, &a.RequiredSections},
		{r.AssessmentIDs, &a.AssessmentIDs},
		{r.Notes, &a.Notes},
		{r.History, &a.History},
		{r.LastActivity, &a.LastActivity},
	} {
		if err := fromJSON(col.src, col.dst); err != nil {
			return assignment.Assignment{}, err
		}
	}
	return a, nil
}

type assignmentRepository struct {
	db *sqlx.DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *sqlx.DB) assignment.Repository {
	return &assignmentRepository{db: db}
}

func (repo *assignmentRepository) CreateAssignment(a assignment.Assignment) (assignment.Assignment, error) {
	const q = `
		INSERT INTO assignment (title, description, supervisor_id, assessor_id, participant_id,
			required_sections, assessment_ids, status, due_date, start_date, completion_date,
			notes, history, last_activity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id`
	err := repo.db.QueryRow(q,
		a.Title, a.Description, a.SupervisorID, a.AssessorID, a.ParticipantID,
		mustJSON(a.RequiredSections), mustJSON(orEmpty(a.AssessmentIDs)), a.Status.String(),
		nullTime(a.DueDate), nullTime(a.StartDate), nullTime(a.CompletionDate),
		mustJSON(orEmptyNotes(a.Notes)), mustJSON(a.History), mustJSON(a.LastActivity),
		a.CreatedAt, a.UpdatedAt,
	).Scan(&a.ID)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return a, nil
}

func orEmpty(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}

func orEmptyNotes(ns []assignment.Note) []assignment.Note {
	if ns == nil {
		return []assignment.Note{}
	}
	return ns
}

func (repo *assignmentRepository) GetAssignmentByID(id string) (assignment.Assignment, error) {
	var r assignmentRow
	err := repo.db.Get(&r, `SELECT * FROM assignment WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "getting assignment")
	}
	return r.unmarshal()
}

func (repo *assignmentRepository) FilterAssignments(filter assignment.QueryFilter, orderings ...core.DBOrdering) ([]assignment.Assignment, error) {
	query := `SELECT * FROM assignment WHERE 1=1`
	args := make([]interface{}, 0, 6)
	arg := func(v interface{}) string {
		args = append(args, v)
		return dollar(len(args))
	}

	if filter.SupervisorID != "" {
		query += ` AND supervisor_id = ` + arg(filter.SupervisorID)
	}
	if filter.AssessorID != "" {
		query += ` AND assessor_id = ` + arg(filter.AssessorID)
	}
	if filter.ParticipantID != "" {
		query += ` AND participant_id = ` + arg(filter.ParticipantID)
	}
	if filter.Status != "" {
		query += ` AND status = ` + arg(filter.Status.String())
	}
	if !filter.CreatedFrom.IsZero() {
		query += ` AND created_at >= ` + arg(filter.CreatedFrom)
	}
	if !filter.CreatedTo.IsZero() {
		query += ` AND created_at <= ` + arg(filter.CreatedTo)
	}

	query += ` ORDER BY `
	if len(orderings) > 0 {
		for i, ord := range orderings {
			if i > 0 {
				query += ", "
			}
			query += ord.String()
		}
	} else {
		query += `created_at DESC`
	}

	var rows []assignmentRow
	if err := repo.db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}
	out := make([]assignment.Assignment, 0, len(rows))
	for _, r := range rows {
		a, err := r.unmarshal()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (repo *assignmentRepository) UpdateAssignment(a assignment.Assignment) (assignment.Assignment, error) {
	const q = `
		UPDATE assignment SET title=$2, description=$3, required_sections=$4, assessment_ids=$5,
			status=$6, due_date=$7, start_date=$8, completion_date=$9, notes=$10, history=$11,
			last_activity=$12, updated_at=$13
		WHERE id = $1`
	res, err := repo.db.Exec(q,
		a.ID, a.Title, a.Description, mustJSON(a.RequiredSections), mustJSON(orEmpty(a.AssessmentIDs)),
		a.Status.String(), nullTime(a.DueDate), nullTime(a.StartDate), nullTime(a.CompletionDate),
		mustJSON(orEmptyNotes(a.Notes)), mustJSON(a.History), mustJSON(a.LastActivity), a.UpdatedAt,
	)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "updating assignment")
	}
	if count, err := res.RowsAffected(); err == nil && count == 0 {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	return a, nil
}

func (repo *assignmentRepository) DeleteAssignmentsByID(ids ...string) error {
	_, err := repo.db.Exec(`DELETE FROM assignment WHERE id = ANY($1)`, pqStringArray(ids))
	return errors.Wrap(err, "deleting assignments")
}

func (repo *assignmentRepository) LinkAssessment(assignmentID, assessmentID string) error {
	const q = `
		UPDATE assignment
		SET assessment_ids = assessment_ids || to_jsonb($2::text), updated_at = now()
		WHERE id = $1`
	res, err := repo.db.Exec(q, assignmentID, assessmentID)
	if err != nil {
		return errors.Wrap(err, "linking assessment")
	}
	if count, err := res.RowsAffected(); err == nil && count == 0 {
		return assignment.ErrNotFound
	}
	return nil
}
