package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/uwezocare/uwezo/core/assessment"
)

type assessmentRow struct {
	ID                 string         `db:"id"`
	ParticipantDetails []byte         `db:"participant_details"`
	SectionTitles      []byte         `db:"section_titles"`
	Questions          []byte         `db:"questions"`
	Responses          []byte         `db:"responses"`
	Comments           []byte         `db:"comments"`
	TotalScore         int            `db:"total_score"`
	Interpretation     string         `db:"interpretation"`
	Status             string         `db:"status"`
	AssessorID         string         `db:"assessor_id"`
	ParticipantUserID  sql.NullString `db:"participant_user_id"`
	AssignmentID       sql.NullString `db:"assignment_id"`
	ReviewerID         sql.NullString `db:"reviewer_id"`
	ReviewNotes        string         `db:"review_notes"`
	History            []byte         `db:"history"`
	CreatedAt          time.Time      `db:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at"`
}

func (r assessmentRow) unmarshal() (assessment.Assessment, error) {
	a := assessment.Assessment{
		ID:                r.ID,
		TotalScore:        r.TotalScore,
		Interpretation:    r.Interpretation,
		Status:            assessment.Status(r.Status),
		AssessorID:        r.AssessorID,
		ParticipantUserID: strOrEmpty(r.ParticipantUserID),
		AssignmentID:      strOrEmpty(r.AssignmentID),
		ReviewerID:        strOrEmpty(r.ReviewerID),
		ReviewNotes:       r.ReviewNotes,
		CreatedAt:         r.CreatedAt.UTC(),
		UpdatedAt:         r.UpdatedAt.UTC(),
	}
	for _, col := range []struct {
		src []byte
		dst interface{}
	}{
		{r.ParticipantDetails, &a.Participant},
		{r.SectionTitles, &a.SectionTitles},
		{r.Questions, &a.Questions},
		{r.Responses, &a.Responses},
		{r.Comments, &a.Comments},
		{r.History, &a.History},
	} {
		if err := fromJSON(col.src, col.dst); err != nil {
			return assessment.Assessment{}, err
		}
	}
	return a, nil
}

type assessmentRepository struct {
	db *sqlx.DB
}

var _ assessment.Repository = (*assessmentRepository)(nil) // interface compliance check

func NewAssessmentRepository(db *sqlx.DB) assessment.Repository {
	return &assessmentRepository{db: db}
}

func (repo *assessmentRepository) CreateAssessment(a assessment.Assessment) (assessment.Assessment, error) {
	const q = `
		INSERT INTO assessment (participant_details, section_titles, questions, responses, comments,
			total_score, interpretation, status, assessor_id, participant_user_id, assignment_id,
			reviewer_id, review_notes, history, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id`
	err := repo.db.QueryRow(q,
		mustJSON(a.Participant), mustJSON(a.SectionTitles), mustJSON(a.Questions),
		mustJSON(a.Responses), mustJSON(a.Comments), a.TotalScore, a.Interpretation,
		a.Status.String(), a.AssessorID, nullStr(a.ParticipantUserID), nullStr(a.AssignmentID),
		nullStr(a.ReviewerID), a.ReviewNotes, mustJSON(a.History), a.CreatedAt, a.UpdatedAt,
	).Scan(&a.ID)
	if err != nil {
		return assessment.Assessment{}, errors.Wrap(err, "inserting assessment")
	}
	return a, nil
}

func (repo *assessmentRepository) GetAssessmentByID(id string) (assessment.Assessment, error) {
	var r assessmentRow
	err := repo.db.Get(&r, `SELECT * FROM assessment WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return assessment.Assessment{}, assessment.ErrNotFound
	}
	if err != nil {
		return assessment.Assessment{}, errors.Wrap(err, "getting assessment")
	}
	return r.unmarshal()
}

func (repo *assessmentRepository) FilterAssessments(filter assessment.QueryFilter) ([]assessment.Assessment, error) {
	query := `SELECT * FROM assessment WHERE 1=1`
	args := make([]interface{}, 0, 6)
	arg := func(v interface{}) string {
		args = append(args, v)
		return dollar(len(args))
	}

	if filter.AssessorID != "" {
		query += ` AND assessor_id = ` + arg(filter.AssessorID)
	}
	if filter.ParticipantUserID != "" {
		query += ` AND participant_user_id = ` + arg(filter.ParticipantUserID)
	}
	if filter.AssignmentID != "" {
		query += ` AND assignment_id = ` + arg(filter.AssignmentID)
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
	query += ` ORDER BY created_at DESC`

	var rows []assessmentRow
	if err := repo.db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying assessments")
	}
	out := make([]assessment.Assessment, 0, len(rows))
	for _, r := range rows {
		a, err := r.unmarshal()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (repo *assessmentRepository) UpdateAssessment(a assessment.Assessment) (assessment.Assessment, error) {
	const q = `
		UPDATE assessment SET responses=$2, comments=$3, total_score=$4, interpretation=$5,
			status=$6, reviewer_id=$7, review_notes=$8, history=$9, updated_at=$10
		WHERE id = $1`
	res, err := repo.db.Exec(q,
		a.ID, mustJSON(a.Responses), mustJSON(a.Comments), a.TotalScore, a.Interpretation,
		a.Status.String(), nullStr(a.ReviewerID), a.ReviewNotes, mustJSON(a.History), a.UpdatedAt,
	)
	if err != nil {
		return assessment.Assessment{}, errors.Wrap(err, "updating assessment")
	}
	if count, err := res.RowsAffected(); err == nil && count == 0 {
		return assessment.Assessment{}, assessment.ErrNotFound
	}
	return a, nil
}

func (repo *assessmentRepository) DeleteAssessmentsByID(ids ...string) error {
	_, err := repo.db.Exec(`DELETE FROM assessment WHERE id = ANY($1)`, pqStringArray(ids))
	return errors.Wrap(err, "deleting assessments")
}
