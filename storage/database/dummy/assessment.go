package dummydb

import (
	"sort"

	"github.com/google/uuid"

	"github.com/uwezocare/uwezo/core/assessment"
)

type assessmentRepository struct {
	db *DB
}

var _ assessment.Repository = (*assessmentRepository)(nil) // interface compliance check

func NewAssessmentRepository(db *DB) assessment.Repository {
	return &assessmentRepository{db: db}
}

func (repo *assessmentRepository) CreateAssessment(a assessment.Assessment) (assessment.Assessment, error) {
	repo.db.assessment.Lock()
	defer repo.db.assessment.Unlock()

	a.ID = uuid.New().String()
	repo.db.assessment.table[a.ID] = &a
	return a, nil
}

func (repo *assessmentRepository) GetAssessmentByID(id string) (assessment.Assessment, error) {
	repo.db.assessment.RLock()
	defer repo.db.assessment.RUnlock()

	if a, ok := repo.db.assessment.table[id]; ok {
		return *a, nil
	}
	return assessment.Assessment{}, assessment.ErrNotFound
}

func (repo *assessmentRepository) FilterAssessments(filter assessment.QueryFilter) ([]assessment.Assessment, error) {
	repo.db.assessment.RLock()
	defer repo.db.assessment.RUnlock()

	out := make([]assessment.Assessment, 0, len(repo.db.assessment.table))
	for _, a := range repo.db.assessment.table {
		if filter.AssessorID != "" && a.AssessorID != filter.AssessorID {
			continue
		}
		if filter.ParticipantUserID != "" && a.ParticipantUserID != filter.ParticipantUserID {
			continue
		}
		if filter.AssignmentID != "" && a.AssignmentID != filter.AssignmentID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if !filter.CreatedFrom.IsZero() && a.CreatedAt.Before(filter.CreatedFrom) {
			continue
		}
		if !filter.CreatedTo.IsZero() && a.CreatedAt.After(filter.CreatedTo) {
			continue
		}
		out = append(out, *a)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (repo *assessmentRepository) UpdateAssessment(a assessment.Assessment) (assessment.Assessment, error) {
	repo.db.assessment.Lock()
	defer repo.db.assessment.Unlock()

	if _, ok := repo.db.assessment.table[a.ID]; !ok {
		return assessment.Assessment{}, assessment.ErrNotFound
	}
	repo.db.assessment.table[a.ID] = &a
	return a, nil
}

func (repo *assessmentRepository) DeleteAssessmentsByID(ids ...string) error {
	repo.db.assessment.Lock()
	defer repo.db.assessment.Unlock()

	for _, id := range ids {
		delete(repo.db.assessment.table, id)
	}
	return nil
}
