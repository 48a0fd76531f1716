package dummydb

import (
	"sort"

	"github.com/google/uuid"

	"github.com/uwezocare/uwezo/core"
	"github.com/uwezocare/uwezo/core/assignment"
)

type assignmentRepository struct {
	db *DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *DB) assignment.Repository {
	return &assignmentRepository{db: db}
}

func (repo *assignmentRepository) CreateAssignment(a assignment.Assignment) (assignment.Assignment, error) {
	repo.db.assignment.Lock()
	defer repo.db.assignment.Unlock()

	a.ID = uuid.New().String()
	repo.db.assignment.table[a.ID] = &a
	return a, nil
}

func (repo *assignmentRepository) GetAssignmentByID(id string) (assignment.Assignment, error) {
	repo.db.assignment.RLock()
	defer repo.db.assignment.RUnlock()

	if a, ok := repo.db.assignment.table[id]; ok {
		return *a, nil
	}
	return assignment.Assignment{}, assignment.ErrNotFound
}

func (repo *assignmentRepository) FilterAssignments(filter assignment.QueryFilter, orderings ...core.DBOrdering) ([]assignment.Assignment, error) {
	repo.db.assignment.RLock()
	defer repo.db.assignment.RUnlock()

	out := make([]assignment.Assignment, 0, len(repo.db.assignment.table))
	for _, a := range repo.db.assignment.table {
		if filter.SupervisorID != "" && a.SupervisorID != filter.SupervisorID {
			continue
		}
		if filter.AssessorID != "" && a.AssessorID != filter.AssessorID {
			continue
		}
		if filter.ParticipantID != "" && a.ParticipantID != filter.ParticipantID {
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

	// only created_at ordering is needed in-memory; default newest first
	ascending := false
	if len(orderings) > 0 && orderings[0].Field == "created_at" {
		ascending = orderings[0].Ascending
	}
	sort.Slice(out, func(i, j int) bool {
		if ascending {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (repo *assignmentRepository) UpdateAssignment(a assignment.Assignment) (assignment.Assignment, error) {
	repo.db.assignment.Lock()
	defer repo.db.assignment.Unlock()

	if _, ok := repo.db.assignment.table[a.ID]; !ok {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	repo.db.assignment.table[a.ID] = &a
	return a, nil
}

func (repo *assignmentRepository) DeleteAssignmentsByID(ids ...string) error {
	repo.db.assignment.Lock()
	defer repo.db.assignment.Unlock()

	for _, id := range ids {
		delete(repo.db.assignment.table, id)
	}
	return nil
}

func (repo *assignmentRepository) LinkAssessment(assignmentID, assessmentID string) error {
	repo.db.assignment.Lock()
	defer repo.db.assignment.Unlock()

	a, ok := repo.db.assignment.table[assignmentID]
	if !ok {
		return assignment.ErrNotFound
	}
	a.AssessmentIDs = append(a.AssessmentIDs, assessmentID)
	return nil
}
