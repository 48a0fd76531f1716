package dummydb

import (
	"github.com/google/uuid"

	"github.com/uwezocare/uwezo/core/participant"
)

type participantRepository struct {
	db *DB
}

var _ participant.Repository = (*participantRepository)(nil) // interface compliance check

func NewParticipantRepository(db *DB) participant.Repository {
	return &participantRepository{db: db}
}

func (repo *participantRepository) CreateParticipant(p participant.Participant) (participant.Participant, error) {
	repo.db.participant.Lock()
	defer repo.db.participant.Unlock()

	p.ID = uuid.New().String()
	repo.db.participant.table[p.ID] = &p
	return p, nil
}

func (repo *participantRepository) QueryAllParticipants() ([]participant.Participant, error) {
	repo.db.participant.RLock()
	defer repo.db.participant.RUnlock()

	out := make([]participant.Participant, 0, len(repo.db.participant.table))
	for _, p := range repo.db.participant.table {
		out = append(out, *p)
	}
	return out, nil
}

func (repo *participantRepository) GetParticipantByID(id string) (participant.Participant, error) {
	repo.db.participant.RLock()
	defer repo.db.participant.RUnlock()

	if p, ok := repo.db.participant.table[id]; ok {
		return *p, nil
	}
	return participant.Participant{}, participant.ErrNotFound
}

func (repo *participantRepository) GetParticipantByNDISNumber(ndisNumber string) (participant.Participant, error) {
	repo.db.participant.RLock()
	defer repo.db.participant.RUnlock()

	for _, p := range repo.db.participant.table {
		if p.NDISNumber == ndisNumber {
			return *p, nil
		}
	}
	return participant.Participant{}, participant.ErrNotFound
}

func (repo *participantRepository) UpdateParticipant(p participant.Participant) (participant.Participant, error) {
	repo.db.participant.Lock()
	defer repo.db.participant.Unlock()

	if _, ok := repo.db.participant.table[p.ID]; !ok {
		return participant.Participant{}, participant.ErrNotFound
	}
	repo.db.participant.table[p.ID] = &p
	return p, nil
}

func (repo *participantRepository) DeleteParticipantsByID(ids ...string) error {
	repo.db.participant.Lock()
	defer repo.db.participant.Unlock()

	for _, id := range ids {
		delete(repo.db.participant.table, id)
	}
	return nil
}
