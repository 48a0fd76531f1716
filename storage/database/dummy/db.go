// Package dummydb provides in-memory repository implementations used in
// tests and local development. Each table offers per-record atomic
// read-modify-write under its lock; like the real document store there
// are no cross-table transactions and the last write wins.
package dummydb

import (
	"sync"

	"github.com/uwezocare/uwezo/core/assessment"
	"github.com/uwezocare/uwezo/core/assignment"
	"github.com/uwezocare/uwezo/core/participant"
	"github.com/uwezocare/uwezo/core/user"
)

type (
	DB struct {
		user        *userTable
		participant *participantTable
		assignment  *assignmentTable
		assessment  *assessmentTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	participantTable struct {
		sync.RWMutex
		table map[string]*participant.Participant
	}

	assignmentTable struct {
		sync.RWMutex
		table map[string]*assignment.Assignment
	}

	assessmentTable struct {
		sync.RWMutex
		table map[string]*assessment.Assessment
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:        &userTable{table: make(map[string]*user.User)},
		participant: &participantTable{table: make(map[string]*participant.Participant)},
		assignment:  &assignmentTable{table: make(map[string]*assignment.Assignment)},
		assessment:  &assessmentTable{table: make(map[string]*assessment.Assessment)},
	}
	return db, nil
}
