package assignment

import (
	"fmt"
	"time"

	"github.com/uwezocare/uwezo/core"
	"github.com/uwezocare/uwezo/core/notif"
	"github.com/uwezocare/uwezo/core/user"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("assignment not found")
	ErrHasAssessments     = core.NewConflictError("assignment has linked assessments; cancel it instead of deleting")
	ErrNotAssessorRole    = "assessor must be a user with the assessor role"
	ErrNotParticipantRole = "participant must be a user with the participant role"
	errNotAllowed         = "not allowed to access this assignment"
	errNoteNotAllowed     = "only the assignment's supervisor, assessor or an admin may add notes"
	errCreateNotAllowed   = "only supervisors and admins may create assignments"
	errDeleteNotAllowed   = "only the assignment's supervisor or an admin may delete it"
)

type (
	Repository interface {
		CreateAssignment(a Assignment) (Assignment, error)
		GetAssignmentByID(id string) (Assignment, error)
		// FilterAssignments applies AND operation on available QueryFilter fields.
		FilterAssignments(filter QueryFilter, orderings ...core.DBOrdering) ([]Assignment, error)
		// UpdateAssignment persists the whole record in one write; the
		// storage layer provides per-record atomicity only (last write
		// wins under concurrency, no optimistic-concurrency token).
		UpdateAssignment(a Assignment) (Assignment, error)
		DeleteAssignmentsByID(ids ...string) error
		// LinkAssessment appends an assessment reference to the assignment.
		LinkAssessment(assignmentID, assessmentID string) error
	}

	Service struct {
		repo       Repository
		users      user.Repository
		dispatcher *notif.Dispatcher
	}
)

func NewService(repo Repository, users user.Repository, dispatcher *notif.Dispatcher) *Service {
	return &Service{repo: repo, users: users, dispatcher: dispatcher}
}

func (svc *Service) link(id string) string {
	return "/assignments/" + id
}

// Create validates the parties and persists a new pending assignment,
// then notifies the assessor and participant.
func (svc *Service) Create(na NewAssignment, actor user.Actor) (Assignment, error) {
	if !actor.IsSupervisor() && !actor.IsAdmin() {
		return Assignment{}, core.NewAuthorizationError(errCreateNotAllowed)
	}
	if err := na.Validate(); err != nil {
		return Assignment{}, err
	}

	assessor, err := svc.users.GetUserByID(na.Assessor)
	if err != nil {
		return Assignment{}, err
	}
	if !assessor.IsAssessor() {
		return Assignment{}, core.NewValidationError(nil, core.FieldError{Field: "assessor", Error: ErrNotAssessorRole})
	}
	pcpt, err := svc.users.GetUserByID(na.Participant)
	if err != nil {
		return Assignment{}, err
	}
	if !pcpt.IsParticipant() {
		return Assignment{}, core.NewValidationError(nil, core.FieldError{Field: "participant", Error: ErrNotParticipantRole})
	}

	now := time.Now().UTC()
	a := Assignment{
		Title:            na.Title,
		Description:      na.Description,
		SupervisorID:     actor.ID,
		AssessorID:       assessor.ID,
		ParticipantID:    pcpt.ID,
		RequiredSections: na.RequiredSections,
		Status:           StatusPending,
		DueDate:          na.DueDate,
		History: []HistoryEntry{{
			Action:  ActionCreated,
			ActorID: actor.ID,
			At:      now,
			Details: "assignment created",
		}},
		LastActivity: LastActivity{At: now, By: actor.ID, Type: ActionCreated},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	a, err = svc.repo.CreateAssignment(a)
	if err != nil {
		return Assignment{}, err
	}

	svc.dispatcher.Notify(a.AssessorID,
		fmt.Sprintf("You have been assigned a new assessment: %s", a.Title),
		notif.TypeAssignment, svc.link(a.ID), true)
	svc.dispatcher.Notify(a.ParticipantID,
		fmt.Sprintf("An assessment has been scheduled for you: %s", a.Title),
		notif.TypeAssignment, svc.link(a.ID), true)

	return a, nil
}

// UpdateStatus runs the assignment state machine: terminal check, then
// the role/ownership transition table, then the mutation with its
// idempotent date stamps and history append, and finally the best-effort
// notification fan-out. The notification stage never fails the mutation.
func (svc *Service) UpdateStatus(id string, newStatus Status, actor user.Actor) (Assignment, error) {
	if !newStatus.Valid() {
		return Assignment{}, core.NewValidationError(
			fmt.Errorf("unknown status %q", newStatus),
			core.FieldError{Field: "status", Error: fmt.Sprintf("unknown status %q", newStatus)},
		)
	}

	a, err := svc.repo.GetAssignmentByID(id)
	if err != nil {
		return Assignment{}, err
	}

	if a.Status.Terminal() {
		return Assignment{}, core.NewInvalidTransitionError(a.Status.String(), newStatus.String())
	}
	if err = a.authorizeTransition(actor, newStatus); err != nil {
		return Assignment{}, err
	}

	now := time.Now().UTC()
	prev := a.Status
	a.Status = newStatus

	// date stamps are idempotent: never overwritten once set
	if newStatus == StatusAccepted && a.StartDate.IsZero() {
		a.StartDate = now
	}
	if newStatus == StatusCompleted && a.CompletionDate.IsZero() {
		a.CompletionDate = now
	}

	a.History = append(a.History, HistoryEntry{
		Action:         ActionStatusChanged,
		ActorID:        actor.ID,
		At:             now,
		Details:        fmt.Sprintf("status changed from %s to %s", prev, newStatus),
		PreviousStatus: prev,
	})
	a.LastActivity = LastActivity{At: now, By: actor.ID, Type: ActionStatusChanged}
	a.UpdatedAt = now

	a, err = svc.repo.UpdateAssignment(a)
	if err != nil {
		return Assignment{}, err
	}

	// best-effort side effects after the primary mutation persisted
	terminal := newStatus.Terminal()
	msg := fmt.Sprintf("Assignment %q status changed from %s to %s", a.Title, prev, newStatus)
	if actor.ID != a.SupervisorID {
		svc.dispatcher.Notify(a.SupervisorID, msg, notif.TypeStatus, svc.link(a.ID), terminal)
	}
	if actor.ID != a.AssessorID {
		svc.dispatcher.Notify(a.AssessorID, msg, notif.TypeStatus, svc.link(a.ID), terminal)
	}
	if terminal {
		pmsg := fmt.Sprintf("Your assessment %q has been %s", a.Title, newStatus)
		svc.dispatcher.Notify(a.ParticipantID, pmsg, notif.TypeStatus, svc.link(a.ID), true)
	}

	return a, nil
}

// AddNote appends a timestamped, attributed note and notifies the
// non-actor stakeholders.
func (svc *Service) AddNote(id, text string, actor user.Actor) (Assignment, error) {
	text = core.CleanString(text)
	if text == "" {
		return Assignment{}, core.NewValidationError(
			fmt.Errorf("note text is required"),
			core.FieldError{Field: "note", Error: "this field is required"},
		)
	}

	a, err := svc.repo.GetAssignmentByID(id)
	if err != nil {
		return Assignment{}, err
	}
	if !actor.IsAdmin() && actor.ID != a.SupervisorID && actor.ID != a.AssessorID {
		return Assignment{}, core.NewAuthorizationError(errNoteNotAllowed)
	}

	now := time.Now().UTC()
	a.Notes = append(a.Notes, Note{AuthorID: actor.ID, Text: text, At: now})
	a.History = append(a.History, HistoryEntry{
		Action:  ActionNoteAdded,
		ActorID: actor.ID,
		At:      now,
		Details: "note added",
	})
	a.LastActivity = LastActivity{At: now, By: actor.ID, Type: ActionNoteAdded}
	a.UpdatedAt = now

	a, err = svc.repo.UpdateAssignment(a)
	if err != nil {
		return Assignment{}, err
	}

	msg := fmt.Sprintf("A note was added to assignment %q", a.Title)
	for _, id := range []string{a.SupervisorID, a.AssessorID, a.ParticipantID} {
		if id != actor.ID {
			svc.dispatcher.Notify(id, msg, notif.TypeNote, svc.link(a.ID), false)
		}
	}

	return a, nil
}

// Delete removes an assignment that has no linked assessments yet; once
// work has begun it must be cancelled instead.
func (svc *Service) Delete(id string, actor user.Actor) error {
	a, err := svc.repo.GetAssignmentByID(id)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() && actor.ID != a.SupervisorID {
		return core.NewAuthorizationError(errDeleteNotAllowed)
	}
	if len(a.AssessmentIDs) > 0 {
		return ErrHasAssessments
	}

	if err = svc.repo.DeleteAssignmentsByID(id); err != nil {
		return err
	}

	msg := fmt.Sprintf("Assignment %q has been removed", a.Title)
	svc.dispatcher.Notify(a.AssessorID, msg, notif.TypeAssignment, "", false)
	svc.dispatcher.Notify(a.ParticipantID, msg, notif.TypeAssignment, "", false)
	return nil
}

func (svc *Service) GetByID(id string, actor user.Actor) (Assignment, error) {
	a, err := svc.repo.GetAssignmentByID(id)
	if err != nil {
		return Assignment{}, err
	}
	if !actor.IsAdmin() && !a.IsStakeholder(actor) {
		return Assignment{}, core.NewAuthorizationError(errNotAllowed)
	}
	return a, nil
}

// Filter lists assignments scoped to the actor's role: own records for
// assessors and participants, supervised records for supervisors,
// everything for admins.
func (svc *Service) Filter(filter QueryFilter, actor user.Actor, orderings ...core.DBOrdering) ([]Assignment, error) {
	switch {
	case actor.IsAssessor():
		filter.AssessorID = actor.ID
	case actor.IsParticipant():
		filter.ParticipantID = actor.ID
	case actor.IsSupervisor():
		filter.SupervisorID = actor.ID
	}
	return svc.repo.FilterAssignments(filter, orderings...)
}
