package assignment

import (
	"time"

	"github.com/uwezocare/uwezo/core"
	"github.com/uwezocare/uwezo/core/user"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusAccepted   Status = "accepted"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

var allStatuses = []Status{StatusPending, StatusAccepted, StatusInProgress, StatusCompleted, StatusCancelled}

func (s Status) Valid() bool {
	for _, st := range allStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// Terminal statuses permit no further transition.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s Status) String() string { return string(s) }

type transition struct {
	from, to Status
}

// assessorTransitions is the full set of status changes the assignment's
// own assessor may make: the forward chain one step at a time, plus
// cancelling while still pending. The assignment's own supervisor and
// any admin may instead set any status from any non-terminal state.
var assessorTransitions = map[transition]bool{
	{StatusPending, StatusAccepted}:     true,
	{StatusPending, StatusCancelled}:    true,
	{StatusAccepted, StatusInProgress}:  true,
	{StatusInProgress, StatusCompleted}: true,
}

// history actions
const (
	ActionCreated       = "created"
	ActionStatusChanged = "status_changed"
	ActionNoteAdded     = "note_added"
)

// HistoryEntry is one append-only audit record of a mutation.
type HistoryEntry struct {
	Action         string    `json:"action"`
	ActorID        string    `json:"actor"`
	At             time.Time `json:"at"` // UTC
	Details        string    `json:"details,omitempty"`
	PreviousStatus Status    `json:"previous_status,omitempty"`
}

// Note is a timestamped, attributed entry in an assignment's freeform
// notes log.
type Note struct {
	AuthorID string    `json:"author"`
	Text     string    `json:"text"`
	At       time.Time `json:"at"` // UTC
}

// LastActivity summarizes the most recent mutation for fast dashboard
// display, without walking the history log.
type LastActivity struct {
	At   time.Time `json:"at"` // UTC
	By   string    `json:"by"`
	Type string    `json:"type"`
}

type Assignment struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	SupervisorID  string `json:"supervisor"`
	AssessorID    string `json:"assessor"`
	ParticipantID string `json:"participant"`

	RequiredSections []string `json:"required_sections"`
	AssessmentIDs    []string `json:"assessments,omitempty"`

	Status Status `json:"status"`

	DueDate        time.Time `json:"due_date,omitempty"`
	StartDate      time.Time `json:"start_date,omitempty"`      // set on first transition into accepted
	CompletionDate time.Time `json:"completion_date,omitempty"` // set on first transition into completed

	Notes        []Note         `json:"notes,omitempty"`
	History      []HistoryEntry `json:"history"`
	LastActivity LastActivity   `json:"last_activity"`

	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// IsStakeholder reports whether the actor is one of the assignment's
// three parties.
func (a Assignment) IsStakeholder(actor user.Actor) bool {
	return actor.ID == a.SupervisorID || actor.ID == a.AssessorID || actor.ID == a.ParticipantID
}

// authorizeTransition applies the transition table: the assignment's own
// supervisor and any admin may set any status while the assignment is
// non-terminal; the assigned assessor may only make the moves listed in
// assessorTransitions. Everyone else is rejected. The terminal check is
// the caller's responsibility (it precedes authorization).
func (a Assignment) authorizeTransition(actor user.Actor, to Status) error {
	switch {
	case actor.IsAdmin():
		return nil
	case actor.IsSupervisor() && actor.ID == a.SupervisorID:
		return nil
	case actor.IsAssessor() && actor.ID == a.AssessorID:
		if assessorTransitions[transition{a.Status, to}] {
			return nil
		}
		return core.NewInvalidTransitionError(a.Status.String(), to.String())
	}
	return core.NewAuthorizationError("not allowed to change this assignment's status")
}

// NewAssignment contains information needed to create a new Assignment.
type NewAssignment struct {
	Title            string    `json:"title" validate:"required"`
	Description      string    `json:"description"`
	Assessor         string    `json:"assessor" validate:"required"`
	Participant      string    `json:"participant" validate:"required"`
	DueDate          time.Time `json:"due_date"`
	RequiredSections []string  `json:"required_sections" validate:"required,min=1"`
}

func (na *NewAssignment) Validate() error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	return core.Validate.Struct(na)
}

type QueryFilter struct {
	SupervisorID  string
	AssessorID    string
	ParticipantID string
	Status        Status
	CreatedFrom   time.Time
	CreatedTo     time.Time
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.SupervisorID == "" && qf.AssessorID == "" && qf.ParticipantID == "" &&
		qf.Status == "" && qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}
