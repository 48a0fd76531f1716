package assessment

import (
	"fmt"
	"time"

	"github.com/uwezocare/uwezo/core"
)

// Key addresses one question within an assessment template as a
// (section, question) pair. It serializes as "section-question" so maps
// keyed by Key keep the wire format of the historical string keys.
type Key struct {
	Section  int
	Question int
}

func (k Key) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("%d-%d", k.Section, k.Question)), nil
}

func (k *Key) UnmarshalText(text []byte) error {
	if _, err := fmt.Sscanf(string(text), "%d-%d", &k.Section, &k.Question); err != nil {
		return fmt.Errorf("invalid response key %q", text)
	}
	return nil
}

func (k Key) String() string {
	return fmt.Sprintf("%d-%d", k.Section, k.Question)
}

type Status string

const (
	StatusDraft         Status = "Draft"
	StatusAssigned      Status = "Assigned"
	StatusInProgress    Status = "In Progress"
	StatusCompleted     Status = "Completed"
	StatusPendingReview Status = "Pending Review"
	StatusReviewed      Status = "Reviewed"
)

var allStatuses = []Status{StatusDraft, StatusAssigned, StatusInProgress, StatusCompleted, StatusPendingReview, StatusReviewed}

func (s Status) Valid() bool {
	for _, st := range allStatuses {
		if s == st {
			return true
		}
	}
	return false
}

func (s Status) String() string { return string(s) }

// history actions
const (
	ActionCreated       = "created"
	ActionProgressSaved = "progress_saved"
	ActionSubmitted     = "submitted"
	ActionReviewed      = "reviewed"
)

// HistoryEntry is one append-only audit record of a mutation.
type HistoryEntry struct {
	Action  string    `json:"action"`
	ActorID string    `json:"actor"`
	At      time.Time `json:"at"` // UTC
	Details string    `json:"details,omitempty"`
}

// ParticipantDetails is the identity snapshot captured with an
// assessment. It is denormalized so historical records remain
// interpretable even if the participant record later changes.
type ParticipantDetails struct {
	FullName      string    `json:"full_name" validate:"required"`
	NDISNumber    string    `json:"ndis_number" validate:"required,ndisnum"`
	DateOfBirth   time.Time `json:"date_of_birth,omitempty"`
	ContactNumber string    `json:"contact_number,omitempty"`
}

type Assessment struct {
	ID          string             `json:"id"`
	Participant ParticipantDetails `json:"participant"`

	// denormalized template: SectionTitles[i] names section i and
	// Questions[i][j] is the text of question j within it.
	SectionTitles []string   `json:"section_titles"`
	Questions     [][]string `json:"questions"`

	Responses map[Key]int    `json:"responses"`
	Comments  map[Key]string `json:"comments,omitempty"`

	TotalScore     int    `json:"total_score"`
	Interpretation string `json:"interpretation"`

	Status            Status `json:"status"`
	AssessorID        string `json:"assessor"`
	ParticipantUserID string `json:"participant_user,omitempty"`
	AssignmentID      string `json:"assignment,omitempty"`
	ReviewerID        string `json:"reviewer,omitempty"`
	ReviewNotes       string `json:"review_notes,omitempty"`

	History []HistoryEntry `json:"history"`

	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// HasQuestion reports whether k addresses a declared question.
func (a Assessment) HasQuestion(k Key) bool {
	return hasQuestion(a.Questions, k)
}

func hasQuestion(questions [][]string, k Key) bool {
	return k.Section >= 0 && k.Section < len(questions) &&
		k.Question >= 0 && k.Question < len(questions[k.Section])
}

// validateKeys checks that every response and comment key references a
// declared (section, question) pair.
func validateKeys(questions [][]string, responses map[Key]int, comments map[Key]string) error {
	for k := range responses {
		if !hasQuestion(questions, k) {
			return core.NewValidationError(
				fmt.Errorf("response key %s does not match a declared question", k),
				core.FieldError{Field: "responses", Error: "unknown question " + k.String()},
			)
		}
	}
	for k := range comments {
		if !hasQuestion(questions, k) {
			return core.NewValidationError(
				fmt.Errorf("comment key %s does not match a declared question", k),
				core.FieldError{Field: "comments", Error: "unknown question " + k.String()},
			)
		}
	}
	return nil
}

// NewAssessment contains information needed to record a new Assessment.
// TotalScore and Interpretation sent by clients are advisory only; the
// service always recomputes both server-side.
type NewAssessment struct {
	Participant   ParticipantDetails `json:"participant_details" validate:"required"`
	SectionTitles []string           `json:"section_titles" validate:"required,min=1"`
	Questions     [][]string         `json:"questions" validate:"required,min=1"`
	Responses     map[Key]int        `json:"responses"`
	Comments      map[Key]string     `json:"comments"`
	AssignmentID  string             `json:"assignment"`
	Status        Status             `json:"status" validate:"omitempty,assessmentstatus"`

	// advisory; ignored
	TotalScore     int    `json:"total_score"`
	Interpretation string `json:"interpretation"`
}

func (na *NewAssessment) Validate() error {
	na.Participant.FullName = core.CleanString(na.Participant.FullName)
	na.Participant.NDISNumber = core.CleanString(na.Participant.NDISNumber)

	if err := core.Validate.Struct(na); err != nil {
		return err
	}
	if len(na.SectionTitles) != len(na.Questions) {
		return core.NewValidationError(
			fmt.Errorf("section titles and questions must align"),
			core.FieldError{Field: "questions", Error: "one question list required per section"},
		)
	}
	if na.Status == "" {
		na.Status = StatusCompleted
	}
	if na.Status == StatusCompleted && len(na.Responses) == 0 {
		return core.NewValidationError(
			fmt.Errorf("responses are required"),
			core.FieldError{Field: "responses", Error: "at least one response is required"},
		)
	}
	return validateKeys(na.Questions, na.Responses, na.Comments)
}

// ProgressUpdate is the partial-save payload used for autosave; keys are
// merged into the stored maps without requiring completeness.
type ProgressUpdate struct {
	Responses map[Key]int    `json:"responses"`
	Comments  map[Key]string `json:"comments"`
}

type QueryFilter struct {
	AssessorID        string
	ParticipantUserID string
	AssignmentID      string
	Status            Status
	CreatedFrom       time.Time
	CreatedTo         time.Time
}
