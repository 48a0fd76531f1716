package assessment

import (
	"errors"
	"fmt"
	"time"

	"github.com/uwezocare/uwezo/core"
	"github.com/uwezocare/uwezo/core/assignment"
	"github.com/uwezocare/uwezo/core/notif"
	"github.com/uwezocare/uwezo/core/user"
)

var (
	// errors
	ErrNotFound = core.NewNotFoundError("assessment not found")

	errNotOwnAssessment = "assessors may only access their own assessments"
	errNotAllowed       = "not allowed to access this assessment"
	errNoSubmitRight    = "only the assigned participant or the owning assessor may submit"
	errNoDeleteRight    = "only an admin or the owning assessor may delete an assessment"
	errNoReviewRight    = "only supervisors and admins may review assessments"
	errAlreadyFinal     = "assessment has already been submitted"
)

type (
	Repository interface {
		CreateAssessment(a Assessment) (Assessment, error)
		GetAssessmentByID(id string) (Assessment, error)
		// FilterAssessments applies AND operation on available QueryFilter fields.
		FilterAssessments(filter QueryFilter) ([]Assessment, error)
		UpdateAssessment(a Assessment) (Assessment, error)
		DeleteAssessmentsByID(ids ...string) error
	}

	Service struct {
		repo       Repository
		asgRepo    assignment.Repository
		dispatcher *notif.Dispatcher
	}
)

func NewService(repo Repository, asgRepo assignment.Repository, dispatcher *notif.Dispatcher) *Service {
	return &Service{repo: repo, asgRepo: asgRepo, dispatcher: dispatcher}
}

// Create records a new assessment. The total score and interpretation
// are always recomputed server-side; any client-supplied values are
// advisory only and discarded.
func (svc *Service) Create(na NewAssessment, actor user.Actor) (Assessment, error) {
	if !actor.IsAssessor() && !actor.IsParticipant() && !actor.IsAdmin() {
		return Assessment{}, core.NewAuthorizationError("only assessors may record assessments")
	}
	if err := na.Validate(); err != nil {
		return Assessment{}, err
	}

	now := time.Now().UTC()
	a := Assessment{
		Participant:   na.Participant,
		SectionTitles: na.SectionTitles,
		Questions:     na.Questions,
		Responses:     na.Responses,
		Comments:      na.Comments,
		Status:        na.Status,
		AssessorID:    actor.ID,
		AssignmentID:  na.AssignmentID,
		History: []HistoryEntry{{
			Action:  ActionCreated,
			ActorID: actor.ID,
			At:      now,
			Details: "assessment created",
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if na.AssignmentID != "" {
		asg, err := svc.asgRepo.GetAssignmentByID(na.AssignmentID)
		if err != nil {
			return Assessment{}, err
		}
		if !actor.IsAdmin() && actor.ID != asg.AssessorID && actor.ID != asg.ParticipantID {
			return Assessment{}, core.NewAuthorizationError(errNotAllowed)
		}
		a.AssessorID = asg.AssessorID
		a.ParticipantUserID = asg.ParticipantID
	} else if actor.IsParticipant() {
		a.ParticipantUserID = actor.ID
	}

	if len(a.Responses) > 0 {
		total, err := ComputeTotal(a.Responses)
		if err != nil {
			return Assessment{}, err
		}
		a.TotalScore = total
		a.Interpretation = Interpret(total)
	}

	a, err := svc.repo.CreateAssessment(a)
	if err != nil {
		return Assessment{}, err
	}

	if a.AssignmentID != "" {
		if err = svc.asgRepo.LinkAssessment(a.AssignmentID, a.ID); err != nil {
			return Assessment{}, err
		}
	}
	return a, nil
}

// UpdateProgress merges a partial autosave into the stored responses and
// comments. It neither recomputes the score nor changes the status.
func (svc *Service) UpdateProgress(id string, pu ProgressUpdate, actor user.Actor) (Assessment, error) {
	a, err := svc.repo.GetAssessmentByID(id)
	if err != nil {
		return Assessment{}, err
	}
	if err = svc.authorizeWrite(a, actor); err != nil {
		return Assessment{}, err
	}
	if a.Status == StatusCompleted || a.Status == StatusReviewed {
		return Assessment{}, core.NewValidationError(errors.New(errAlreadyFinal))
	}

	if err = validateKeys(a.Questions, pu.Responses, pu.Comments); err != nil {
		return Assessment{}, err
	}
	for k, rating := range pu.Responses {
		if !validRating(rating) {
			return Assessment{}, core.NewValidationError(
				fmt.Errorf("rating %d for %s is out of range", rating, k),
				core.FieldError{Field: "responses", Error: fmt.Sprintf("rating for %s must be between %d and %d", k, MinRating, MaxRating)},
			)
		}
	}

	if a.Responses == nil {
		a.Responses = make(map[Key]int, len(pu.Responses))
	}
	for k, v := range pu.Responses {
		a.Responses[k] = v
	}
	if a.Comments == nil {
		a.Comments = make(map[Key]string, len(pu.Comments))
	}
	for k, v := range pu.Comments {
		a.Comments[k] = v
	}

	now := time.Now().UTC()
	if a.Status == StatusAssigned || a.Status == StatusDraft {
		a.Status = StatusInProgress
	}
	a.History = append(a.History, HistoryEntry{
		Action:  ActionProgressSaved,
		ActorID: actor.ID,
		At:      now,
		Details: fmt.Sprintf("%d responses saved", len(pu.Responses)),
	})
	a.UpdatedAt = now

	return svc.repo.UpdateAssessment(a)
}

// Submit finalizes the assessment: merges the last payload, recomputes
// the total and interpretation, and advances the status to Completed.
func (svc *Service) Submit(id string, pu ProgressUpdate, actor user.Actor) (Assessment, error) {
	a, err := svc.repo.GetAssessmentByID(id)
	if err != nil {
		return Assessment{}, err
	}
	if err = svc.authorizeWrite(a, actor); err != nil {
		return Assessment{}, err
	}
	if a.Status == StatusCompleted || a.Status == StatusReviewed {
		return Assessment{}, core.NewValidationError(errors.New(errAlreadyFinal))
	}

	if err = validateKeys(a.Questions, pu.Responses, pu.Comments); err != nil {
		return Assessment{}, err
	}
	if a.Responses == nil {
		a.Responses = make(map[Key]int, len(pu.Responses))
	}
	for k, v := range pu.Responses {
		a.Responses[k] = v
	}
	if a.Comments == nil {
		a.Comments = make(map[Key]string, len(pu.Comments))
	}
	for k, v := range pu.Comments {
		a.Comments[k] = v
	}
	if len(a.Responses) == 0 {
		return Assessment{}, core.NewValidationError(
			fmt.Errorf("responses are required"),
			core.FieldError{Field: "responses", Error: "at least one response is required"},
		)
	}

	total, err := ComputeTotal(a.Responses)
	if err != nil {
		return Assessment{}, err
	}
	a.TotalScore = total
	a.Interpretation = Interpret(total)

	now := time.Now().UTC()
	a.Status = StatusCompleted
	a.History = append(a.History, HistoryEntry{
		Action:  ActionSubmitted,
		ActorID: actor.ID,
		At:      now,
		Details: fmt.Sprintf("assessment submitted with total score %d", total),
	})
	a.UpdatedAt = now

	a, err = svc.repo.UpdateAssessment(a)
	if err != nil {
		return Assessment{}, err
	}

	// best-effort: tell the assessor when the participant self-submits
	if actor.ID != a.AssessorID && a.AssessorID != "" {
		svc.dispatcher.Notify(a.AssessorID,
			fmt.Sprintf("%s submitted their assessment responses", a.Participant.FullName),
			notif.TypeStatus, "/assessments/"+a.ID, false)
	}

	return a, nil
}

// Review attaches reviewer notes and marks the assessment reviewed.
func (svc *Service) Review(id, notes string, actor user.Actor) (Assessment, error) {
	if !actor.IsSupervisor() && !actor.IsAdmin() {
		return Assessment{}, core.NewAuthorizationError(errNoReviewRight)
	}

	a, err := svc.repo.GetAssessmentByID(id)
	if err != nil {
		return Assessment{}, err
	}

	now := time.Now().UTC()
	a.ReviewerID = actor.ID
	a.ReviewNotes = core.CleanString(notes)
	a.Status = StatusReviewed
	a.History = append(a.History, HistoryEntry{
		Action:  ActionReviewed,
		ActorID: actor.ID,
		At:      now,
		Details: "assessment reviewed",
	})
	a.UpdatedAt = now

	a, err = svc.repo.UpdateAssessment(a)
	if err != nil {
		return Assessment{}, err
	}

	if a.AssessorID != actor.ID {
		svc.dispatcher.Notify(a.AssessorID,
			fmt.Sprintf("Your assessment for %s has been reviewed", a.Participant.FullName),
			notif.TypeReview, "/assessments/"+a.ID, false)
	}
	return a, nil
}

// GetByID returns the assessment. Assessor-role callers may only read
// their own records; supervisors, admins and the owning participant may
// always read.
func (svc *Service) GetByID(id string, actor user.Actor) (Assessment, error) {
	a, err := svc.repo.GetAssessmentByID(id)
	if err != nil {
		return Assessment{}, err
	}
	switch {
	case actor.IsAdmin() || actor.IsSupervisor():
		return a, nil
	case actor.IsAssessor():
		if actor.ID != a.AssessorID {
			return Assessment{}, core.NewAuthorizationError(errNotOwnAssessment)
		}
		return a, nil
	case actor.IsParticipant():
		if actor.ID != a.ParticipantUserID {
			return Assessment{}, core.NewAuthorizationError(errNotAllowed)
		}
		return a, nil
	}
	return Assessment{}, core.NewAuthorizationError(errNotAllowed)
}

// Delete is allowed only for an admin or the owning assessor.
func (svc *Service) Delete(id string, actor user.Actor) error {
	a, err := svc.repo.GetAssessmentByID(id)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() && actor.ID != a.AssessorID {
		return core.NewAuthorizationError(errNoDeleteRight)
	}
	return svc.repo.DeleteAssessmentsByID(id)
}

// Filter lists assessments scoped to the actor's role.
func (svc *Service) Filter(filter QueryFilter, actor user.Actor) ([]Assessment, error) {
	switch {
	case actor.IsAssessor():
		filter.AssessorID = actor.ID
	case actor.IsParticipant():
		filter.ParticipantUserID = actor.ID
	}
	return svc.repo.FilterAssessments(filter)
}

func (svc *Service) authorizeWrite(a Assessment, actor user.Actor) error {
	if actor.IsAdmin() || actor.ID == a.AssessorID || (a.ParticipantUserID != "" && actor.ID == a.ParticipantUserID) {
		return nil
	}
	return core.NewAuthorizationError(errNoSubmitRight)
}
