// Package dashboard computes read-only cross-entity statistics per
// role. It never mutates assignment, assessment or user state.
package dashboard

import (
	"math"
	"sort"
	"time"

	"github.com/uwezocare/uwezo/core/assessment"
	"github.com/uwezocare/uwezo/core/assignment"
	"github.com/uwezocare/uwezo/core/user"
)

const (
	minMonths     = 6
	maxMonths     = 12
	defaultMonths = 6

	monthKeyLayout = "2006-01"
)

type (
	StatusCounts map[string]int

	MonthBucket struct {
		Month string `json:"month"` // "2006-01"
		Count int    `json:"count"`
	}

	AssessorPerformance struct {
		AssessorID     string `json:"assessor"`
		Name           string `json:"name"`
		Total          int    `json:"total"`
		Completed      int    `json:"completed"`
		CompletionRate int    `json:"completion_rate"` // percent, 0 when Total is 0
	}

	Overview struct {
		AssignmentCounts    StatusCounts          `json:"assignment_counts"`
		AssessmentCounts    StatusCounts          `json:"assessment_counts"`
		AssignmentsByMonth  []MonthBucket         `json:"assignments_by_month"`
		AssessmentsByMonth  []MonthBucket         `json:"assessments_by_month"`
		AssessorPerformance []AssessorPerformance `json:"assessor_performance,omitempty"`
	}

	Service struct {
		users       user.Repository
		assignments assignment.Repository
		assessments assessment.Repository
	}
)

func NewService(users user.Repository, assignments assignment.Repository, assessments assessment.Repository) *Service {
	return &Service{users: users, assignments: assignments, assessments: assessments}
}

// Overview builds the per-role dashboard: counts by status, a rolling
// monthly time series (zero-filled, chronological, ending at the current
// month) and, for supervisors and admins, per-assessor completion rates.
func (svc *Service) Overview(actor user.Actor, months int) (Overview, error) {
	if months == 0 {
		months = defaultMonths
	}
	if months < minMonths {
		months = minMonths
	}
	if months > maxMonths {
		months = maxMonths
	}

	var asgFilter assignment.QueryFilter
	var assFilter assessment.QueryFilter
	switch {
	case actor.IsAssessor():
		asgFilter.AssessorID = actor.ID
		assFilter.AssessorID = actor.ID
	case actor.IsParticipant():
		asgFilter.ParticipantID = actor.ID
		assFilter.ParticipantUserID = actor.ID
	case actor.IsSupervisor():
		asgFilter.SupervisorID = actor.ID
	}

	asgs, err := svc.assignments.FilterAssignments(asgFilter)
	if err != nil {
		return Overview{}, err
	}
	asses, err := svc.assessments.FilterAssessments(assFilter)
	if err != nil {
		return Overview{}, err
	}

	ov := Overview{
		AssignmentCounts: make(StatusCounts),
		AssessmentCounts: make(StatusCounts),
	}
	for _, s := range []assignment.Status{
		assignment.StatusPending, assignment.StatusAccepted, assignment.StatusInProgress,
		assignment.StatusCompleted, assignment.StatusCancelled,
	} {
		ov.AssignmentCounts[s.String()] = 0
	}
	for _, a := range asgs {
		ov.AssignmentCounts[a.Status.String()]++
	}
	for _, a := range asses {
		ov.AssessmentCounts[a.Status.String()]++
	}

	now := time.Now().UTC()
	asgTimes := make([]time.Time, 0, len(asgs))
	for _, a := range asgs {
		asgTimes = append(asgTimes, a.CreatedAt)
	}
	assTimes := make([]time.Time, 0, len(asses))
	for _, a := range asses {
		assTimes = append(assTimes, a.CreatedAt)
	}
	ov.AssignmentsByMonth = bucketByMonth(asgTimes, months, now)
	ov.AssessmentsByMonth = bucketByMonth(assTimes, months, now)

	if actor.IsSupervisor() || actor.IsAdmin() {
		perf, err := svc.assessorPerformance(asgs)
		if err != nil {
			return Overview{}, err
		}
		ov.AssessorPerformance = perf
	}

	return ov, nil
}

// bucketByMonth zero-fills the last `months` months ending at `now` and
// counts timestamps falling into each.
func bucketByMonth(times []time.Time, months int, now time.Time) []MonthBucket {
	buckets := make([]MonthBucket, 0, months)
	index := make(map[string]int, months)

	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)
	for i := 0; i < months; i++ {
		key := start.AddDate(0, i, 0).Format(monthKeyLayout)
		index[key] = i
		buckets = append(buckets, MonthBucket{Month: key})
	}

	for _, t := range times {
		if i, ok := index[t.UTC().Format(monthKeyLayout)]; ok {
			buckets[i].Count++
		}
	}
	return buckets
}

func (svc *Service) assessorPerformance(asgs []assignment.Assignment) ([]AssessorPerformance, error) {
	byAssessor := make(map[string]*AssessorPerformance)
	for _, a := range asgs {
		perf, ok := byAssessor[a.AssessorID]
		if !ok {
			perf = &AssessorPerformance{AssessorID: a.AssessorID}
			byAssessor[a.AssessorID] = perf
		}
		perf.Total++
		if a.Status == assignment.StatusCompleted {
			perf.Completed++
		}
	}

	out := make([]AssessorPerformance, 0, len(byAssessor))
	for id, perf := range byAssessor {
		if usr, err := svc.users.GetUserByID(id); err == nil {
			perf.Name = usr.Name
		}
		if perf.Total > 0 {
			perf.CompletionRate = int(math.Round(float64(perf.Completed) / float64(perf.Total) * 100))
		}
		out = append(out, *perf)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssessorID < out[j].AssessorID })
	return out, nil
}
