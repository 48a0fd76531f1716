package tests

import (
	"net/http"
	"testing"

	"github.com/uwezocare/uwezo/core/assessment"
	"github.com/uwezocare/uwezo/core/user"
	testutil "github.com/uwezocare/uwezo/tests"
)

func newAssessmentPayload(t *testing.T) []byte {
	t.Helper()
	return marchallObj(t, assessment.NewAssessment{
		Participant: assessment.ParticipantDetails{
			FullName:   "Peter Participant",
			NDISNumber: "430123456",
		},
		SectionTitles: []string{"Daily Living", "Social Skills"},
		Questions:     [][]string{{"Prepares meals", "Manages money"}, {"Keeps in touch with friends"}},
		Responses:     map[assessment.Key]int{{Section: 0, Question: 0}: 1, {Section: 0, Question: 1}: 3, {Section: 1, Question: 0}: 5},
	})
}

func Test_assessmentApi(t *testing.T) {
	supervisor := testutil.CreateUser(t, usrRepo, "Asmt Super", "asmtsuper@test.care", "", user.RoleSupervisor, true)
	assessor := testutil.CreateUser(t, usrRepo, "Asmt Assess", "asmtassess@test.care", "", user.RoleAssessor, true)
	outsider := testutil.CreateUser(t, usrRepo, "Asmt Out", "asmtout@test.care", "", user.RoleAssessor, true)

	supToken := getToken(t, supervisor)
	assessToken := getToken(t, assessor)

	createTests := []httpTest{
		{name: "auth required", body: newAssessmentPayload(t), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "supervisors do not record assessments", token: supToken, body: newAssessmentPayload(t),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "only assessors may record assessments"}),
		},
		{
			name: "ratings are range-checked", token: assessToken,
			body: marchallObj(t, assessment.NewAssessment{
				Participant:   assessment.ParticipantDetails{FullName: "P", NDISNumber: "430123456"},
				SectionTitles: []string{"Daily Living"},
				Questions:     [][]string{{"Q"}},
				Responses:     map[assessment.Key]int{{Section: 0, Question: 0}: 7},
			}),
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range createTests {
		t.Run("create: "+tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/assessments", tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	var created assessment.Assessment
	t.Run("create: score and interpretation are computed server-side", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/assessments", assessToken, newAssessmentPayload(t))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; want %v; body: %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		decodeBody(t, rec, &created)
		if created.TotalScore != 9 {
			t.Errorf("total = %d; want 9", created.TotalScore)
		}
		if created.Interpretation != assessment.InterpretationSupport {
			t.Errorf("interpretation = %q; want %q", created.Interpretation, assessment.InterpretationSupport)
		}
		if created.Status != assessment.StatusCompleted {
			t.Errorf("status = %v; want %v", created.Status, assessment.StatusCompleted)
		}
		if created.AssessorID != assessor.ID {
			t.Errorf("assessor = %v; want %v", created.AssessorID, assessor.ID)
		}
	})

	t.Run("retrieve: foreign assessor is blocked", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "assessors may only access their own assessments"}),
		}
		req, rec := newAuthRequest(http.MethodGet, "/v1/assessments/"+created.ID, getToken(t, outsider))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("classification breaks down strengths and needs", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/assessments/"+created.ID+"/classification", assessToken)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v; body: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var cls assessment.Classification
		decodeBody(t, rec, &cls)
		if len(cls.Strengths) != 1 { // the rating of 1
			t.Errorf("strengths = %+v; want 1 entry", cls.Strengths)
		}
		if len(cls.Needs) != 1 { // the rating of 5
			t.Errorf("needs = %+v; want 1 entry", cls.Needs)
		}
	})

	t.Run("progress: completed assessments are immutable", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "assessment has already been submitted"})}
		body := marchallObj(t, assessment.ProgressUpdate{Responses: map[assessment.Key]int{{Section: 0, Question: 1}: 2}})
		req, rec := newAuthRequest(http.MethodPut, "/v1/assessments/"+created.ID+"/progress", assessToken, body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("review: assessors may not review", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied)}
		req, rec := newAuthRequest(http.MethodPost, "/v1/assessments/"+created.ID+"/review", assessToken, []byte(`{"notes": "nope"}`))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("review: supervisor reviews", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/assessments/"+created.ID+"/review", supToken, []byte(`{"notes": "  solid work  "}`))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v; body: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var a assessment.Assessment
		decodeBody(t, rec, &a)
		if a.Status != assessment.StatusReviewed {
			t.Errorf("status = %v; want %v", a.Status, assessment.StatusReviewed)
		}
		if a.ReviewerID != supervisor.ID || a.ReviewNotes != "solid work" {
			t.Errorf("reviewer = %v notes = %q; want %v %q", a.ReviewerID, a.ReviewNotes, supervisor.ID, "solid work")
		}
	})

	t.Run("destroy: owning assessor deletes", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/assessments/"+created.ID, assessToken)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("code = %v; want %v; body: %s", rec.Code, http.StatusNoContent, rec.Body.String())
		}
		if _, err := asmtRepo.GetAssessmentByID(created.ID); err == nil {
			t.Error("expected assessment to be gone")
		}
	})
}

func Test_assessmentApi_draftWorkflow(t *testing.T) {
	assessor := testutil.CreateUser(t, usrRepo, "Draft Assess", "draftassess@test.care", "", user.RoleAssessor, true)
	token := getToken(t, assessor)

	body := marchallObj(t, assessment.NewAssessment{
		Participant:   assessment.ParticipantDetails{FullName: "Dora Draft", NDISNumber: "430987654"},
		SectionTitles: []string{"Daily Living"},
		Questions:     [][]string{{"Prepares meals", "Manages money"}},
		Status:        assessment.StatusDraft,
	})
	req, rec := newAuthRequest(http.MethodPost, "/v1/assessments", token, body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("setup create failed: %s", rec.Body.String())
	}
	var created assessment.Assessment
	decodeBody(t, rec, &created)

	t.Run("autosave moves a draft to in progress without scoring", func(t *testing.T) {
		body := marchallObj(t, assessment.ProgressUpdate{Responses: map[assessment.Key]int{{Section: 0, Question: 0}: 4}})
		req, rec := newAuthRequest(http.MethodPut, "/v1/assessments/"+created.ID+"/progress", token, body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v; body: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var a assessment.Assessment
		decodeBody(t, rec, &a)
		if a.Status != assessment.StatusInProgress {
			t.Errorf("status = %v; want %v", a.Status, assessment.StatusInProgress)
		}
		if a.TotalScore != 0 {
			t.Errorf("total = %d; want 0 before submission", a.TotalScore)
		}
	})

	t.Run("submit merges, rescores and completes", func(t *testing.T) {
		body := marchallObj(t, assessment.ProgressUpdate{Responses: map[assessment.Key]int{{Section: 0, Question: 1}: 2}})
		req, rec := newAuthRequest(http.MethodPost, "/v1/assessments/"+created.ID+"/submit", token, body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v; body: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var a assessment.Assessment
		decodeBody(t, rec, &a)
		if a.Status != assessment.StatusCompleted {
			t.Errorf("status = %v; want %v", a.Status, assessment.StatusCompleted)
		}
		if a.TotalScore != 6 {
			t.Errorf("total = %d; want 6", a.TotalScore)
		}
	})
}
