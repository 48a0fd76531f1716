package tests

import (
	"net/http"
	"testing"

	"github.com/uwezocare/uwezo/core/participant"
	"github.com/uwezocare/uwezo/core/user"
	testutil "github.com/uwezocare/uwezo/tests"
)

func Test_participantApi(t *testing.T) {
	supervisor := testutil.CreateUser(t, usrRepo, "Pcpt Super", "pcptsuper@test.care", "", user.RoleSupervisor, true)
	assessor := testutil.CreateUser(t, usrRepo, "Pcpt Assess", "pcptassess@test.care", "", user.RoleAssessor, true)
	pcptUsr := testutil.CreateUser(t, usrRepo, "Pcpt User", "pcptuser@test.care", "", user.RoleParticipant, true)

	supToken := getToken(t, supervisor)

	payload := marchallObj(t, participant.NewParticipant{
		FullName:   "Paula Waiting",
		NDISNumber: "431234567",
	})

	tests := []httpTest{
		{name: "auth required", body: payload, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "staff required", token: getToken(t, assessor), body: payload, wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied)},
		{
			name: "NDIS number format is checked", token: supToken,
			body:     marchallObj(t, participant.NewParticipant{FullName: "Bad Number", NDISNumber: "12"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"ndis_number": "NDIS number must be 9 digits"}),
		},
	}
	for _, tt := range tests {
		t.Run("create: "+tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/participants", tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	var created participant.Participant
	t.Run("create: staff records a participant", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/participants", supToken, payload)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; want %v; body: %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		decodeBody(t, rec, &created)
		if created.ID == "" || created.FullName != "Paula Waiting" {
			t.Errorf("created = %+v", created)
		}
	})

	t.Run("create: duplicate NDIS number is rejected", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/participants", supToken, payload)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %v; want %v; body: %s", rec.Code, http.StatusBadRequest, rec.Body.String())
		}
	})

	t.Run("update: links a participant user account", func(t *testing.T) {
		body := marchallObj(t, participant.UpdateParticipant{LinkedUserID: pcptUsr.ID})
		req, rec := newAuthRequest(http.MethodPut, "/v1/participants/"+created.ID, supToken, body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v; body: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var p participant.Participant
		decodeBody(t, rec, &p)
		if p.LinkedUserID != pcptUsr.ID {
			t.Errorf("linked user = %q; want %q", p.LinkedUserID, pcptUsr.ID)
		}
	})

	t.Run("update: staff accounts cannot be linked", func(t *testing.T) {
		body := marchallObj(t, participant.UpdateParticipant{LinkedUserID: supervisor.ID})
		req, rec := newAuthRequest(http.MethodPut, "/v1/participants/"+created.ID, supToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %v; want %v; body: %s", rec.Code, http.StatusBadRequest, rec.Body.String())
		}
	})

	t.Run("destroy", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/participants/"+created.ID, supToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("code = %v; want %v; body: %s", rec.Code, http.StatusNoContent, rec.Body.String())
		}
	})
}
