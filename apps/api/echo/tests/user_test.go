package tests

import (
	"net/http"
	"testing"
	"time"

	echoapi "github.com/uwezocare/uwezo/apps/api/echo"
	"github.com/uwezocare/uwezo/core/user"
	testutil "github.com/uwezocare/uwezo/tests"
)

func Test_userApi_login(t *testing.T) {
	testutil.CreateUser(t, usrRepo, "Loginna", "loginna@test.care", "GoodPass123", user.RoleSupervisor, true)
	testutil.CreateUser(t, usrRepo, "Sleepy", "sleepy@test.care", "GoodPass123", user.RoleAssessor, false)

	tests := []httpTest{
		{
			name: "unknown email", body: marchallObj(t, echoapi.LoginRequest{Email: "who@test.care", Password: "GoodPass123"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", body: marchallObj(t, echoapi.LoginRequest{Email: "loginna@test.care", Password: "BadPass"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "deactivated account", body: marchallObj(t, echoapi.LoginRequest{Email: "sleepy@test.care", Password: "GoodPass123"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("successful login returns a token", func(t *testing.T) {
		body := marchallObj(t, echoapi.LoginRequest{Email: "Loginna@Test.Care", Password: "GoodPass123"}) // email case-insensitive
		req, rec := newRequest(http.MethodPost, "/v1/users/login", body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v; body: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var resp echoapi.LoginResponse
		decodeBody(t, rec, &resp)
		if resp.Token == "" {
			t.Error("expected a non-empty token")
		}
	})
}

func Test_userApi_refreshToken(t *testing.T) {
	usr := testutil.CreateUser(t, usrRepo, "Fresh", "fresh@test.care", "", user.RoleAssessor, true)
	inactive := testutil.CreateUser(t, usrRepo, "Stale", "stale@test.care", "", user.RoleAssessor, false)

	t.Run("active user gets a new token", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", getToken(t, usr))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v; body: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var resp echoapi.LoginResponse
		decodeBody(t, rec, &resp)
		if resp.Token == "" {
			t.Error("expected a non-empty token")
		}
	})

	t.Run("deactivated user is rejected", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"})}
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", getToken(t, inactive))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("refresh window expired", func(t *testing.T) {
		oriat := time.Now().AddDate(-1, 0, 0).Unix()
		token, err := echoapi.GenerateToken(echoapi.GetUserClaims(usr, oriat))
		if err != nil {
			t.Fatalf("GenerateToken(): %v", err)
		}

		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"})}
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func Test_userApi_query(t *testing.T) {
	supervisor := testutil.CreateUser(t, usrRepo, "Query Super", "qsuper@test.care", "", user.RoleSupervisor, true)
	pcpt := testutil.CreateUser(t, usrRepo, "Query Part", "qpart@test.care", "", user.RoleParticipant, true)

	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "staff required", token: getToken(t, pcpt), wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/users", tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("staff can search users", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/users?search=Query", getToken(t, supervisor))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v; body: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var users []user.User
		decodeBody(t, rec, &users)
		if len(users) != 2 {
			t.Errorf("len(users) = %d; want 2", len(users))
		}
	})

	t.Run("role filter", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/users?search=Query&role=participant", getToken(t, supervisor))
		app.ServeHTTP(rec, req)

		var users []user.User
		decodeBody(t, rec, &users)
		if len(users) != 1 || users[0].ID != pcpt.ID {
			t.Errorf("users = %+v; want only %v", users, pcpt.ID)
		}
	})
}

func Test_userApi_register(t *testing.T) {
	supervisor := testutil.CreateUser(t, usrRepo, "Reg Super", "rsuper@test.care", "", user.RoleSupervisor, true)
	assessor := testutil.CreateUser(t, usrRepo, "Reg Assess", "rassess@test.care", "", user.RoleAssessor, true)

	payload := func(name, email string, role user.Role) []byte {
		return marchallObj(t, user.NewUser{
			Name:            name,
			Email:           email,
			Password:        "GoodPass123",
			PasswordConfirm: "GoodPass123",
			Role:            role,
			Organization:    "Uwezo Care",
		})
	}

	tests := []httpTest{
		{name: "auth required", body: payload("X", "x@test.care", user.RoleAssessor), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "staff required", token: getToken(t, assessor), body: payload("X", "x@test.care", user.RoleAssessor),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied),
		},
		{
			name: "cannot grant a role above own", token: getToken(t, supervisor), body: payload("Boss", "boss@test.care", user.RoleAdmin),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"role": "not enough rights to set this role"}),
		},
		{
			name: "duplicate email", token: getToken(t, supervisor), body: payload("Dupe", "rassess@test.care", user.RoleAssessor),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"email": "a user with this email already exists"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/users/register", tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("supervisor registers an assessor", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/register", getToken(t, supervisor), payload("New Assessor", "newassess@test.care", user.RoleAssessor))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; want %v; body: %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var usr user.User
		decodeBody(t, rec, &usr)
		if usr.Role != user.RoleAssessor || !usr.IsActive {
			t.Errorf("usr = %+v; want active assessor", usr)
		}
	})
}

func Test_userApi_detail(t *testing.T) {
	admin := testutil.CreateUser(t, usrRepo, "Det Admin", "dadmin@test.care", "", user.RoleAdmin, true)
	assessor := testutil.CreateUser(t, usrRepo, "Det Assess", "dassess@test.care", "", user.RoleAssessor, true)
	other := testutil.CreateUser(t, usrRepo, "Det Other", "dother@test.care", "", user.RoleAssessor, true)

	tests := []httpTest{
		{
			name: "own account is visible", method: http.MethodGet, path: "/v1/users/" + assessor.ID, token: getToken(t, assessor),
			wantCode: http.StatusOK, wantData: marchallObj(t, assessor),
		},
		{
			name: "someone else's account is hidden", method: http.MethodGet, path: "/v1/users/" + other.ID, token: getToken(t, assessor),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "admin sees any account", method: http.MethodGet, path: "/v1/users/" + assessor.ID, token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallObj(t, assessor),
		},
		{
			name: "only admin may change activation", method: http.MethodPut, path: "/v1/users/" + assessor.ID, token: getToken(t, assessor),
			body: []byte(`{"is_active": false}`), wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied),
		},
		{
			name: "admin cannot delete themselves", method: http.MethodDelete, path: "/v1/users/" + admin.ID, token: getToken(t, admin),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("user updates own name", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/users/"+assessor.ID, getToken(t, assessor), []byte(`{"name": "Det A. Assessor"}`))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v; body: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var usr user.User
		decodeBody(t, rec, &usr)
		if usr.Name != "Det A. Assessor" {
			t.Errorf("name = %q; want %q", usr.Name, "Det A. Assessor")
		}
	})

	t.Run("admin deletes another user", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/users/"+other.ID, getToken(t, admin))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("code = %v; want %v; body: %s", rec.Code, http.StatusNoContent, rec.Body.String())
		}
		if _, err := usrRepo.GetUserByID(other.ID); err == nil {
			t.Error("expected user to be gone")
		}
	})
}

func Test_userApi_me(t *testing.T) {
	usr := testutil.CreateUser(t, usrRepo, "Me Myself", "me@test.care", "", user.RoleParticipant, true)
	token := getToken(t, usr)

	t.Run("profile", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, usr)}
		req, rec := newAuthRequest(http.MethodGet, "/v1/users/me", token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("notifications start empty", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusOK, wantData: []byte(`[]`)}
		req, rec := newAuthRequest(http.MethodGet, "/v1/users/me/notifications", token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("mark notifications read", func(t *testing.T) {
		err := usrRepo.AddNotification(usr.ID, user.Notification{ID: "n1", Message: "hi", Date: time.Now().UTC()}, 20)
		if err != nil {
			t.Fatalf("AddNotification(): %v", err)
		}

		req, rec := newAuthRequest(http.MethodPost, "/v1/users/me/notifications/mark-read", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("code = %v; want %v; body: %s", rec.Code, http.StatusNoContent, rec.Body.String())
		}

		got, err := usrRepo.GetUserByID(usr.ID)
		if err != nil {
			t.Fatalf("GetUserByID(): %v", err)
		}
		for _, n := range got.Notifications {
			if !n.IsRead {
				t.Errorf("notification %s still unread", n.ID)
			}
		}
	})
}
