package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"

	. "github.com/uwezocare/uwezo/apps/api/echo"
	"github.com/uwezocare/uwezo/core"
	"github.com/uwezocare/uwezo/core/assessment"
	"github.com/uwezocare/uwezo/core/assignment"
	"github.com/uwezocare/uwezo/core/dashboard"
	"github.com/uwezocare/uwezo/core/notif"
	"github.com/uwezocare/uwezo/core/participant"
	"github.com/uwezocare/uwezo/core/user"
	emailsvc "github.com/uwezocare/uwezo/services/email"
	dummydb "github.com/uwezocare/uwezo/storage/database/dummy"
	testutil "github.com/uwezocare/uwezo/tests"
)

var (
	app      Server
	usrRepo  user.Repository
	asgRepo  assignment.Repository
	asmtRepo assessment.Repository

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errPermDenied   = httpErr{Error: "permission denied"}
)

func TestMain(m *testing.M) {
	core.Conf.Debug = false
	core.Conf.TestMode = true

	db, err := dummydb.Open()
	if err != nil {
		fmt.Printf("dummydb.Open(): %v", err)
		os.Exit(1)
	}

	// set up repos
	usrRepo = dummydb.NewUserRepository(db)
	pcptRepo := dummydb.NewParticipantRepository(db)
	asgRepo = dummydb.NewAssignmentRepository(db)
	asmtRepo = dummydb.NewAssessmentRepository(db)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock()
	logger := testutil.NopLogger{}
	dispatcher := notif.NewDispatcher(usrRepo, mailSvc, logger)

	// set up server
	app = NewServer(&Options{
		DisableReqLogs: true,
		UserSvc:        user.NewService(usrRepo, mailSvc),
		ParticipantSvc: participant.NewService(pcptRepo, usrRepo),
		AssignmentSvc:  assignment.NewService(asgRepo, usrRepo, dispatcher),
		AssessmentSvc:  assessment.NewService(asmtRepo, asgRepo, dispatcher),
		DashboardSvc:   dashboard.NewService(usrRepo, asgRepo, asmtRepo),
		Logger:         logger,
		Shutdown:       func() {},
	})

	os.Exit(m.Run())
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decodeBody(): %v; body: %s", err, rec.Body.String())
	}
}
