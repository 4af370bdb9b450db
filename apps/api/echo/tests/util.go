package tests

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/luct/reports/apps/api/echo"
	"github.com/luct/reports/core"
	"github.com/luct/reports/core/assignment"
	"github.com/luct/reports/core/rating"
	"github.com/luct/reports/core/report"
	"github.com/luct/reports/core/user"
	"github.com/luct/reports/services/email"
	"github.com/luct/reports/services/logger"
	"github.com/luct/reports/storage/database/inmem"
	"github.com/luct/reports/tests"
)

type testEnv struct {
	app     echoapi.Server
	conf    *core.Config
	tokens  *user.TokenIssuer
	mailSvc *emailsvc.ConsoleService

	usrRepo user.Repository
	rptRepo report.Repository
	rtgRepo rating.Repository
}

// setup builds the API over a fresh in-memory store.
func setup(t *testing.T) *testEnv {
	t.Helper()

	conf := core.NewTestConfig()
	logger := logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), conf)

	db := inmemdb.Open()
	env := &testEnv{
		conf:    conf,
		tokens:  user.NewTokenIssuer(conf.SecretKey, conf.AppName, conf.JWTExpirationDelta),
		mailSvc: emailsvc.NewConsoleService(conf, ioutil.Discard),
		usrRepo: inmemdb.NewUserRepository(db),
		rptRepo: inmemdb.NewReportRepository(db),
		rtgRepo: inmemdb.NewRatingRepository(db),
	}

	usrSvc := user.NewService(env.usrRepo)
	env.app = echoapi.NewServer(
		"",  /* addr */
		nil, /* shutdown */
		&echoapi.Deps{
			Conf:           conf,
			Logger:         logger,
			Tokens:         env.tokens,
			UserSvc:        usrSvc,
			ReportSvc:      report.NewService(env.rptRepo, usrSvc, env.mailSvc, logger, conf.EmailTimeout),
			RatingSvc:      rating.NewService(env.rtgRepo),
			AssignmentSvc:  assignment.NewService(inmemdb.NewAssignmentRepository(db)),
			DisableReqLogs: true,
		},
	)
	return env
}

func (env *testEnv) createUser(t *testing.T, name, email string, role user.Role) user.User {
	t.Helper()
	return testutil.CreateUser(t, env.usrRepo, name, email, role)
}

func (env *testEnv) serve(req *http.Request, rec *httptest.ResponseRecorder) {
	env.app.ServeHTTP(rec, req)
}

type httpErr struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type message struct {
	Message string `json:"message"`
}

var (
	errNoToken      = httpErr{Message: "No token provided"}
	errBadToken     = httpErr{Message: "Invalid token"}
	errTokenAuth    = httpErr{Message: "Failed to authenticate token"}
	errPermission   = httpErr{Message: "permission denied"}
	errInvalidData  = httpErr{Message: "Invalid data"}
	errReportAbsent = httpErr{Message: "Report not found"}
)

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

func getToken(t *testing.T, env *testEnv, usr user.User) string {
	t.Helper()
	token, err := env.tokens.Issue(usr)
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

func marchallList(t *testing.T, objs ...interface{}) []byte {
	t.Helper()
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func unmarshal(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dest); err != nil {
		t.Fatalf("json.Unmarshal(%s): %v", rec.Body.String(), err)
	}
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

func runHTTPTests(t *testing.T, env *testEnv, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
			env.serve(req, rec)
			checkCodeAndData(t, tt, rec)
		})
	}
}
