package tests

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luct/reports/core/user"
	"github.com/luct/reports/tests"
)

func Test_userApi_register(t *testing.T) {
	env := setup(t)
	env.createUser(t, "Existing", "existing@luct.ac.ls", user.RoleStudent)

	type body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	required := func(fields ...string) []byte {
		e := httpErr{Message: "All fields required", Fields: make(map[string]string)}
		for _, f := range fields {
			e.Fields[f] = f + " is required"
		}
		return marchallObj(t, e)
	}

	tests := []httpTest{
		{name: "empty body", body: []byte(`{}`), wantCode: http.StatusBadRequest, wantData: required("name", "email", "password", "role")},
		{name: "malformed body", body: []byte(`{"name":`), wantCode: http.StatusBadRequest, wantData: marchallObj(t, errInvalidData)},
		{
			name: "unknown role", body: marchallObj(t, body{"Palesa", "palesa@luct.ac.ls", testutil.TestPassword, "dean"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{
				Message: "All fields required",
				Fields:  map[string]string{"role": "role must be one of student, lecturer, principal-lecturer or program-leader"},
			}),
		},
		{
			name: "invalid email", body: marchallObj(t, body{"Palesa", "palesa", testutil.TestPassword, "student"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{
				Message: "All fields required",
				Fields:  map[string]string{"email": "email must be a valid email address"},
			}),
		},
		{
			name: "password too short", body: marchallObj(t, body{"Palesa", "palesa@luct.ac.ls", "S3c!", "student"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{
				Message: "All fields required",
				Fields:  map[string]string{"password": "password must contain at least 8 characters"},
			}),
		},
		{
			name: "password all numeric", body: marchallObj(t, body{"Palesa", "palesa@luct.ac.ls", "1234567890", "student"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{
				Message: "All fields required",
				Fields:  map[string]string{"password": "password cannot be entirely numeric"},
			}),
		},
		{
			name: "password similar to email", body: marchallObj(t, body{"Palesa", "palesa@luct.ac.ls", "palesa@luct", "student"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{
				Message: "All fields required",
				Fields:  map[string]string{"password": "password cannot be similar to user attributes"},
			}),
		},
		{
			name: "duplicate email", body: marchallObj(t, body{"Someone", " EXISTING@luct.ac.ls ", testutil.TestPassword, "lecturer"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Message: "Email already exists"}),
		},
		{
			name: "success", body: marchallObj(t, body{"Palesa", "palesa@luct.ac.ls", testutil.TestPassword, "Principal Lecturer"}),
			wantCode: http.StatusOK, wantData: marchallObj(t, message{"User registered successfully!"}),
		},
		{
			name: "same email again", body: marchallObj(t, body{"Palesa", "palesa@luct.ac.ls", testutil.TestPassword, "student"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Message: "Email already exists"}),
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/register"
	}
	runHTTPTests(t, env, tests)

	usr, err := env.usrRepo.GetUserByEmail(context.Background(), "palesa@luct.ac.ls")
	require.NoError(t, err)
	assert.Equal(t, "Palesa", usr.Name)
	assert.Equal(t, user.RolePrincipalLecturer, usr.Role)
	assert.NoError(t, usr.CheckPassword(testutil.TestPassword))
}

func Test_userApi_login(t *testing.T) {
	env := setup(t)
	lecturer := env.createUser(t, "Thabo", "thabo@luct.ac.ls", user.Role("Lecturer"))

	type body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	tests := []httpTest{
		{
			name: "missing fields", body: marchallObj(t, body{Email: "thabo@luct.ac.ls"}), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Message: "All fields required", Fields: map[string]string{"password": "password is required"}}),
		},
		{
			name: "unknown email", body: marchallObj(t, body{"nobody@luct.ac.ls", testutil.TestPassword}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Message: "User not found"}),
		},
		{
			name: "wrong password", body: marchallObj(t, body{"thabo@luct.ac.ls", "Wr0ng!Pass"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Message: "Invalid password"}),
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/login"
	}
	runHTTPTests(t, env, tests)

	t.Run("success", func(t *testing.T) {
		before := time.Now().Unix()
		req, rec := newRequest(http.MethodPost, "/login", marchallObj(t, body{" THABO@luct.ac.ls", testutil.TestPassword}))
		env.serve(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp struct {
			Message string       `json:"message"`
			Token   string       `json:"token"`
			User    user.Summary `json:"user"`
		}
		unmarshal(t, rec, &resp)
		assert.Equal(t, "Login successful", resp.Message)
		assert.Equal(t, user.Summary{ID: lecturer.ID, Name: "Thabo", Email: "thabo@luct.ac.ls", Role: user.RoleLecturer}, resp.User)

		claims := new(user.Claims)
		_, err := jwt.ParseWithClaims(resp.Token, claims, func(*jwt.Token) (interface{}, error) {
			return []byte(env.conf.SecretKey), nil
		})
		require.NoError(t, err)
		assert.Equal(t, lecturer.ID, claims.Subject)
		assert.Equal(t, user.RoleLecturer, claims.Role)
		assert.GreaterOrEqual(t, claims.IssuedAt, before)
		assert.Equal(t, int64(time.Hour/time.Second), claims.ExpiresAt-claims.IssuedAt)

		// the token opens the protected routes
		req, rec = newAuthRequest(http.MethodGet, "/lecturer_reports", resp.Token)
		env.serve(req, rec)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func Test_userApi_students(t *testing.T) {
	env := setup(t)
	lineo := env.createUser(t, "Lineo", "lineo@luct.ac.ls", user.RoleStudent)
	kamohelo := env.createUser(t, "Kamohelo", "kamohelo@luct.ac.ls", user.RoleStudent)
	lecturer := env.createUser(t, "Thabo", "thabo@luct.ac.ls", user.RoleLecturer)
	leader := env.createUser(t, "Mpho", "mpho@luct.ac.ls", user.RoleProgramLeader)

	runHTTPTests(t, env, []httpTest{
		{name: "auth required", path: "/students", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errNoToken)},
		{name: "students forbidden", path: "/students", token: getToken(t, env, lineo), wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermission)},
		{
			name: "lecturer", path: "/students", token: getToken(t, env, lecturer), wantCode: http.StatusOK,
			wantData: marchallList(t, kamohelo.Summary(), lineo.Summary()),
		},
		{
			name: "program leader", path: "/students", token: getToken(t, env, leader), wantCode: http.StatusOK,
			wantData: marchallList(t, kamohelo.Summary(), lineo.Summary()),
		},
	})
}

func Test_authentication(t *testing.T) {
	env := setup(t)
	lecturer := env.createUser(t, "Thabo", "thabo@luct.ac.ls", user.RoleLecturer)

	expiredClaims := env.tokens.Claims(lecturer)
	expiredClaims.IssuedAt = time.Now().Add(-2 * time.Hour).Unix()
	expiredClaims.ExpiresAt = time.Now().Add(-time.Hour).Unix()
	expired, err := env.tokens.Sign(expiredClaims)
	require.NoError(t, err)

	forged, err := user.NewTokenIssuer("not-the-secret", env.conf.AppName, time.Hour).Issue(lecturer)
	require.NoError(t, err)

	otherApp, err := user.NewTokenIssuer(env.conf.SecretKey, "Another App", time.Hour).Issue(lecturer)
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantData httpErr
	}{
		{name: "no header", wantCode: http.StatusUnauthorized, wantData: errNoToken},
		{name: "no bearer scheme", header: getToken(t, env, lecturer), wantCode: http.StatusUnauthorized, wantData: errBadToken},
		{name: "empty bearer", header: "Bearer ", wantCode: http.StatusUnauthorized, wantData: errBadToken},
		{name: "basic scheme", header: "Basic dGhhYm86cGFzcw==", wantCode: http.StatusUnauthorized, wantData: errBadToken},
		{name: "garbage", header: "Bearer abc.def.ghi", wantCode: http.StatusForbidden, wantData: errTokenAuth},
		{name: "expired", header: "Bearer " + expired, wantCode: http.StatusForbidden, wantData: errTokenAuth},
		{name: "wrong key", header: "Bearer " + forged, wantCode: http.StatusForbidden, wantData: errTokenAuth},
		{name: "other issuer", header: "Bearer " + otherApp, wantCode: http.StatusForbidden, wantData: errTokenAuth},
	}

	paths := []string{"/lecturer_reports", "/classes", "/student_ratings", "/assignments"}
	for _, tt := range tests {
		for _, path := range paths {
			t.Run(tt.name+" "+path, func(t *testing.T) {
				req, rec := newRequest(http.MethodGet, path)
				if tt.header != "" {
					req.Header.Set("Authorization", tt.header)
				}
				env.serve(req, rec)
				checkCodeAndData(t, httpTest{wantCode: tt.wantCode, wantData: marchallObj(t, tt.wantData)}, rec)
			})
		}
	}
}

func Test_home(t *testing.T) {
	env := setup(t)
	req, rec := newRequest(http.MethodGet, "/")
	env.serve(req, rec)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to the LUCT Reports API!", rec.Body.String())
}
