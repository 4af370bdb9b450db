package main

import (
	"context"
	"fmt"
	"strconv"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/luct/reports/core/user"
	"github.com/luct/reports/storage/database/inmem"
	"github.com/luct/reports/tests"
)

var usrRepo user.Repository

func setup(t *testing.T) *commandLine {
	t.Helper()

	// set up DB & repos
	usrRepo = inmemdb.NewUserRepository(inmemdb.Open())

	// start CLI
	return newCommandLine(nil, user.NewService(usrRepo))
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func checkErr(t *testing.T, tt cliTest, err error) {
	t.Helper()
	switch {
	case err == nil:
		if tt.wantErr != nil || tt.wantErrStr != "" {
			t.Errorf("cli.run() error = nil, wantErr %v %s", tt.wantErr, tt.wantErrStr)
		}
	case tt.wantErr != nil:
		if err != tt.wantErr {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	case tt.wantErrStr != "":
		if err.Error() != tt.wantErrStr {
			t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
		}
	default:
		t.Errorf("cli.run() unexpected error = %v", err)
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	origRun := gooseRunFunc
	defer func() { gooseRunFunc = origRun }()
	gooseRunFunc = func(db *sqlx.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(args))
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)

	existing := testutil.CreateUser(t, usrRepo, "Thabo", "thabo@luct.ac.ls", user.RoleLecturer)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "missing role", args: []string{"adduser", "-name", "Mpho", "-email", "mpho@luct.ac.ls"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-name", "Mpho", "-email", "mpho@luct.ac.ls", "-role", "pl"}, wantErr: errHelp},
		{
			name: "invalid role", args: []string{"adduser", "-name", "Mpho", "-email", "mpho@luct.ac.ls", "-role", "dean"},
			extra: extra{pwd: testutil.TestPassword}, wantErrStr: "role must be one of student, lecturer, principal-lecturer or program-leader",
		},
		{
			name: "weak password", args: []string{"adduser", "-name", "Mpho", "-email", "mpho@luct.ac.ls", "-role", "pl"},
			extra: extra{pwd: "12345678"}, wantErrStr: "password cannot be entirely numeric",
		},
		{
			name: "create", args: []string{"adduser", "-name", "Mpho", "-email", "mpho@luct.ac.ls", "-role", "Program Leader"},
			extra: extra{pwd: testutil.TestPassword},
		},
		{
			name: "update", args: []string{"adduser", "-name", "Thabo M.", "-email", "THABO@luct.ac.ls", "-role", "prl"},
			extra: extra{pwd: "N3w!Secret"},
		},
	}

	origRead := readPasswordFunc
	defer func() { readPasswordFunc = origRead }()
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(args))
		})
	}

	ctx := context.Background()
	created, err := usrRepo.GetUserByEmail(ctx, "mpho@luct.ac.ls")
	if err != nil {
		t.Fatalf("GetUserByEmail() failed, %v", err)
	}
	if created.Role != user.RoleProgramLeader || created.Name != "Mpho" {
		t.Errorf("created user = %+v", created)
	}

	updated, err := usrRepo.GetUserByID(ctx, existing.ID)
	if err != nil {
		t.Fatalf("GetUserByID() failed, %v", err)
	}
	if updated.Name != "Thabo M." || updated.Role != user.RolePrincipalLecturer {
		t.Errorf("updated user = %+v", updated)
	}
	if err := updated.CheckPassword("N3w!Secret"); err != nil {
		t.Error("failed to update password")
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "Lineo", "lineo@luct.ac.ls", user.RoleStudent)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "lol@luct.ac.ls"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "lol@luct.ac.ls"}, extra: extra{pwd: "Qw3rty!Zx"}, wantErr: user.ErrNotFound},
		{name: "weak password", args: []string{"resetpassword", "-email", usr.Email}, extra: extra{pwd: "short"}, wantErrStr: "password must contain at least 8 characters"},
		{name: "reset", args: []string{"resetpassword", "-email", usr.Email}, extra: extra{pwd: "Qw3rty!Zx"}},
	}

	origRead := readPasswordFunc
	defer func() { readPasswordFunc = origRead }()
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(args))
		})
	}

	refreshedUsr, err := usrRepo.GetUserByID(context.Background(), usr.ID)
	if err != nil {
		t.Fatalf("GetUserByID() failed, %v", err)
	}
	if err := refreshedUsr.CheckPassword("Qw3rty!Zx"); err != nil {
		t.Error("failed to update new password")
	}
}
