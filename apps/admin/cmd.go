package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/luct/reports/core"
	"github.com/luct/reports/core/user"
	"github.com/luct/reports/storage/database"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	gooseRunFunc     = database.Migrate  // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db         *sqlx.DB
	usrSvc     *user.Service
	validate   *validator.Validate
	translator ut.Translator
}

func newCommandLine(db *sqlx.DB, usrSvc *user.Service) *commandLine {
	cli := &commandLine{
		db:         db,
		usrSvc:     usrSvc,
		validate:   validator.New(),
		translator: core.NewTranslator(),
	}
	core.InitValidators(cli.validate, cli.translator)
	user.InitValidators(cli.validate, cli.translator)
	return cli
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  adduser -name NAME -email EMAIL -role ROLE - create a user, or update the one holding EMAIL")
	fmt.Println("  resetpassword -email EMAIL - reset user's password")
	fmt.Println("  migrate COMMAND [ARGS...] - run a goose command (up, up-by-one, up-to VERSION, down, down-to VERSION, redo, reset, status, version)")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserEmail := addUserCmd.String("email", "", "The user's email. The password will be prompted next.")
	addUserRole := addUserCmd.String("role", "", "One of student, lecturer, principal-lecturer, program-leader.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserName == "" || *addUserEmail == "" || *addUserRole == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(user.NewUser{Name: *addUserName, Email: *addUserEmail, Password: pwd, Role: *addUserRole})

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(user.ResetPassword{Email: *resetPasswordEmail, Password: pwd})

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return gooseRunFunc(cli.db, args[2], args[3:]...)

	default:
		cli.printUsage()
		return errHelp
	}
}

func promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

// addUser updates or creates a user.User
func (cli *commandLine) addUser(nu user.NewUser) error {
	if err := cli.check(nu.Validate(cli.validate)); err != nil {
		return err
	}
	_, err := cli.usrSvc.UpdateOrCreate(context.Background(), nu)
	return err
}

func (cli *commandLine) resetPassword(rp user.ResetPassword) error {
	if err := cli.check(rp.Validate(cli.validate)); err != nil {
		return err
	}
	_, err := cli.usrSvc.ResetPassword(context.Background(), rp)
	return err
}

// check turns validator errors into a single readable error.
func (cli *commandLine) check(err error) error {
	vErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(vErrs))
	for _, fErr := range core.TranslateFieldErrors(vErrs, cli.translator) {
		msgs = append(msgs, fErr.Error)
	}
	return errors.New(strings.Join(msgs, "; "))
}
