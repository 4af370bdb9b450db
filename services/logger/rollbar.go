package logsvc

import (
	"context"
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/luct/reports/core"
	"github.com/luct/reports/core/user"
)

// RollbarLogger writes every entry to std and reports it to Rollbar when enabled.
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

// NewRollbarLogger reports to Rollbar when a token is configured, and always writes to std.
func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(conf.RollbarToken != "" && !conf.TestMode)
	return &RollbarLogger{std: std}
}

// Wait blocks until queued Rollbar items are sent.
func (l RollbarLogger) Wait() {
	rollbar.Wait()
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	l.log(rollbar.DEBUG, "DEBUG", msg, args)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	l.log(rollbar.INFO, "INFO", msg, args)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	l.log(rollbar.WARN, "WARN", msg, args)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	l.log(rollbar.ERR, "ERROR", msg, args)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(rollbar.CRIT, "FATAL", msg, args)
	rollbar.Wait()
	l.std.Fatal(msg)
}

func (l RollbarLogger) log(level, label, msg string, args []interface{}) {
	rollbar.Log(level, rollbarArgs(msg, args)...)

	l.std.Printf("%s: %s", label, msg)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
	}
}

// rollbarArgs converts args to rollbar.Log input: msg | error, map[string]interface{}, context.Context.
// The first user.Identity becomes the person of this item only; later ones are dropped.
func rollbarArgs(msg string, args []interface{}) []interface{} {
	out := make([]interface{}, 0, len(args)+1)
	out = append(out, msg)

	var personSet bool
	for _, arg := range args {
		id, ok := arg.(user.Identity)
		if !ok {
			out = append(out, arg)
			continue
		}
		if !personSet {
			out = append(out, rollbar.NewPersonContext(context.Background(), &rollbar.Person{Id: id.UserID, Username: id.Name}))
			personSet = true
		}
	}
	return out
}
