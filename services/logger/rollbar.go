package logsvc

import (
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/auth"
)

type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(conf.RollbarToken != "" && !conf.Debug && !conf.TestMode)
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// Flush waits for the queued reports to be sent.
func (l RollbarLogger) Flush() {
	rollbar.Wait()
}

// split separates the acting principal from the other args.
// expected fmt: msg | error, map[string]interface{}, auth.Principal
func split(args []interface{}) (*auth.Principal, []interface{}) {
	var principal *auth.Principal
	rest := make([]interface{}, 0, len(args))
	for _, arg := range args {
		switch p := arg.(type) {
		case auth.Principal:
			if principal == nil { // only keep one Principal
				principal = &p
			}
		case *auth.Principal:
			if principal == nil && p != nil {
				principal = p
			}
		default:
			rest = append(rest, arg)
		}
	}
	return principal, rest
}

func (l RollbarLogger) prepare(msg string, args []interface{}) []interface{} {
	principal, rest := split(args)
	if principal != nil {
		rollbar.SetPerson(principal.ID, principal.Role.String()+":"+principal.Name, principal.Email)
	} else {
		rollbar.ClearPerson()
	}
	return append([]interface{}{msg}, rest...)
}

func (l RollbarLogger) print(level, msg string, args []interface{}) {
	principal, rest := split(args)
	if principal != nil {
		l.std.Printf("[%s] %s (%s %s)\n", level, msg, principal.Role, principal.ID)
	} else {
		l.std.Printf("[%s] %s\n", level, msg)
	}
	for _, arg := range rest {
		l.std.Printf("%+v\n", arg)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	rollbar.Debug(l.prepare(msg, args)...)
	l.print("DEBUG", msg, args)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	rollbar.Info(l.prepare(msg, args)...)
	l.print("INFO", msg, args)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	rollbar.Warning(l.prepare(msg, args)...)
	l.print("WARN", msg, args)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	rollbar.Error(l.prepare(msg, args)...)
	l.print("ERROR", msg, args)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	rollbar.Critical(l.prepare(msg, args)...)
	l.print("FATAL", msg, args)
	rollbar.Wait()
	l.std.Fatal(msg)
}
