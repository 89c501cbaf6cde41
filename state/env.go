// Package state carries per-run program state through command context.
package state

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"

	"csscover/config"
)

type envKey struct{}

// LocalEnv is created once per run before command line is parsed and filled
// by the root command Before hook.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	// RunID tags debug report and log of this run.
	RunID string

	// CodePage, when set, overrides detection for sources without BOM.
	CodePage encoding.Encoding

	// ErrorLogged is set once final error went to the program log.
	ErrorLogged bool

	start     time.Time
	releaseLn func()
}

// ContextWithEnv attaches fresh run state to ctx.
func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, newLocalEnv())
}

// EnvFromContext panics when ctx was not prepared with ContextWithEnv, this is
// a programming error.
func EnvFromContext(ctx context.Context) *LocalEnv {
	env, ok := ctx.Value(envKey{}).(*LocalEnv)
	if !ok {
		panic("run state is missing from context")
	}
	return env
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

// Logger returns logger for a program component. It is safe to call before
// logging is set up.
func (e *LocalEnv) Logger(component string) *zap.Logger {
	if e.Log == nil {
		return zap.NewNop().Named(component)
	}
	return e.Log.Named(component)
}

// SetLogger makes log the program logger. Output of standard library log
// package goes there too until ReleaseLogger is called.
func (e *LocalEnv) SetLogger(log *zap.Logger) {
	e.ReleaseLogger()
	e.Log = log
	if log != nil {
		e.releaseLn = zap.RedirectStdLog(log)
	}
}

// ReleaseLogger flushes program logger and gives standard log back. Logger
// itself stays usable.
func (e *LocalEnv) ReleaseLogger() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.releaseLn != nil {
		e.releaseLn()
		e.releaseLn = nil
	}
}

// SetCodePage forces decoding of sources with IANA character set name. It
// returns canonical name of the chosen set, on error CodePage is cleared.
func (e *LocalEnv) SetCodePage(name string) (string, error) {
	e.CodePage = nil
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return "", fmt.Errorf("unknown character set %q: %w", name, err)
	}
	if enc == nil {
		return "", fmt.Errorf("character set %q is not supported", name)
	}
	e.CodePage = enc
	canonical, err := ianaindex.IANA.Name(enc)
	if err != nil {
		return name, nil
	}
	return canonical, nil
}
