// Package crashreport funnels fatal storage-engine errors through an optional
// Sentry client before the process exits. Without SENTRY_DSN set, Report is a
// no-op and Fatalf behaves exactly like printing to stderr and exiting.
package crashreport

import (
	"fmt"
	"os"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/getsentry/sentry-go"
)

var (
	initOnce sync.Once
	enabled  bool
)

func ensureInit() {
	initOnce.Do(func() {
		dsn := os.Getenv("SENTRY_DSN")
		if dsn == "" {
			return
		}
		if err := sentry.Init(sentry.ClientOptions{Dsn: dsn}); err != nil {
			fmt.Fprintf(os.Stderr, "crashreport: sentry init failed: %v\n", err)
			return
		}
		enabled = true
	})
}

// Report sends err to Sentry if configured. It never exits the process.
func Report(err error) {
	ensureInit()
	if !enabled || err == nil {
		return
	}
	sentry.CaptureException(err)
	sentry.Flush(0)
}

// Fatalf wraps a formatted message in a stack-carrying error, reports it, and
// terminates the process with a non-zero exit code. Used for the engine's
// unrecoverable conditions: corrupt files, I/O failures, and page-bounds
// violations that should never occur while the tree's invariants hold.
func Fatalf(format string, args ...interface{}) {
	err := errors.Newf(format, args...)
	fmt.Fprintln(os.Stderr, err.Error())
	Report(err)
	os.Exit(1)
}
