package util

import (
	"fmt"
	"os"
	"runtime/debug"

	log "github.com/sirupsen/logrus"

	"github.com/fhnwtools/unisync/pkg/errors"
)

// HandleFatalError prints the error in its friendliest form and exits.
func HandleFatalError(err error) {
	log.WithError(err).Debug("Fatal error")
	fmt.Fprintln(os.Stderr, errors.GetPrintableMessage(err))
	os.Exit(1)
}

// HandlePanic recovers from panics, prints the stack, and exits non-zero. It
// should be deferred at the top of main.
func HandlePanic() {
	if r := recover(); r != nil {
		fmt.Fprintf(os.Stderr, "unisync crashed: %v\n\n%s", r, debug.Stack())
		os.Exit(1)
	}
}
