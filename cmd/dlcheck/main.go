// dlcheck validates analytics dataLayer events against an event schema
// registry, checks GA4 collection limits, and serves both over HTTP or
// against a Kafka topic.
package main

import (
	"errors"
	"fmt"
	"os"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	a := newApp(os.Stdin, os.Stdout, os.Stderr)
	if err := a.rootCmd().Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}

// exitError ends the process with code without printing anything further;
// the command has already reported why.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// errInvalid signals that at least one record failed a check.
var errInvalid = &exitError{code: 1}
