// Package main is the entry point for the lockstep CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/grindlemire/graft"
	"go.trai.ch/lockstep/cmd/lockstep/commands"
	"go.trai.ch/lockstep/internal/app"
	"go.trai.ch/lockstep/internal/core/domain"
	_ "go.trai.ch/lockstep/internal/wiring"
)

const (
	exitOK         = 0
	exitFailure    = 1
	exitResolution = 2
	exitIntegrity  = 3
	exitFetch      = 4
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	components, _, err := graft.ExecuteFor[*app.Components](ctx)
	if err != nil {
		// Logger is not available yet if initialization failed
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		return exitFailure
	}
	defer components.Tracer.Close() //nolint:errcheck // Best effort close in defer

	cli := commands.New(components)
	if err := cli.Execute(ctx); err != nil {
		// zerr prints a pretty error report with stack trace and metadata when using %+v
		_, _ = fmt.Fprintf(os.Stderr, "%+v\n", err)
		return exitCode(err)
	}
	return exitOK
}

// exitCode maps error classes to distinct exit codes so callers can react
// without parsing output. Integrity wins over everything else: a tampered
// artifact must never look like a flaky download.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, domain.ErrIntegrityMismatch):
		return exitIntegrity
	case errors.Is(err, domain.ErrUnresolvableConstraint),
		errors.Is(err, domain.ErrMissingDependency),
		errors.Is(err, domain.ErrCycleDetected),
		errors.Is(err, domain.ErrUnsupportedInterpreter),
		errors.Is(err, domain.ErrPackageNotFound),
		errors.Is(err, domain.ErrInvalidManifest),
		errors.Is(err, domain.ErrInvalidVersion),
		errors.Is(err, domain.ErrInvalidConstraint),
		errors.Is(err, domain.ErrInvalidMarker):
		return exitResolution
	case errors.Is(err, domain.ErrFetchFailed):
		return exitFetch
	default:
		return exitFailure
	}
}
