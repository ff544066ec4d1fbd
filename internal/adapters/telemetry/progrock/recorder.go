// Package progrock provides the Progrock implementation of the tracer.
package progrock

import (
	"context"
	"fmt"

	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"
	"go.trai.ch/lockstep/internal/core/ports"
)

// Recorder implements ports.Tracer using the progrock library. Each span is
// a progrock vertex keyed by the digest of its name, so a package shows up
// as one row of install progress.
type Recorder struct {
	w   progrock.Writer
	rec *progrock.Recorder
}

// New creates a new Recorder with a default tape.
func New() ports.Tracer {
	return NewRecorder(progrock.NewTape())
}

// NewRecorder creates a new Recorder with the given writer.
func NewRecorder(w progrock.Writer) *Recorder {
	return &Recorder{
		w:   w,
		rec: progrock.NewRecorder(w),
	}
}

// Start begins a vertex for the named unit of work.
func (r *Recorder) Start(ctx context.Context, name string, opts ...ports.SpanOption) (context.Context, ports.Span) {
	cfg := &ports.SpanConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	v := r.rec.Vertex(digest.FromString(name), name)
	return ctx, &Span{vertex: v}
}

// EmitPlan records the planned packages as a completed vertex so the full
// install set is visible before any fetch starts.
func (r *Recorder) EmitPlan(_ context.Context, packages []string) {
	v := r.rec.Vertex(digest.FromString("plan"), fmt.Sprintf("plan: %d packages", len(packages)))
	for _, pkg := range packages {
		_, _ = fmt.Fprintln(v.Stdout(), pkg)
	}
	v.Done(nil)
}

// Close flushes and closes the recording session.
func (r *Recorder) Close() error {
	if c, ok := r.w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
