package progrock

import (
	"fmt"
	"sync"

	"github.com/vito/progrock"
)

// Span implements ports.Span wrapping *progrock.VertexRecorder. The vertex is
// completed once, on End, with whatever error was recorded before it.
type Span struct {
	vertex *progrock.VertexRecorder

	mu   sync.Mutex
	err  error
	done bool
}

// Write forwards log output to the vertex's stdout stream.
func (s *Span) Write(p []byte) (n int, err error) {
	return s.vertex.Stdout().Write(p)
}

// End completes the vertex.
func (s *Span) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}
	s.done = true
	s.vertex.Done(s.err)
}

// RecordError stores the error the vertex will be completed with.
func (s *Span) RecordError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Cached marks the vertex as a cache hit.
func (s *Span) Cached() {
	s.vertex.Cached()
}

// SetAttribute surfaces the pair on the vertex's output stream.
func (s *Span) SetAttribute(key string, value any) {
	_, _ = fmt.Fprintf(s.vertex.Stdout(), "%s=%v\n", key, value)
}
