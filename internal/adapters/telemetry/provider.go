package telemetry

import (
	"go.trai.ch/lockstep/internal/adapters/telemetry/progrock"
	"go.trai.ch/lockstep/internal/core/ports"
	"go.trai.ch/zerr"
)

// NewTracer selects the tracer for the configured progress mode.
func NewTracer(progress string) (ports.Tracer, error) {
	switch progress {
	case "none":
		return NewNoOpTracer(), nil
	case "auto", "plain":
		return progrock.New(), nil
	default:
		return nil, zerr.With(zerr.New("unknown progress mode"), "progress", progress)
	}
}
