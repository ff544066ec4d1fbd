package progrock_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lockstep/internal/adapters/telemetry/progrock"
)

func TestNew(t *testing.T) {
	recorder := progrock.New()
	assert.NotNil(t, recorder)
	assert.NoError(t, recorder.Close())
}

func TestRecorder_SpanLifecycle(t *testing.T) {
	recorder := progrock.New()

	_, span := recorder.Start(context.Background(), "install six")
	n, err := span.Write([]byte("fetching\n"))
	require.NoError(t, err)
	assert.Equal(t, 9, n)
	span.SetAttribute("version", "1.16.0")
	span.End()
	span.End() // double End must be safe

	assert.NoError(t, recorder.Close())
}

func TestRecorder_SpanError(t *testing.T) {
	recorder := progrock.New()

	_, span := recorder.Start(context.Background(), "install structlog")
	span.RecordError(errors.New("digest mismatch"))
	span.End()

	assert.NoError(t, recorder.Close())
}

func TestRecorder_EmitPlan(t *testing.T) {
	recorder := progrock.New()
	recorder.EmitPlan(context.Background(), []string{"six", "structlog"})
	assert.NoError(t, recorder.Close())
}
