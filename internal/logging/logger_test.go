package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultsLevelOnParseFailure(t *testing.T) {
	l := New("cas-dispatch", "not-a-level", "json")
	require.NotNil(t, l)
	assert.Equal(t, "info", l.GetLevel().String())
}

func TestWithNewTrace_GeneratesID(t *testing.T) {
	ctx := WithNewTrace(context.Background())
	id := TraceID(ctx)
	assert.NotEmpty(t, id)
}

func TestTraceID_AbsentReturnsEmpty(t *testing.T) {
	assert.Empty(t, TraceID(context.Background()))
}
