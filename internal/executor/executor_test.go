package executor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_CapturesStdout(t *testing.T) {
	e := New(5*time.Second, 64*1024, 100)
	res := e.Run(context.Background(), []string{"echo", "hello"}, "", 0)
	assert.Equal(t, 0, res.ExitCode)
	assert.Contains(t, res.Stdout, "hello")
	assert.False(t, res.TimedOut)
}

func TestRun_TimesOut(t *testing.T) {
	e := New(5*time.Second, 64*1024, 100)
	res := e.Run(context.Background(), []string{"sleep", "2"}, "", 50*time.Millisecond)
	assert.True(t, res.TimedOut)
}

func TestRun_CommandNotFound(t *testing.T) {
	e := New(5*time.Second, 64*1024, 100)
	res := e.Run(context.Background(), []string{"definitely-not-a-real-binary-xyz"}, "", 0)
	assert.True(t, res.NotFound)
	assert.Equal(t, -1, res.ExitCode)
}

func TestRun_TruncatesOversizedOutput(t *testing.T) {
	e := New(5*time.Second, 4, 100)
	res := e.Run(context.Background(), []string{"echo", "hello world"}, "", 0)
	assert.True(t, res.Truncated)
	assert.Len(t, res.Stdout, 4)
}

func TestSubmitAndWait_CompletesSuccessfully(t *testing.T) {
	e := New(5*time.Second, 64*1024, 100)
	id := e.Submit(context.Background(), []string{"echo", "async"}, "", 0)
	require.NotEmpty(t, id)

	res := e.Wait(context.Background(), id, 10*time.Millisecond)
	require.NotNil(t, res)
	assert.Contains(t, res.Stdout, "async")

	job := e.GetJob(id)
	require.NotNil(t, job)
	assert.Equal(t, StatusCompleted, job.Status)
}

func TestCancel_OnlyAffectsPendingJobs(t *testing.T) {
	e := New(5*time.Second, 64*1024, 100)
	id := e.Submit(context.Background(), []string{"echo", "x"}, "", 0)
	e.Wait(context.Background(), id, 5*time.Millisecond)

	assert.False(t, e.Cancel(id))
	assert.False(t, e.Cancel("unknown-id"))
}

func TestWait_UnknownJobReturnsNil(t *testing.T) {
	e := New(5*time.Second, 64*1024, 100)
	assert.Nil(t, e.Wait(context.Background(), "nope", time.Millisecond))
}

func TestEvictOldJobs_NeverEvictsNonTerminal(t *testing.T) {
	e := New(5*time.Second, 64*1024, 2)

	blockerID := e.Submit(context.Background(), []string{"sleep", "1"}, "", 5*time.Second)
	e.Submit(context.Background(), []string{"echo", "a"}, "", 0)
	time.Sleep(20 * time.Millisecond)
	e.Submit(context.Background(), []string{"echo", "b"}, "", 0)

	job := e.GetJob(blockerID)
	require.NotNil(t, job)
	assert.NotEqual(t, StatusCancelled, job.Status)
}

func TestListJobs_ReturnsSnapshot(t *testing.T) {
	e := New(5*time.Second, 64*1024, 100)
	e.Submit(context.Background(), []string{"echo", "a"}, "", 0)
	e.Submit(context.Background(), []string{"echo", "b"}, "", 0)
	time.Sleep(20 * time.Millisecond)

	jobs := e.ListJobs()
	assert.Len(t, jobs, 2)
}
