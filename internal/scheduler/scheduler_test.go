package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decisiveml/ruinlab/pkg/logger"
)

type countingJob struct {
	name     string
	schedule string
	failures int32 // 처음 N번 실패
	err      error
	calls    int32
}

func (j *countingJob) Name() string     { return j.name }
func (j *countingJob) Schedule() string { return j.schedule }

func (j *countingJob) Run(ctx context.Context) error {
	n := atomic.AddInt32(&j.calls, 1)
	if n <= j.failures {
		return j.err
	}
	return nil
}

func newTestScheduler() *Scheduler {
	return New(logger.Nop()).WithRetry(3, time.Millisecond)
}

func TestAddJob(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.AddJob(&countingJob{name: "b", schedule: "0 30 2 * * *"}))
	require.NoError(t, s.AddJob(&countingJob{name: "a", schedule: "@daily"}))

	assert.Equal(t, []string{"a", "b"}, s.GetAllJobs())

	err := s.AddJob(&countingJob{name: "a", schedule: "@daily"})
	assert.ErrorContains(t, err, "already exists")
}

func TestAddJob_InvalidSchedule(t *testing.T) {
	s := newTestScheduler()

	// 초 필드 없는 5필드 표현식은 거부
	err := s.AddJob(&countingJob{name: "bad", schedule: "30 2 * * *"})
	assert.Error(t, err)
	assert.Empty(t, s.GetAllJobs())
}

func TestRemoveJob(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(&countingJob{name: "a", schedule: "@hourly"}))

	require.NoError(t, s.RemoveJob("a"))
	assert.Empty(t, s.GetAllJobs())
	assert.ErrorIs(t, s.RemoveJob("a"), ErrJobNotFound)
}

func TestRunJobNow_Retries(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "flaky", schedule: "@daily", failures: 2, err: errors.New("temporary")}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJobNow(context.Background(), "flaky")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Attempts)

	history, err := s.GetJobHistory("flaky")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Success)
}

func TestRunJobNow_ExhaustsRetries(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "broken", schedule: "@daily", failures: 100, err: errors.New("down")}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJobNow(context.Background(), "broken")
	assert.EqualError(t, err, "down")
	assert.False(t, result.Success)
	assert.Equal(t, 4, result.Attempts)
	assert.Equal(t, int32(4), atomic.LoadInt32(&job.calls))
}

func TestRunJobNow_PermanentError(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "invalid", schedule: "@daily", failures: 100, err: Permanent(errors.New("bad profile"))}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJobNow(context.Background(), "invalid")
	assert.Error(t, err)
	assert.Equal(t, 1, result.Attempts)
}

func TestRunJobNow_NotFound(t *testing.T) {
	_, err := newTestScheduler().RunJobNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestGetJobStats(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(&countingJob{name: "ok", schedule: "@daily"}))
	require.NoError(t, s.AddJob(&countingJob{name: "never", schedule: "@weekly"}))

	_, err := s.RunJobNow(context.Background(), "ok")
	require.NoError(t, err)
	_, err = s.RunJobNow(context.Background(), "ok")
	require.NoError(t, err)

	stats := s.GetJobStats()
	require.Len(t, stats, 2)

	assert.Equal(t, 2, stats["ok"].TotalRuns)
	assert.Equal(t, 1.0, stats["ok"].SuccessRate)
	assert.NotNil(t, stats["ok"].LastSuccess)
	assert.Nil(t, stats["ok"].LastFailure)

	assert.Equal(t, 0, stats["never"].TotalRuns)
	assert.Nil(t, stats["never"].LastRun)
}

func TestStartStop_Fires(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "tick", schedule: "@every 1s"}
	require.NoError(t, s.AddJob(job))

	s.Start()
	next, err := s.NextRun("tick")
	require.NoError(t, err)
	assert.False(t, next.IsZero())

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&job.calls) > 0
	}, 5*time.Second, 50*time.Millisecond)

	s.Stop()
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < maxHistory+10; i++ {
		h.AddResult(JobResult{Success: i%2 == 0})
	}

	assert.Len(t, h.Results, maxHistory)
	assert.Len(t, h.GetLatestResults(5), 5)
	assert.Len(t, h.GetFailedResults(), maxHistory/2)
	assert.InDelta(t, 0.5, h.GetSuccessRate(), 1e-9)
	assert.Empty(t, (&JobHistory{}).GetLatestResults(3))
	assert.Equal(t, 0.0, (&JobHistory{}).GetSuccessRate())
}
