package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathhive/math-practice-hub/pkg/logger"
)

type countingJob struct {
	name string
	runs atomic.Int64
	err  error
}

func (j *countingJob) Name() string        { return j.name }
func (j *countingJob) Description() string { return "counting job" }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	return j.err
}

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{Level: logger.LevelError, Output: nopWriter{}})
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestScheduler_RegisterRejectsDuplicates(t *testing.T) {
	s := NewScheduler(quietLogger())
	job := &countingJob{name: "rollover"}

	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	err := s.Register(job, NewIntervalSchedule(time.Hour))
	assert.ErrorIs(t, err, ErrJobAlreadyExists)
}

func TestScheduler_RegisterValidation(t *testing.T) {
	s := NewScheduler(quietLogger())

	assert.ErrorIs(t, s.Register(nil, NewIntervalSchedule(time.Hour)), ErrNilJob)
	assert.ErrorIs(t, s.Register(&countingJob{name: "j"}, nil), ErrNilSchedule)
}

func TestScheduler_RunNowExecutesImmediately(t *testing.T) {
	s := NewScheduler(quietLogger())
	job := &countingJob{name: "rollover"}
	require.NoError(t, s.Register(job, NewWeeklySchedule(time.Monday, 0, 5)))

	result, err := s.RunNow(context.Background(), "rollover")

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int64(1), job.runs.Load())
}

func TestScheduler_RunNowReportsJobError(t *testing.T) {
	s := NewScheduler(quietLogger())
	jobErr := errors.New("rollover blew up")
	job := &countingJob{name: "rollover", err: jobErr}
	require.NoError(t, s.Register(job, NewWeeklySchedule(time.Monday, 0, 5)))

	result, err := s.RunNow(context.Background(), "rollover")

	assert.ErrorIs(t, err, jobErr)
	require.NotNil(t, result)
	assert.False(t, result.Success)
}

func TestScheduler_RunNowUnknownJob(t *testing.T) {
	s := NewScheduler(quietLogger())

	_, err := s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler(quietLogger())
	require.NoError(t, s.Register(&countingJob{name: "rollover"}, NewWeeklySchedule(time.Monday, 0, 5)))

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
}

func TestScheduler_ListJobs(t *testing.T) {
	s := NewScheduler(quietLogger())
	require.NoError(t, s.Register(&countingJob{name: "rollover"}, NewWeeklySchedule(time.Monday, 0, 5)))

	_, err := s.RunNow(context.Background(), "rollover")
	require.NoError(t, err)

	infos := s.ListJobs()
	require.Len(t, infos, 1)
	assert.Equal(t, "rollover", infos[0].Name)
	assert.Equal(t, int64(1), infos[0].RunCount)
	assert.Equal(t, int64(0), infos[0].FailCount)
	require.NotNil(t, infos[0].LastResult)
	assert.True(t, infos[0].LastResult.Success)
}
