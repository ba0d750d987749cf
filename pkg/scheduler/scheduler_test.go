package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-commerce/pkg/logger"
)

type countingJob struct {
	runs int
	err  error
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs++
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("expected a deadline")
	}
	return j.err
}

func TestRegister_Validation(t *testing.T) {
	s := New(logger.New("test", "debug"))

	_, err := s.Register("", &countingJob{})
	assert.Error(t, err)

	_, err = s.Register("@every 1m", nil)
	assert.Error(t, err)

	_, err = s.Register("not a spec", &countingJob{})
	assert.Error(t, err)

	_, err = s.Register("@every 5m", &countingJob{})
	require.NoError(t, err)
}

func TestWrap_RunsWithTimeout(t *testing.T) {
	s := New(logger.New("test", "debug"))
	job := &countingJob{err: errors.New("boom")}

	s.wrap(job)()
	s.wrap(job)()

	assert.Equal(t, 2, job.runs)
}

func TestStartStop_Idempotent(t *testing.T) {
	s := New(logger.New("test", "debug"))

	s.Start()
	s.Start()
	<-s.Stop().Done()

	ctx := s.Stop()
	assert.NoError(t, ctx.Err())
}
