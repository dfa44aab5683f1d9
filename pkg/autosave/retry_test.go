package autosave_test

import (
	"testing"
	"time"

	"github.com/hificopy/formflow/pkg/autosave"
	"github.com/stretchr/testify/assert"
)

func TestExponentialBackoffStrategy(t *testing.T) {
	s := autosave.DefaultBackoff

	assert.Equal(t, time.Second, s.SleepDuration(-1, nil))
	assert.Equal(t, time.Second, s.SleepDuration(0, nil))
	assert.Equal(t, 2*time.Second, s.SleepDuration(1, nil))
	assert.Equal(t, 4*time.Second, s.SleepDuration(2, nil))
	assert.Equal(t, 4*time.Second, s.SleepDuration(10, nil), "capped at Max")

	assert.Zero(t, autosave.NoDelayStrategy{}.SleepDuration(3, nil))
}
