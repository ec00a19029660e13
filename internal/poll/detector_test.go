package poll_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhfingal/tesla-powerwall-fingal/internal/device"
	"github.com/danielhfingal/tesla-powerwall-fingal/internal/poll"
)

func TestClassifyFirstPollIsDelta(t *testing.T) {
	state := device.State{"soe": 80.0}

	outcome, canon, err := poll.Classify(state, nil)
	require.NoError(t, err)
	assert.Equal(t, poll.OutcomeDelta, outcome)
	assert.NotEmpty(t, canon)
}

func TestClassifyUnchangedStateIsNoChange(t *testing.T) {
	state := device.State{
		"soe":    80.0,
		"vitals": map[string]interface{}{"a": 1.0, "b": 2.0},
	}

	_, canon, err := poll.Classify(state, nil)
	require.NoError(t, err)

	// Same values, different key order.
	permuted := device.State{
		"vitals": map[string]interface{}{"b": 2.0, "a": 1.0},
		"soe":    80.0,
	}

	outcome, canon2, err := poll.Classify(permuted, canon)
	require.NoError(t, err)
	assert.Equal(t, poll.OutcomeNoChange, outcome)
	assert.Equal(t, canon, canon2)
}

func TestClassifyChangedStateIsDelta(t *testing.T) {
	_, canon, err := poll.Classify(device.State{"soe": 80.0}, nil)
	require.NoError(t, err)

	outcome, canon2, err := poll.Classify(device.State{"soe": 81.0}, canon)
	require.NoError(t, err)
	assert.Equal(t, poll.OutcomeDelta, outcome)
	assert.NotEqual(t, canon, canon2)
}

func TestClassifyRepeatedPollsNoFalseDeltas(t *testing.T) {
	state := device.State{
		"soe":    55.5,
		"vitals": map[string]interface{}{"temp": 21.0},
	}

	outcome, canon, err := poll.Classify(state, nil)
	require.NoError(t, err)
	require.Equal(t, poll.OutcomeDelta, outcome)

	for i := 0; i < 10; i++ {
		outcome, canon, err = poll.Classify(state, canon)
		require.NoError(t, err)
		assert.Equal(t, poll.OutcomeNoChange, outcome, "iteration %d", i)
	}
}
