package interpret

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachineHappyPath(t *testing.T) {
	m := newMachine()
	require.NoError(t, m.to(StateCompiling))
	require.NoError(t, m.to(StateAwaitingModel))
	require.NoError(t, m.to(StateParsing))
	require.NoError(t, m.to(StateValidated))
	assert.Equal(t, StateValidated, m.state)
}

func TestMachineRetryLoops(t *testing.T) {
	m := newMachine()
	require.NoError(t, m.to(StateCompiling))
	require.NoError(t, m.to(StateAwaitingModel))
	// Transport retry stays in awaiting_model.
	require.NoError(t, m.to(StateAwaitingModel))
	require.NoError(t, m.to(StateParsing))
	// A malformed reply goes back for another attempt.
	require.NoError(t, m.to(StateAwaitingModel))
	require.NoError(t, m.to(StateParsing))
	require.NoError(t, m.to(StateValidated))
	// The next batch starts from validated.
	require.NoError(t, m.to(StateAwaitingModel))
}

func TestMachineRejectsIllegalTransitions(t *testing.T) {
	m := newMachine()
	assert.Error(t, m.to(StateValidated), "idle cannot jump to validated")
	require.NoError(t, m.to(StateCompiling))
	assert.Error(t, m.to(StateParsing), "compiling cannot skip the model call")

	require.NoError(t, m.to(StateFailed))
	assert.Error(t, m.to(StateCompiling), "failed is terminal")
}

func TestMustToPanics(t *testing.T) {
	m := newMachine()
	assert.Panics(t, func() { m.mustTo(StateParsing) })
}
