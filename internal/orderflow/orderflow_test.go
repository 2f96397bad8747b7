package orderflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFlow_Validation(t *testing.T) {
	_, err := NewFlow()
	assert.ErrorIs(t, err, ErrEmptyFlow)

	_, err = NewFlow(Pending, Delivered)
	assert.ErrorIs(t, err, ErrTerminalInFlow)

	_, err = NewFlow(Pending, Preparing, Pending)
	assert.ErrorIs(t, err, ErrDuplicateStatus)

	_, err = ParseFlow([]string{"pending", "baking"})
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestFlow_ZeroValueIsNotReady(t *testing.T) {
	var f Flow
	assert.True(t, f.Empty())
	_, err := f.Initial()
	assert.ErrorIs(t, err, ErrEmptyFlow)
	_, err = f.Advance(Pending)
	assert.ErrorIs(t, err, ErrEmptyFlow)
}

func TestFlow_DefaultPipeline(t *testing.T) {
	f, err := NewFlow(Pending, Preparing, Ready)
	require.NoError(t, err)

	initial, err := f.Initial()
	require.NoError(t, err)
	assert.Equal(t, Pending, initial)

	next, ok := f.Next(Pending)
	assert.True(t, ok)
	assert.Equal(t, Preparing, next)

	_, ok = f.Next(Ready)
	assert.False(t, ok, "last active status has no next")

	target, err := f.Advance(Ready)
	require.NoError(t, err)
	assert.Equal(t, Delivered, target)
}

func TestFlow_WalkVisitsEachStatusOnce(t *testing.T) {
	flows := [][]Status{
		{Pending},
		{Pending, Ready},
		{Ready, Pending, Preparing},
		{Preparing, Ready},
	}
	for _, steps := range flows {
		f, err := NewFlow(steps...)
		require.NoError(t, err)

		visited := []Status{}
		cur, err := f.Initial()
		require.NoError(t, err)
		for i := 0; i <= len(steps); i++ {
			visited = append(visited, cur)
			next, ok := f.Next(cur)
			if !ok {
				break
			}
			cur = next
		}
		assert.Equal(t, steps, visited)
	}
}

func TestFlow_AdvanceRejectsTerminal(t *testing.T) {
	f, err := NewFlow(Pending, Preparing)
	require.NoError(t, err)

	_, err = f.Advance(Delivered)
	assert.ErrorIs(t, err, ErrAlreadyFinalized)
	_, err = f.Advance(Cancelled)
	assert.ErrorIs(t, err, ErrAlreadyFinalized)
}

func TestFlow_StatusOutsideFlowCompletes(t *testing.T) {
	f, err := NewFlow(Pending, Ready)
	require.NoError(t, err)

	target, err := f.Advance(Preparing)
	require.NoError(t, err)
	assert.Equal(t, Delivered, target)
}

func TestFlow_StepsIsACopy(t *testing.T) {
	f, err := NewFlow(Pending, Preparing)
	require.NoError(t, err)
	steps := f.Steps()
	steps[0] = Ready
	assert.Equal(t, []Status{Pending, Preparing}, f.Steps())
	assert.Equal(t, []Status{Pending, Preparing, Delivered, Cancelled}, f.Visible())
}

func TestStatus_Label(t *testing.T) {
	assert.Equal(t, "Aguardando", Pending.Label())
	assert.Equal(t, "Em Preparo", Preparing.Label())
	assert.Equal(t, "Cancelado", Cancelled.Label())
	assert.Equal(t, "other", Status("other").Label())
}
