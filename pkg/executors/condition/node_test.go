package condition

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurelia-hq/strand/pkg/models"
	"github.com/aurelia-hq/strand/pkg/protocol"
)

func execute(t *testing.T, data map[string]any, values map[string]any) (*models.ExecutionContext, error) {
	t.Helper()

	execCtx := models.NewExecutionContext("exec-1", "wf-1", "user-1", values)

	return (&Executor{}).Execute(context.Background(), protocol.ExecInput{
		Data:    data,
		NodeID:  "cond-1",
		Context: execCtx,
	})
}

func TestExecute_TrueBranch(t *testing.T) {
	out, err := execute(t,
		map[string]any{"expression": "external_attendees > 0"},
		map[string]any{"external_attendees": 2})
	require.NoError(t, err)

	require.NotNil(t, out.SelectedBranch)
	assert.Equal(t, HandleTrue, *out.SelectedBranch)
}

func TestExecute_FallbackBranch(t *testing.T) {
	// All attendees on the organizer's domain: internal-only, fallback.
	out, err := execute(t,
		map[string]any{"expression": "external_attendees > 0"},
		map[string]any{"external_attendees": 0})
	require.NoError(t, err)

	require.NotNil(t, out.SelectedBranch)
	assert.Equal(t, HandleFallback, *out.SelectedBranch)
}

func TestExecute_CustomHandles(t *testing.T) {
	out, err := execute(t, map[string]any{
		"expression":      "priority == 'high'",
		"true_handle":     "urgent",
		"fallback_handle": "routine",
	}, map[string]any{"priority": "low"})
	require.NoError(t, err)

	assert.Equal(t, "routine", *out.SelectedBranch)
}

func TestExecute_CompoundExpression(t *testing.T) {
	out, err := execute(t,
		map[string]any{"expression": "attendee_count > 3 && duration_minutes >= 30"},
		map[string]any{"attendee_count": 5, "duration_minutes": 45})
	require.NoError(t, err)

	assert.Equal(t, HandleTrue, *out.SelectedBranch)
}

func TestExecute_MissingExpression(t *testing.T) {
	_, err := execute(t, map[string]any{}, nil)
	assert.Error(t, err)
}

func TestExecute_NonBooleanResult(t *testing.T) {
	_, err := execute(t,
		map[string]any{"expression": "attendee_count + 1"},
		map[string]any{"attendee_count": 2})
	assert.Error(t, err)
}

func TestExecute_InvalidExpression(t *testing.T) {
	_, err := execute(t, map[string]any{"expression": ">>>"}, nil)
	assert.Error(t, err)
}
