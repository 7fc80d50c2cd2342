package transform

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
		NodeID:  "t-1",
		Context: execCtx,
	})
}

func TestExecute_SetLiterals(t *testing.T) {
	out, err := execute(t, map[string]any{
		"set": map[string]any{
			"greeting": "hello",
			"count":    3,
		},
	}, nil)
	require.NoError(t, err)

	v, _ := out.Value("greeting")
	assert.Equal(t, "hello", v)

	v, _ = out.Value("count")
	assert.Equal(t, 3, v)
}

func TestExecute_SetTemplated(t *testing.T) {
	out, err := execute(t, map[string]any{
		"set": map[string]any{
			"salutation": "Hi {{.customer_name}}",
		},
	}, map[string]any{"customer_name": "Maria"})
	require.NoError(t, err)

	v, _ := out.Value("salutation")
	assert.Equal(t, "Hi Maria", v)
}

func TestExecute_CopyExistingKey(t *testing.T) {
	out, err := execute(t, map[string]any{
		"copy": map[string]any{"final_draft": "draft"},
	}, map[string]any{"draft": "some text"})
	require.NoError(t, err)

	v, _ := out.Value("final_draft")
	assert.Equal(t, "some text", v)

	// Source is untouched.
	v, _ = out.Value("draft")
	assert.Equal(t, "some text", v)
}

func TestExecute_CopyMissingSourceFails(t *testing.T) {
	_, err := execute(t, map[string]any{
		"copy": map[string]any{"final": "missing"},
	}, nil)
	assert.Error(t, err)
}

func TestExecute_InputContextNotMutated(t *testing.T) {
	execCtx := models.NewExecutionContext("exec-1", "wf-1", "user-1", nil)

	_, err := (&Executor{}).Execute(context.Background(), protocol.ExecInput{
		Data:    map[string]any{"set": map[string]any{"k": "v"}},
		Context: execCtx,
	})
	require.NoError(t, err)

	_, ok := execCtx.Value("k")
	assert.False(t, ok, "executors receive the context read-only")
}
