package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurelia-hq/strand/pkg/models"
)

func ctx(values map[string]any) *models.ExecutionContext {
	return models.NewExecutionContext("exec-1", "wf-1", "user-1", values)
}

func TestRender(t *testing.T) {
	out, err := Render("Hi {{.customer_name}}, re: {{.topic}}", ctx(map[string]any{
		"customer_name": "Maria",
		"topic":         "pricing",
	}))
	require.NoError(t, err)
	assert.Equal(t, "Hi Maria, re: pricing", out)
}

func TestRender_PlainStringsPassThrough(t *testing.T) {
	out, err := Render("no placeholders here", ctx(nil))
	require.NoError(t, err)
	assert.Equal(t, "no placeholders here", out)
}

func TestRender_MissingKeyRendersEmpty(t *testing.T) {
	out, err := Render("Hello {{.nobody}}!", ctx(map[string]any{"other": "x"}))
	require.NoError(t, err)
	assert.Equal(t, "Hello !", out)
}

func TestRender_InvalidTemplate(t *testing.T) {
	_, err := Render("{{.unclosed", ctx(nil))
	assert.Error(t, err)
}

func TestRenderAll(t *testing.T) {
	subject := "Re: {{.topic}}"
	body := "Hi {{.customer_name}}"

	execCtx := ctx(map[string]any{"topic": "pricing", "customer_name": "Maria"})

	require.NoError(t, RenderAll(execCtx, &subject, &body))
	assert.Equal(t, "Re: pricing", subject)
	assert.Equal(t, "Hi Maria", body)
}

func TestRenderAll_StopsOnFirstError(t *testing.T) {
	good := "{{.topic}}"
	bad := "{{.unclosed"

	err := RenderAll(ctx(map[string]any{"topic": "x"}), &good, &bad)
	require.Error(t, err)
	assert.Equal(t, "x", good, "templates before the failure are already rendered")
	assert.Equal(t, "{{.unclosed", bad)
}
