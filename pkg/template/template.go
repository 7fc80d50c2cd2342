// Package template renders executor-configured strings against the values
// accumulated in the execution context, so node configuration can reference
// earlier nodes' output ({{.customer_name}}, {{.draft}}).
package template

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/aurelia-hq/strand/pkg/models"
)

// Render evaluates tmpl with the context's value bag as the template data.
// Missing keys render as empty rather than failing the node.
func Render(tmpl string, execCtx *models.ExecutionContext) (string, error) {
	if !strings.Contains(tmpl, "{{") {
		return tmpl, nil
	}

	parsed, err := template.New("node").Option("missingkey=zero").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("invalid template: %w", err)
	}

	var out strings.Builder
	if err := parsed.Execute(&out, execCtx.Values); err != nil {
		return "", fmt.Errorf("template execution failed: %w", err)
	}

	// text/template prints untyped nils as "<no value>".
	return strings.ReplaceAll(out.String(), "<no value>", ""), nil
}

// RenderAll renders every string in order, failing on the first bad template.
func RenderAll(execCtx *models.ExecutionContext, tmpls ...*string) error {
	for _, t := range tmpls {
		rendered, err := Render(*t, execCtx)
		if err != nil {
			return err
		}

		*t = rendered
	}

	return nil
}
