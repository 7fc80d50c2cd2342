// Package transform provides the data-mapping node: it writes literal values
// and copies of earlier context values under new keys, without side effects.
package transform

import (
	"context"
	"fmt"
	"sort"

	"github.com/mitchellh/mapstructure"

	"github.com/aurelia-hq/strand/pkg/models"
	"github.com/aurelia-hq/strand/pkg/protocol"
	"github.com/aurelia-hq/strand/pkg/template"
)

type config struct {
	// Set writes values into the context. String values support templating
	// against the current context.
	Set map[string]any `mapstructure:"set"`

	// Copy maps destination keys to existing source keys.
	Copy map[string]string `mapstructure:"copy"`
}

// Executor is stateless; per-node configuration arrives at execute time.
type Executor struct{}

func (e *Executor) Execute(_ context.Context, in protocol.ExecInput) (*models.ExecutionContext, error) {
	var cfg config
	if err := mapstructure.Decode(in.Data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid transform config: %w", err)
	}

	out := in.Context

	// Deterministic write order keeps repeated runs identical.
	for _, key := range sortedKeys(cfg.Set) {
		value := cfg.Set[key]

		if s, ok := value.(string); ok {
			rendered, err := template.Render(s, out)
			if err != nil {
				return nil, fmt.Errorf("transform key %q: %w", key, err)
			}

			value = rendered
		}

		out = out.With(key, value)
	}

	for _, dst := range sortedStringKeys(cfg.Copy) {
		src := cfg.Copy[dst]

		value, ok := out.Value(src)
		if !ok {
			return nil, fmt.Errorf("transform copy: source key %q not present in context", src)
		}

		out = out.With(dst, value)
	}

	return out, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

func sortedStringKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
