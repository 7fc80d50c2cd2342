// Package executors wires the built-in node types into a registry.
package executors

import (
	"github.com/aurelia-hq/strand/pkg/executors/chatpost"
	"github.com/aurelia-hq/strand/pkg/executors/condition"
	"github.com/aurelia-hq/strand/pkg/executors/doccreate"
	"github.com/aurelia-hq/strand/pkg/executors/emaildraft"
	"github.com/aurelia-hq/strand/pkg/executors/llm"
	lognode "github.com/aurelia-hq/strand/pkg/executors/log"
	"github.com/aurelia-hq/strand/pkg/executors/transform"
	"github.com/aurelia-hq/strand/pkg/protocol"
	"github.com/aurelia-hq/strand/pkg/registry"
)

// RegisterDefaults registers every built-in node type.
func RegisterDefaults(reg *registry.Registry) error {
	factories := []protocol.ExecutorFactory{
		transform.NewFactory(),
		condition.NewFactory(),
		llm.NewFactory(),
		emaildraft.NewFactory(),
		chatpost.NewFactory(),
		doccreate.NewFactory(),
		lognode.NewFactory(),
	}

	for _, factory := range factories {
		if err := reg.Register(factory); err != nil {
			return err
		}
	}

	return nil
}
