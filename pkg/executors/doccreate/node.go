// Package doccreate provides the document-creation node. Creating a document
// is retry-tolerant (a duplicate document is recoverable), so it acts
// directly through the documents capability.
package doccreate

import (
	"context"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/aurelia-hq/strand/pkg/models"
	"github.com/aurelia-hq/strand/pkg/protocol"
	"github.com/aurelia-hq/strand/pkg/template"
)

const defaultOutputKey = "document_id"

type config struct {
	Title     string `mapstructure:"title"`
	Body      string `mapstructure:"body"`
	OutputKey string `mapstructure:"output_key"`
}

type Executor struct{}

func (e *Executor) Execute(ctx context.Context, in protocol.ExecInput) (*models.ExecutionContext, error) {
	var cfg config
	if err := mapstructure.Decode(in.Data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid doc_create config: %w", err)
	}

	if cfg.Title == "" {
		return nil, fmt.Errorf("doc_create node %s: title is required", in.NodeID)
	}

	if in.Capabilities == nil || in.Capabilities.Documents == nil {
		return nil, fmt.Errorf("doc_create node %s: documents capability not available", in.NodeID)
	}

	if cfg.OutputKey == "" {
		cfg.OutputKey = defaultOutputKey
	}

	if err := template.RenderAll(in.Context, &cfg.Title, &cfg.Body); err != nil {
		return nil, fmt.Errorf("doc_create node %s: %w", in.NodeID, err)
	}

	started := time.Now()

	docID, err := in.Capabilities.Documents.CreateDocument(ctx, in.UserID, cfg.Title, cfg.Body)
	if err != nil {
		return nil, fmt.Errorf("doc_create node %s: creation failed: %w", in.NodeID, err)
	}

	if in.Capabilities.Trace != nil {
		in.Capabilities.Trace.LogToolCall("document_created", map[string]any{
			"node_id":     in.NodeID,
			"document_id": docID,
		}, time.Since(started).Milliseconds())
	}

	return in.Context.With(cfg.OutputKey, docID), nil
}
