// Package file provides file-based persistence, one JSON document per record.
// It is the development default; production deployments use the redis driver.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aurelia-hq/strand/pkg/models"
	"github.com/aurelia-hq/strand/pkg/persistence"
)

// Persistence implements persistence.Persistence on the local filesystem.
type Persistence struct {
	root string

	workflows     *collection[models.Workflow]
	executions    *collection[models.Execution]
	triggers      *collection[models.Trigger]
	traces        *collection[models.Trace]
	insights      *collection[models.Insight]
	proposals     *collection[models.ModificationProposal]
	confirmations *collection[models.Confirmation]
	feedback      *collection[models.Feedback]
	optimizations *collection[models.OptimizationRun]
}

func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:          cleanRoot,
		workflows:     newCollection[models.Workflow](cleanRoot, "workflows"),
		executions:    newCollection[models.Execution](cleanRoot, "executions"),
		triggers:      newCollection[models.Trigger](cleanRoot, "triggers"),
		traces:        newCollection[models.Trace](cleanRoot, "traces"),
		insights:      newCollection[models.Insight](cleanRoot, "insights"),
		proposals:     newCollection[models.ModificationProposal](cleanRoot, "proposals"),
		confirmations: newCollection[models.Confirmation](cleanRoot, "confirmations"),
		feedback:      newCollection[models.Feedback](cleanRoot, "feedback"),
		optimizations: newCollection[models.OptimizationRun](cleanRoot, "optimizations"),
	}
}

func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	return nil
}

// collection stores one record type as <root>/<name>/<id>.json with a mutex
// guarding concurrent writers inside one process.
type collection[T any] struct {
	dir string
	mu  sync.RWMutex
}

func newCollection[T any](root, name string) *collection[T] {
	return &collection[T]{dir: filepath.Join(root, name)}
}

func (c *collection[T]) path(id string) string {
	return filepath.Join(c.dir, id+".json")
}

func (c *collection[T]) save(id string, record *T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create collection dir %s: %w", c.dir, err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(c.path(id), data, 0o644)
}

func (c *collection[T]) get(id string) (*T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := os.ReadFile(c.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.ErrNotFound
		}

		return nil, err
	}

	var record T
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", c.path(id), err)
	}

	return &record, nil
}

func (c *collection[T]) list() ([]*T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*T{}, nil
		}

		return nil, err
	}

	records := make([]*T, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(c.dir, entry.Name()))
		if err != nil {
			return nil, err
		}

		var record T
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", entry.Name(), err)
		}

		records = append(records, &record)
	}

	return records, nil
}

func (c *collection[T]) delete(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.Remove(c.path(id)); err != nil {
		if os.IsNotExist(err) {
			return persistence.ErrNotFound
		}

		return err
	}

	return nil
}
