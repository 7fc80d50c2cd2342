package models

import "encoding/json"

// selectedBranchKey is the reserved wire key used by older clients to carry
// branch selection inside the context payload. In memory the selection lives
// on the typed SelectedBranch field; the reserved key only exists in JSON.
const selectedBranchKey = "__selectedBranch"

// ExecutionContext is the append-only key/value bag threaded through node
// executors for the duration of one execution. Each executor receives the
// accumulated context and returns a new one; the run is a fold over nodes.
type ExecutionContext struct {
	ExecutionID string
	WorkflowID  string
	UserID      string
	Values      map[string]any

	// SelectedBranch, when set by a branching executor, names the outgoing
	// edge handle the run should follow from that node. Nil means all
	// outgoing edges are followed.
	SelectedBranch *string
}

// NewExecutionContext creates a context seeded with initial trigger data.
func NewExecutionContext(executionID, workflowID, userID string, initial map[string]any) *ExecutionContext {
	values := make(map[string]any, len(initial))
	for k, v := range initial {
		values[k] = v
	}

	return &ExecutionContext{
		ExecutionID: executionID,
		WorkflowID:  workflowID,
		UserID:      userID,
		Values:      values,
	}
}

// Value returns the value stored under key.
func (c *ExecutionContext) Value(key string) (any, bool) {
	v, ok := c.Values[key]

	return v, ok
}

// With returns a copy of the context with key set. The receiver is not
// mutated, keeping the bag append-only from each executor's point of view.
func (c *ExecutionContext) With(key string, value any) *ExecutionContext {
	next := c.clone()
	next.Values[key] = value

	return next
}

// WithBranch returns a copy of the context carrying a branch selection.
func (c *ExecutionContext) WithBranch(handle string) *ExecutionContext {
	next := c.clone()
	next.SelectedBranch = &handle

	return next
}

// ClearBranch returns a copy with any branch selection removed. The run loop
// calls this after consuming a selection so it never leaks to later nodes.
func (c *ExecutionContext) ClearBranch() *ExecutionContext {
	next := c.clone()
	next.SelectedBranch = nil

	return next
}

func (c *ExecutionContext) clone() *ExecutionContext {
	values := make(map[string]any, len(c.Values)+1)
	for k, v := range c.Values {
		values[k] = v
	}

	return &ExecutionContext{
		ExecutionID:    c.ExecutionID,
		WorkflowID:     c.WorkflowID,
		UserID:         c.UserID,
		Values:         values,
		SelectedBranch: c.SelectedBranch,
	}
}

type executionContextWire struct {
	ExecutionID string         `json:"execution_id"`
	WorkflowID  string         `json:"workflow_id"`
	UserID      string         `json:"user_id,omitempty"`
	Values      map[string]any `json:"values"`
}

// MarshalJSON folds the typed branch selection back into the reserved wire key.
func (c *ExecutionContext) MarshalJSON() ([]byte, error) {
	values := make(map[string]any, len(c.Values)+1)
	for k, v := range c.Values {
		values[k] = v
	}

	if c.SelectedBranch != nil {
		values[selectedBranchKey] = *c.SelectedBranch
	}

	return json.Marshal(executionContextWire{
		ExecutionID: c.ExecutionID,
		WorkflowID:  c.WorkflowID,
		UserID:      c.UserID,
		Values:      values,
	})
}

// UnmarshalJSON lifts the reserved wire key into the typed field.
func (c *ExecutionContext) UnmarshalJSON(data []byte) error {
	var wire executionContextWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	c.ExecutionID = wire.ExecutionID
	c.WorkflowID = wire.WorkflowID
	c.UserID = wire.UserID
	c.Values = wire.Values

	if c.Values == nil {
		c.Values = make(map[string]any)
	}

	if raw, ok := c.Values[selectedBranchKey]; ok {
		if handle, ok := raw.(string); ok {
			c.SelectedBranch = &handle
		}

		delete(c.Values, selectedBranchKey)
	}

	return nil
}
