package models

// Node is a single typed step in a workflow graph. Type selects the executor;
// Data is executor-specific configuration validated by that executor's schema,
// never by the engine itself.
type Node struct {
	ID      string         `json:"id"      validate:"required"`
	Type    string         `json:"type"    validate:"required"`
	Name    string         `json:"name"`
	Data    map[string]any `json:"data"`
	Enabled bool           `json:"enabled"`
}

// Connection is a directed edge between two nodes. Multiple outgoing edges
// from a branching node are disambiguated by SourceHandle.
type Connection struct {
	ID           string `json:"id"`
	SourceNode   string `json:"source_node"   validate:"required"`
	TargetNode   string `json:"target_node"   validate:"required"`
	SourceHandle string `json:"source_handle,omitempty"`
	TargetHandle string `json:"target_handle,omitempty"`
}
