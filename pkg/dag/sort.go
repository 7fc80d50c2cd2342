// Package dag orders workflow nodes by their connection edges and rejects
// cyclic graphs before any executor runs.
package dag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aurelia-hq/strand/pkg/models"
)

// CycleError names the node set left unordered when the graph is not acyclic.
type CycleError struct {
	Nodes []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected involving nodes [%s]", strings.Join(e.Nodes, ", "))
}

// Sort returns nodes in a valid execution order using Kahn's algorithm.
// Nodes with equal in-degree are kept in declaration order so repeated runs
// of the same workflow are deterministic. All declared edges count as real
// dependencies; branch pruning happens at run time, never here.
//
// Connections referencing unknown node ids are a configuration error.
func Sort(nodes []*models.Node, connections []*models.Connection) ([]*models.Node, error) {
	index := make(map[string]int, len(nodes)) // node id -> declaration position
	for i, n := range nodes {
		index[n.ID] = i
	}

	inDegree := make(map[string]int, len(nodes))
	successors := make(map[string][]string, len(nodes))

	for _, c := range connections {
		if _, ok := index[c.SourceNode]; !ok {
			return nil, fmt.Errorf("connection %s references unknown source node %s", c.ID, c.SourceNode)
		}

		if _, ok := index[c.TargetNode]; !ok {
			return nil, fmt.Errorf("connection %s references unknown target node %s", c.ID, c.TargetNode)
		}

		inDegree[c.TargetNode]++
		successors[c.SourceNode] = append(successors[c.SourceNode], c.TargetNode)
	}

	ready := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if inDegree[n.ID] == 0 {
			ready = append(ready, n.ID)
		}
	}

	ordered := make([]*models.Node, 0, len(nodes))

	for len(ready) > 0 {
		// Stable tie-break: lowest declaration position first.
		sort.Slice(ready, func(i, j int) bool {
			return index[ready[i]] < index[ready[j]]
		})

		id := ready[0]
		ready = ready[1:]
		ordered = append(ordered, nodes[index[id]])

		for _, succ := range successors[id] {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				ready = append(ready, succ)
			}
		}
	}

	if len(ordered) != len(nodes) {
		remaining := make([]string, 0)

		seen := make(map[string]bool, len(ordered))
		for _, n := range ordered {
			seen[n.ID] = true
		}

		for _, n := range nodes {
			if !seen[n.ID] {
				remaining = append(remaining, n.ID)
			}
		}

		return nil, &CycleError{Nodes: remaining}
	}

	return ordered, nil
}

// Successors builds an outgoing-edge adjacency view keyed by source node id.
func Successors(connections []*models.Connection) map[string][]*models.Connection {
	out := make(map[string][]*models.Connection, len(connections))
	for _, c := range connections {
		out[c.SourceNode] = append(out[c.SourceNode], c)
	}

	return out
}
