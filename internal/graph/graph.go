// Package graph validates the structure of workflow dependency graphs: it
// rejects edges that would break the acyclic invariant, checks edge kinds,
// and reconciles the edge set after nodes are removed. All functions are pure
// over the representation the caller supplies.
package graph

// NodeKind distinguishes task nodes from agent nodes in the editing surface's
// graph representation.
type NodeKind string

const (
	NodeTask  NodeKind = "task"
	NodeAgent NodeKind = "agent"
)

// Node is a vertex in the workflow graph.
type Node struct {
	ID   string   `json:"id"`
	Kind NodeKind `json:"kind"`
}

// Edge is a directed connection between two nodes. An agent->task edge is an
// assignment; a task->task edge is a dependency (From must complete before
// To runs).
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Verdict is the outcome of validating a candidate edge.
type Verdict struct {
	Valid  bool
	Reason string
}

func reject(reason string) Verdict { return Verdict{Reason: reason} }

func nodeIndex(nodes []Node) map[string]NodeKind {
	idx := make(map[string]NodeKind, len(nodes))
	for _, n := range nodes {
		idx[n.ID] = n.Kind
	}
	return idx
}
