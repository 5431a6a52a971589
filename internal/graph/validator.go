package graph

import (
	"fmt"

	"github.com/gammazero/toposort"

	"github.com/hummbl-dev/flowcore/internal/workflow"
)

// ValidateEdge decides whether candidate may be added to the graph formed by
// nodes and edges. It must run before the edge is committed; the cycle check
// only preserves the acyclic invariant if no invalid edge ever lands.
//
// Rules:
//   - both endpoints must exist
//   - an agent node may only point at a task node (an assignment)
//   - a task node may not point at an agent node
//   - a node may not point at itself
//   - a task->task edge is rejected if the candidate's source is reachable
//     from its target along existing task->task edges (adding it would close
//     a cycle)
func ValidateEdge(nodes []Node, edges []Edge, candidate Edge) Verdict {
	kinds := nodeIndex(nodes)

	fromKind, ok := kinds[candidate.From]
	if !ok {
		return reject(fmt.Sprintf("source node %q does not exist", candidate.From))
	}
	toKind, ok := kinds[candidate.To]
	if !ok {
		return reject(fmt.Sprintf("target node %q does not exist", candidate.To))
	}

	if candidate.From == candidate.To {
		return reject("a node cannot depend on itself")
	}

	if fromKind == NodeAgent {
		if toKind != NodeTask {
			return reject("an agent may only be connected to a task")
		}
		// Agent->task assignment edges carry no ordering, so they cannot
		// participate in a cycle.
		return Verdict{Valid: true}
	}

	if toKind == NodeAgent {
		return reject("a task cannot be connected to an agent as a dependency target")
	}

	// Task->task dependency: DFS from the candidate's target back toward its
	// source along existing task->task edges. If the source is reachable,
	// the new edge would close a cycle.
	adj := taskAdjacency(kinds, edges)
	if reachable(adj, candidate.To, candidate.From) {
		return reject(fmt.Sprintf("edge %s -> %s would create a cycle", candidate.From, candidate.To))
	}

	return Verdict{Valid: true}
}

// Reconcile removes every edge whose source or target no longer exists among
// nodes. Used after a node deletion; idempotent.
func Reconcile(nodes []Node, edges []Edge) []Edge {
	kinds := nodeIndex(nodes)

	kept := make([]Edge, 0, len(edges))
	for _, e := range edges {
		if _, ok := kinds[e.From]; !ok {
			continue
		}
		if _, ok := kinds[e.To]; !ok {
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

// taskAdjacency builds a task->task adjacency list, ignoring agent edges.
func taskAdjacency(kinds map[string]NodeKind, edges []Edge) map[string][]string {
	adj := make(map[string][]string)
	for _, e := range edges {
		if kinds[e.From] != NodeTask || kinds[e.To] != NodeTask {
			continue
		}
		adj[e.From] = append(adj[e.From], e.To)
	}
	return adj
}

// reachable reports whether target can be reached from start by DFS.
func reachable(adj map[string][]string, start, target string) bool {
	if start == target {
		return true
	}

	seen := map[string]bool{start: true}
	stack := []string{start}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range adj[cur] {
			if next == target {
				return true
			}
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}

// ValidateWorkflow checks a workflow definition before a run starts: every
// task's agent must be present in the workflow's agent list, every dependency
// must reference an existing task, dependency sets must be true sets (no
// duplicates, no self-reference), and the dependency graph must be acyclic.
// Returns nil if the workflow is runnable.
func ValidateWorkflow(w *workflow.Workflow) error {
	if w == nil {
		return fmt.Errorf("workflow is nil")
	}
	if len(w.Tasks) == 0 {
		return fmt.Errorf("workflow %q has no tasks", w.ID)
	}

	taskIDs := make(map[string]bool, len(w.Tasks))
	for _, t := range w.Tasks {
		if taskIDs[t.ID] {
			return fmt.Errorf("duplicate task ID %q", t.ID)
		}
		taskIDs[t.ID] = true
	}

	for _, t := range w.Tasks {
		if w.AgentByID(t.AgentID) == nil {
			return fmt.Errorf("task %q is assigned to unknown agent %q", t.ID, t.AgentID)
		}

		seen := make(map[string]bool, len(t.DependsOn))
		for _, depID := range t.DependsOn {
			if depID == t.ID {
				return fmt.Errorf("task %q depends on itself", t.ID)
			}
			if seen[depID] {
				return fmt.Errorf("task %q lists dependency %q twice", t.ID, depID)
			}
			seen[depID] = true
			if !taskIDs[depID] {
				return fmt.Errorf("task %q depends on non-existent task %q", t.ID, depID)
			}
		}
	}

	// Topological sort over the dependency edges catches any cycle that the
	// per-edge checks were bypassed on (e.g. a workflow built directly in
	// memory).
	var edges []toposort.Edge
	for _, t := range w.Tasks {
		if len(t.DependsOn) == 0 {
			edges = append(edges, toposort.Edge{nil, t.ID})
			continue
		}
		for _, depID := range t.DependsOn {
			edges = append(edges, toposort.Edge{depID, t.ID})
		}
	}
	if _, err := toposort.Toposort(edges); err != nil {
		return fmt.Errorf("workflow %q contains a dependency cycle: %w", w.ID, err)
	}

	return nil
}
