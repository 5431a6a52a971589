package graph

import (
	"strings"
	"testing"

	"github.com/hummbl-dev/flowcore/internal/workflow"
)

func chainNodes() []Node {
	return []Node{
		{ID: "A", Kind: NodeTask},
		{ID: "B", Kind: NodeTask},
		{ID: "C", Kind: NodeTask},
		{ID: "agent-1", Kind: NodeAgent},
	}
}

func chainEdges() []Edge {
	// A -> B -> C plus an assignment.
	return []Edge{
		{From: "A", To: "B"},
		{From: "B", To: "C"},
		{From: "agent-1", To: "A"},
	}
}

func TestValidateEdgeRejectsCycle(t *testing.T) {
	// C -> A would close the cycle A -> B -> C -> A.
	v := ValidateEdge(chainNodes(), chainEdges(), Edge{From: "C", To: "A"})
	if v.Valid {
		t.Fatal("expected cycle-closing edge to be rejected")
	}
	if !strings.Contains(v.Reason, "cycle") {
		t.Errorf("expected cycle reason, got '%s'", v.Reason)
	}
}

func TestValidateEdgeAcceptsForwardEdge(t *testing.T) {
	// A -> C shortcuts the chain without closing anything.
	v := ValidateEdge(chainNodes(), chainEdges(), Edge{From: "A", To: "C"})
	if !v.Valid {
		t.Errorf("expected forward edge to be accepted, got '%s'", v.Reason)
	}
}

func TestValidateEdgeRejectsSelfEdge(t *testing.T) {
	v := ValidateEdge(chainNodes(), chainEdges(), Edge{From: "A", To: "A"})
	if v.Valid {
		t.Error("expected self-edge to be rejected")
	}
}

func TestValidateEdgeRejectsMissingEndpoints(t *testing.T) {
	if v := ValidateEdge(chainNodes(), chainEdges(), Edge{From: "ghost", To: "A"}); v.Valid {
		t.Error("expected missing source to be rejected")
	}
	if v := ValidateEdge(chainNodes(), chainEdges(), Edge{From: "A", To: "ghost"}); v.Valid {
		t.Error("expected missing target to be rejected")
	}
}

func TestValidateEdgeAgentRules(t *testing.T) {
	nodes := []Node{
		{ID: "T", Kind: NodeTask},
		{ID: "agent-1", Kind: NodeAgent},
		{ID: "agent-2", Kind: NodeAgent},
	}

	// Agent -> task assignment is valid.
	if v := ValidateEdge(nodes, nil, Edge{From: "agent-1", To: "T"}); !v.Valid {
		t.Errorf("expected agent->task edge to be valid, got '%s'", v.Reason)
	}
	// Agent -> agent is not.
	if v := ValidateEdge(nodes, nil, Edge{From: "agent-1", To: "agent-2"}); v.Valid {
		t.Error("expected agent->agent edge to be rejected")
	}
	// Task -> agent is not.
	if v := ValidateEdge(nodes, nil, Edge{From: "T", To: "agent-1"}); v.Valid {
		t.Error("expected task->agent edge to be rejected")
	}
}

func TestAssignmentEdgesDoNotBlockDependencies(t *testing.T) {
	// Assignment edges carry no ordering; a second agent assigned to C must
	// not affect the reachability check for task edges.
	nodes := append(chainNodes(), Node{ID: "agent-2", Kind: NodeAgent})
	edges := append(chainEdges(), Edge{From: "agent-2", To: "C"})

	if v := ValidateEdge(nodes, edges, Edge{From: "A", To: "C"}); !v.Valid {
		t.Errorf("expected task edge to be valid alongside assignments, got '%s'", v.Reason)
	}
	if v := ValidateEdge(nodes, edges, Edge{From: "C", To: "A"}); v.Valid {
		t.Error("expected cycle-closing edge to stay rejected alongside assignments")
	}
}

func TestReconcileDropsOrphanedEdges(t *testing.T) {
	// B was deleted; both of its edges must go.
	nodes := []Node{
		{ID: "A", Kind: NodeTask},
		{ID: "C", Kind: NodeTask},
		{ID: "agent-1", Kind: NodeAgent},
	}
	kept := Reconcile(nodes, chainEdges())

	if len(kept) != 1 {
		t.Fatalf("expected 1 surviving edge, got %d", len(kept))
	}
	if kept[0].From != "agent-1" || kept[0].To != "A" {
		t.Errorf("expected only the assignment edge to survive, got %v", kept[0])
	}
}

func TestReconcileIdempotent(t *testing.T) {
	nodes := chainNodes()[:2] // A, B only
	once := Reconcile(nodes, chainEdges())
	twice := Reconcile(nodes, once)

	if len(once) != len(twice) {
		t.Fatalf("expected Reconcile to be idempotent, got %d then %d edges", len(once), len(twice))
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Errorf("edge %d changed on second pass: %v vs %v", i, once[i], twice[i])
		}
	}
}

func validWorkflow() *workflow.Workflow {
	return &workflow.Workflow{
		ID:     "wf-1",
		Status: workflow.WorkflowActive,
		Agents: []*workflow.Agent{{ID: "agent-1", Role: workflow.RoleExecutor}},
		Tasks: []*workflow.Task{
			{ID: "A", AgentID: "agent-1"},
			{ID: "B", AgentID: "agent-1", DependsOn: []string{"A"}},
			{ID: "C", AgentID: "agent-1", DependsOn: []string{"A", "B"}},
		},
	}
}

func TestValidateWorkflowAccepts(t *testing.T) {
	if err := ValidateWorkflow(validWorkflow()); err != nil {
		t.Errorf("expected valid workflow, got %v", err)
	}
}

func TestValidateWorkflowRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*workflow.Workflow)
		want   string
	}{
		{
			name:   "no tasks",
			mutate: func(w *workflow.Workflow) { w.Tasks = nil },
			want:   "no tasks",
		},
		{
			name:   "duplicate task ID",
			mutate: func(w *workflow.Workflow) { w.Tasks[1].ID = "A" },
			want:   "duplicate task ID",
		},
		{
			name:   "unknown agent",
			mutate: func(w *workflow.Workflow) { w.Tasks[0].AgentID = "ghost" },
			want:   "unknown agent",
		},
		{
			name:   "self dependency",
			mutate: func(w *workflow.Workflow) { w.Tasks[0].DependsOn = []string{"A"} },
			want:   "depends on itself",
		},
		{
			name:   "duplicate dependency",
			mutate: func(w *workflow.Workflow) { w.Tasks[1].DependsOn = []string{"A", "A"} },
			want:   "twice",
		},
		{
			name:   "dangling dependency",
			mutate: func(w *workflow.Workflow) { w.Tasks[1].DependsOn = []string{"ghost"} },
			want:   "non-existent task",
		},
		{
			name:   "cycle",
			mutate: func(w *workflow.Workflow) { w.Tasks[0].DependsOn = []string{"C"} },
			want:   "cycle",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := validWorkflow()
			tt.mutate(w)
			err := ValidateWorkflow(w)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing '%s', got '%v'", tt.want, err)
			}
		})
	}
}

func TestValidateWorkflowNil(t *testing.T) {
	if err := ValidateWorkflow(nil); err == nil {
		t.Error("expected error for nil workflow")
	}
}
