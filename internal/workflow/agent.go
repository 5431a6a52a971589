package workflow

// AgentRole classifies what kind of work an agent is meant for.
type AgentRole string

const (
	RoleResearcher AgentRole = "researcher"
	RoleAnalyst    AgentRole = "analyst"
	RoleExecutor   AgentRole = "executor"
	RoleReviewer   AgentRole = "reviewer"
	RoleCustom     AgentRole = "custom"
)

// Valid reports whether the role is one of the known values.
func (r AgentRole) Valid() bool {
	switch r {
	case RoleResearcher, RoleAnalyst, RoleExecutor, RoleReviewer, RoleCustom:
		return true
	}
	return false
}

// Agent describes an execution capability: which model it invokes and with
// what parameters. Agents are immutable inputs to a run; the scheduler never
// creates or edits them.
type Agent struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Role         AgentRole `json:"role"`
	Capabilities []string  `json:"capabilities,omitempty"`
	Model        string    `json:"model"`
	Temperature  float64   `json:"temperature,omitempty"`
	SystemPrompt string    `json:"system_prompt,omitempty"`
}
