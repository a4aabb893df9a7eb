package domain

import "time"

// ScenarioStatus é o estado de um cenário de teste.
type ScenarioStatus string

const (
	ScenarioCreated  ScenarioStatus = "CREATED"
	ScenarioExecuted ScenarioStatus = "EXECUTED"
	ScenarioPassed   ScenarioStatus = "PASSED"
	ScenarioFailed   ScenarioStatus = "FAILED"
	ScenarioApproved ScenarioStatus = "APPROVED"
	ScenarioRejected ScenarioStatus = "REJECTED"
	ScenarioBlocked  ScenarioStatus = "BLOCKED"
)

// Valid informa se o status pertence ao conjunto conhecido.
func (s ScenarioStatus) Valid() bool {
	switch s {
	case ScenarioCreated, ScenarioExecuted, ScenarioPassed, ScenarioFailed,
		ScenarioApproved, ScenarioRejected, ScenarioBlocked:
		return true
	}
	return false
}

// StepStatus é o estado de um passo.
type StepStatus string

const (
	StepPending StepStatus = "PENDING"
	StepPassed  StepStatus = "PASSED"
	StepFailed  StepStatus = "FAILED"
	StepBlocked StepStatus = "BLOCKED"
)

// Valid informa se o status pertence ao conjunto conhecido.
func (s StepStatus) Valid() bool {
	switch s {
	case StepPending, StepPassed, StepFailed, StepBlocked:
		return true
	}
	return false
}

// TestScenario é um caso de teste com passos ordenados, pertencente a um pacote.
// ProjectID é denormalizado e deve sempre ser igual ao ProjectID do pacote pai.
type TestScenario struct {
	ID              string         `json:"id"`
	PackageID       string         `json:"package_id"`
	ProjectID       string         `json:"project_id"`
	Title           string         `json:"title"`
	Status          ScenarioStatus `json:"status"`
	Type            string         `json:"type"`
	Priority        string         `json:"priority"`
	Environment     *string        `json:"environment,omitempty"`
	Tags            []string       `json:"tags"`
	RejectionReason *string        `json:"rejection_reason,omitempty"`
	Version         int            `json:"version"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	Steps           []Step         `json:"steps"`
}

// Step é um passo de cenário ou de pacote. StepOrder é único por pai.
type Step struct {
	ID        string     `json:"id"`
	ParentID  string     `json:"parent_id"`
	Action    string     `json:"action"`
	Expected  string     `json:"expected"`
	StepOrder int        `json:"step_order"`
	Status    StepStatus `json:"status"`
}

// NewScenario é o payload de criação de cenário.
type NewScenario struct {
	Title       string   `json:"title"`
	Type        string   `json:"type"`
	Priority    string   `json:"priority"`
	Environment *string  `json:"environment,omitempty"`
	Tags        []string `json:"tags"`
}

// NewStep é o payload de criação de passo.
type NewStep struct {
	Action   string `json:"action"`
	Expected string `json:"expected"`
}
