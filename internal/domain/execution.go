package domain

import "time"

// ExecutionStatus é o veredito de uma execução.
type ExecutionStatus string

const (
	ExecutionPassed ExecutionStatus = "PASSED"
	ExecutionFailed ExecutionStatus = "FAILED"
)

// Execution é um registro imutável (append-only) de uma execução de cenário.
type Execution struct {
	ID         string          `json:"id"`
	ScenarioID string          `json:"scenario_id"`
	Status     ExecutionStatus `json:"status"`
	Notes      string          `json:"notes"`
	ExecutedBy string          `json:"executed_by"`
	CreatedAt  time.Time       `json:"created_at"`
}

// BugStatus é o estado de um bug.
type BugStatus string

const (
	BugOpen       BugStatus = "OPEN"
	BugInProgress BugStatus = "IN_PROGRESS"
	BugResolved   BugStatus = "RESOLVED"
	BugClosed     BugStatus = "CLOSED"
)

// BugSeverity é a severidade de um bug.
type BugSeverity string

const (
	SeverityLow      BugSeverity = "LOW"
	SeverityMedium   BugSeverity = "MEDIUM"
	SeverityHigh     BugSeverity = "HIGH"
	SeverityCritical BugSeverity = "CRITICAL"
)

// Valid informa se a severidade pertence ao conjunto conhecido.
func (s BugSeverity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Bug é um defeito registrado contra um cenário, opcionalmente ligado a um passo.
type Bug struct {
	ID            string      `json:"id"`
	ScenarioID    string      `json:"scenario_id"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	Severity      BugSeverity `json:"severity"`
	Status        BugStatus   `json:"status"`
	RelatedStepID *string     `json:"related_step_id,omitempty"`
	ReportedBy    string      `json:"reported_by"`
	CreatedAt     time.Time   `json:"created_at"`
}

// NewExecution é o payload de registro de execução.
type NewExecution struct {
	Status ExecutionStatus `json:"status"`
	Notes  string          `json:"notes"`
}

// NewBug é o payload de registro de bug. Qualquer status pretendido para o cenário
// é ignorado: o guard decide.
type NewBug struct {
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	Severity      BugSeverity `json:"severity"`
	RelatedStepID *string     `json:"related_step_id,omitempty"`
}

// BugRecorded é o evento de domínio emitido quando um bug é gravado.
// O guard de cenário o consome para decidir o novo status do cenário.
type BugRecorded struct {
	BugID      string
	ScenarioID string
	Severity   BugSeverity
	RecordedBy string
	RecordedAt time.Time
}
