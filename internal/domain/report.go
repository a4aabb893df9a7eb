package domain

import "time"

// ScenarioReport reúne os dados do ECT (evidência de cenário de teste):
// o cenário, seus passos em ordem e a execução mais recente, se houver.
type ScenarioReport struct {
	Scenario        TestScenario `json:"scenario"`
	Steps           []Step       `json:"steps"`
	LatestExecution *Execution   `json:"latest_execution"`
	GeneratedAt     time.Time    `json:"generated_at"`
}

// ReviewRequest é o payload de revisão de cenário.
type ReviewRequest struct {
	Status ScenarioStatus `json:"status"`
	Reason string         `json:"reason"`
}

// RejectRequest é o payload de reprovação de pacote.
type RejectRequest struct {
	Reason string `json:"reason"`
}

// StepStatusUpdate é o payload de mudança de status de passo.
type StepStatusUpdate struct {
	Status StepStatus `json:"status"`
}
