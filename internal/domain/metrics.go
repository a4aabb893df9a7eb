package domain

// PackageSnapshot é o retrato em memória usado pelo agregador de métricas:
// o pacote, seus passos próprios e seus cenários (cada um com seus passos).
type PackageSnapshot struct {
	Package   TestPackage
	Steps     []Step
	Scenarios []TestScenario
}

// SnapshotOf monta o snapshot a partir de um pacote carregado com cenários e passos.
func SnapshotOf(pkg TestPackage) PackageSnapshot {
	return PackageSnapshot{Package: pkg, Steps: pkg.Steps, Scenarios: pkg.Scenarios}
}

// PackageMetrics é o payload de métricas devolvido ao controller.
// O formato é mantido por compatibilidade.
type PackageMetrics struct {
	Package   PackageInfo     `json:"package"`
	Scenarios ScenarioMetrics `json:"scenarios"`
	Summary   MetricsSummary  `json:"summary"`
}

// PackageInfo resume o pacote; Steps é a contagem de passos do próprio pacote.
type PackageInfo struct {
	ID      string        `json:"id"`
	Title   string        `json:"title"`
	Status  PackageStatus `json:"status"`
	Steps   int           `json:"steps"`
	Release string        `json:"release"`
}

// StatusBreakdown sempre reporta as quatro categorias, mesmo zeradas.
type StatusBreakdown struct {
	Created  int `json:"created"`
	Executed int `json:"executed"`
	Passed   int `json:"passed"`
	Failed   int `json:"failed"`
}

// ScenarioMetrics traz as taxas arredondadas em 2 casas.
type ScenarioMetrics struct {
	Total         int             `json:"total"`
	TotalSteps    int             `json:"totalSteps"`
	ByStatus      StatusBreakdown `json:"byStatus"`
	ByType        map[string]int  `json:"byType"`
	ByPriority    map[string]int  `json:"byPriority"`
	ByEnvironment map[string]int  `json:"byEnvironment"`
	ExecutionRate float64         `json:"executionRate"`
	SuccessRate   float64         `json:"successRate"`
}

// MetricsSummary traz as taxas sem arredondamento.
type MetricsSummary struct {
	TotalSteps    int     `json:"totalSteps"`
	ExecutionRate float64 `json:"executionRate"`
	SuccessRate   float64 `json:"successRate"`
}
