// Package metrics calcula as estatísticas de um pacote de testes a partir de um
// snapshot em memória. Não faz I/O.
package metrics

import (
	"math"

	"gotestcase/internal/domain"
)

// EnvironmentPlaceholder é a chave usada em byEnvironment quando o cenário não
// informa ambiente.
const EnvironmentPlaceholder = "N/A"

// Aggregate calcula o payload de métricas do pacote.
func Aggregate(snap domain.PackageSnapshot) domain.PackageMetrics {
	packageSteps := len(snap.Steps)
	total := len(snap.Scenarios)

	scenarioSteps := 0
	for _, sc := range snap.Scenarios {
		scenarioSteps += len(sc.Steps)
	}

	byStatus := StatusFrequencies(snap.Scenarios)
	breakdown := domain.StatusBreakdown{
		Created:  byStatus[string(domain.ScenarioCreated)],
		Executed: byStatus[string(domain.ScenarioExecuted)],
		Passed:   byStatus[string(domain.ScenarioPassed)],
		Failed:   byStatus[string(domain.ScenarioFailed)],
	}

	executionRate := ExecutionRate(byStatus, total)
	successRate := SuccessRate(byStatus)

	return domain.PackageMetrics{
		Package: domain.PackageInfo{
			ID:      snap.Package.ID,
			Title:   snap.Package.Title,
			Status:  snap.Package.Status,
			Steps:   packageSteps,
			Release: snap.Package.Release,
		},
		Scenarios: domain.ScenarioMetrics{
			Total:         total,
			TotalSteps:    scenarioSteps,
			ByStatus:      breakdown,
			ByType:        frequencies(snap.Scenarios, func(sc domain.TestScenario) string { return sc.Type }),
			ByPriority:    frequencies(snap.Scenarios, func(sc domain.TestScenario) string { return sc.Priority }),
			ByEnvironment: frequencies(snap.Scenarios, environmentKey),
			ExecutionRate: Round2(executionRate),
			SuccessRate:   Round2(successRate),
		},
		Summary: domain.MetricsSummary{
			TotalSteps:    packageSteps + scenarioSteps,
			ExecutionRate: executionRate,
			SuccessRate:   successRate,
		},
	}
}

// StatusFrequencies conta cenários por valor literal do status.
// Status ausentes não aparecem no mapa.
func StatusFrequencies(scenarios []domain.TestScenario) map[string]int {
	return frequencies(scenarios, func(sc domain.TestScenario) string { return string(sc.Status) })
}

// ExecutionRate = (executed+passed+failed)/total*100, ou 0 sem cenários.
func ExecutionRate(byStatus map[string]int, total int) float64 {
	if total == 0 {
		return 0
	}
	executed := executedCount(byStatus)
	return float64(executed) / float64(total) * 100
}

// SuccessRate = (passed+approved)/(executed+passed+failed)*100, ou 0 sem execuções.
func SuccessRate(byStatus map[string]int) float64 {
	executed := executedCount(byStatus)
	if executed == 0 {
		return 0
	}
	succeeded := byStatus[string(domain.ScenarioPassed)] + byStatus[string(domain.ScenarioApproved)]
	return float64(succeeded) / float64(executed) * 100
}

// Round2 arredonda para 2 casas, metade para cima (66.666... vira 66.67).
func Round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

func executedCount(byStatus map[string]int) int {
	return byStatus[string(domain.ScenarioExecuted)] +
		byStatus[string(domain.ScenarioPassed)] +
		byStatus[string(domain.ScenarioFailed)]
}

func environmentKey(sc domain.TestScenario) string {
	if sc.Environment == nil || *sc.Environment == "" {
		return EnvironmentPlaceholder
	}
	return *sc.Environment
}

func frequencies(scenarios []domain.TestScenario, key func(domain.TestScenario) string) map[string]int {
	out := make(map[string]int)
	for _, sc := range scenarios {
		out[key(sc)]++
	}
	return out
}

// CacheKey é a chave do payload de métricas de um pacote no cache. O projeto
// faz parte da chave para que um pacote nunca seja servido fora dele.
// Qualquer transição de pacote ou cenário deve invalidá-la.
func CacheKey(projectID, packageID string) string {
	return "metrics:project:" + projectID + ":package:" + packageID
}
