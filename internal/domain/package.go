package domain

import (
	"regexp"
	"time"
)

// PackageStatus é o estado de um pacote de testes.
type PackageStatus string

const (
	PackageCreated   PackageStatus = "CREATED"
	PackageEmTeste   PackageStatus = "EM_TESTE"
	PackageAprovado  PackageStatus = "APROVADO"
	PackageReprovado PackageStatus = "REPROVADO"
	PackageConcluido PackageStatus = "CONCLUIDO"
)

// TestPackage agrupa cenários de um projeto para uma release.
// Version é usada no controle de concorrência otimista das transições.
type TestPackage struct {
	ID              string         `json:"id"`
	ProjectID       string         `json:"project_id"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Status          PackageStatus  `json:"status"`
	Release         string         `json:"release"`
	ApprovedByID    *string        `json:"approved_by_id,omitempty"`
	ApprovedAt      *time.Time     `json:"approved_at,omitempty"`
	RejectionReason *string        `json:"rejection_reason,omitempty"`
	Version         int            `json:"version"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	Steps           []Step         `json:"steps"`
	Scenarios       []TestScenario `json:"scenarios"`
}

// NewPackage é o payload de criação de pacote.
type NewPackage struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Release     string `json:"release"`
}

var releasePattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ValidRelease verifica o formato YYYY-MM com mês entre 01 e 12.
func ValidRelease(release string) bool {
	return releasePattern.MatchString(release)
}
