package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"gotestcase/internal/domain"
	"gotestcase/internal/lifecycle"
)

// PolicyFile é o formato YAML do arquivo de permissões:
//
//	permissions:
//	  scenario.review: [OWNER, MANAGER, APPROVER]
//	  package.approve: [OWNER, MANAGER]
//
// Ações ausentes mantêm o padrão de lifecycle.DefaultPolicy. Aprovação,
// reprovação e revisão só podem ser restringidas, nunca ampliadas.
type PolicyFile struct {
	Permissions map[string][]string `yaml:"permissions"`
}

// LoadPolicy devolve a política padrão sobreposta pelo arquivo em path.
// path vazio devolve apenas o padrão.
func LoadPolicy(path string) (lifecycle.Policy, error) {
	base := lifecycle.DefaultPolicy()
	if path == "" {
		return base, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("falha ao ler arquivo de política %s: %w", path, err)
	}
	return parsePolicy(base, data)
}

func parsePolicy(base lifecycle.Policy, data []byte) (lifecycle.Policy, error) {
	var file PolicyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("arquivo de política inválido: %w", err)
	}

	override := make(lifecycle.Policy, len(file.Permissions))
	for action, roles := range file.Permissions {
		if _, known := base[lifecycle.Action(action)]; !known {
			return nil, fmt.Errorf("ação desconhecida na política: %q", action)
		}
		parsed := make([]domain.Role, 0, len(roles))
		for _, r := range roles {
			role := domain.Role(r)
			if !role.Valid() {
				return nil, fmt.Errorf("papel desconhecido %q na ação %q", r, action)
			}
			parsed = append(parsed, role)
		}
		if err := lifecycle.CheckOverride(lifecycle.Action(action), parsed); err != nil {
			return nil, err
		}
		override[lifecycle.Action(action)] = parsed
	}
	return base.Merge(override), nil
}
