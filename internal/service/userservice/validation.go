package userservice

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	apperror "gotestcase/internal/errors"
)

const (
	minNameLength     = 2
	minPasswordLength = 8
)

var (
	// Apenas letras, marcas (diacríticos) e espaços. Hífen e apóstrofo não passam.
	namePattern  = regexp.MustCompile(`^[\p{L}\p{M} ]+$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// sanitizeText normaliza para NFC, remove caracteres de controle e colapsa
// espaços em branco consecutivos.
func sanitizeText(s string) string {
	s = norm.NFC.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

func normalizeName(raw string) (string, error) {
	name := sanitizeText(raw)
	if utf8.RuneCountInString(name) < minNameLength {
		return "", apperror.NewValidationError("O nome deve ter pelo menos 2 caracteres.")
	}
	if !namePattern.MatchString(name) {
		return "", apperror.NewValidationError("O nome deve conter apenas letras e espaços.")
	}
	return name, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if !emailPattern.MatchString(email) {
		return "", apperror.NewValidationError("E-mail inválido.")
	}
	return email, nil
}

// validatePassword mede a senha crua, antes de qualquer trim ou hash.
func validatePassword(raw string) error {
	if utf8.RuneCountInString(raw) < minPasswordLength {
		return apperror.NewValidationError("A senha deve ter pelo menos 8 caracteres.")
	}
	// Limite do bcrypt.
	if len(raw) > 72 {
		return apperror.NewValidationError("A senha deve ter no máximo 72 bytes.")
	}
	return nil
}

// missingComplexity lista as classes de caractere ausentes na senha.
func missingComplexity(raw string) []string {
	var upper, lower, digit, symbol bool
	for _, r := range raw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	var missing []string
	if !upper {
		missing = append(missing, "maiúscula")
	}
	if !lower {
		missing = append(missing, "minúscula")
	}
	if !digit {
		missing = append(missing, "dígito")
	}
	if !symbol {
		missing = append(missing, "símbolo")
	}
	return missing
}
