package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// User representa a entidade do usuário no sistema.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Oculta o hash da senha no JSON de resposta
	Avatar       *string   `json:"avatar"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserRegistration representa o payload de entrada para o registro.
type UserRegistration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Field é um campo opcional de atualização parcial que distingue
// "não informado" (Set == false) de "explicitamente nulo" (Null == true).
type Field[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Value cria um Field presente com valor.
func Value[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

// Null cria um Field presente e nulo.
func Null[T any]() Field[T] {
	return Field[T]{Set: true, Null: true}
}

// UnmarshalJSON só é chamado quando a chave existe no payload.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Null = true
		var zero T
		f.Value = zero
		return nil
	}
	f.Null = false
	return json.Unmarshal(data, &f.Value)
}

// UserUpdate é o payload de atualização parcial de usuário.
type UserUpdate struct {
	Name     Field[string] `json:"name"`
	Email    Field[string] `json:"email"`
	Password Field[string] `json:"password"`
	Avatar   Field[string] `json:"avatar"`
}
