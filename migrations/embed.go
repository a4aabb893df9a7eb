// Package migrations embute os arquivos SQL do goose.
package migrations

import "embed"

// FS contém todas as migrações *.sql deste diretório.
//
//go:embed *.sql
var FS embed.FS
