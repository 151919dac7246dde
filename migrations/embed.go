// Package migrations contiene el esquema SQL versionado; se embebe en los binarios.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
