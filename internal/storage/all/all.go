// Package all registers every storage backend. Import for side effects
// from the binary entrypoint.
package all

import (
	_ "docdbtab/internal/storage/mssql"
	_ "docdbtab/internal/storage/postgres"
	_ "docdbtab/internal/storage/sqlite"
)
