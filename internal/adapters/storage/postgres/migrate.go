package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrate aplica el schema. Todas las sentencias son idempotentes
// (IF NOT EXISTS), así que se puede correr en cada arranque.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts, err := statements()
	if err != nil {
		return err
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st.sql); err != nil {
			return fmt.Errorf("migration %s: %w", st.file, err)
		}
	}
	return nil
}

type statement struct {
	file string
	sql  string
}

// statements lee los .sql en orden de nombre y los parte por ";".
// El schema no tiene ";" dentro de strings, así que el split simple alcanza.
func statements() ([]statement, error) {
	names, err := fs.Glob(migrationFiles, "migrations/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	out := make([]statement, 0)
	for _, name := range names {
		b, err := migrationFiles.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		for _, part := range strings.Split(stripComments(string(b)), ";") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, statement{file: name, sql: s})
			}
		}
	}
	return out, nil
}

func stripComments(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), "--") {
			continue
		}
		kept = append(kept, l)
	}
	return strings.Join(kept, "\n")
}
