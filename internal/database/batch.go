package database

import (
	"context"
	"fmt"
	"strings"
)

// AtomicBatch accumulates statements and executes them as a single
// BEGIN TRANSACTION / COMMIT TRANSACTION block. Variables are namespaced
// per statement ($price -> $s1_price) so statements built independently
// cannot collide.
type AtomicBatch struct {
	statements []string
	vars       map[string]interface{}
}

// NewAtomicBatch creates a new atomic batch
func NewAtomicBatch() *AtomicBatch {
	return &AtomicBatch{
		vars: make(map[string]interface{}),
	}
}

// Add adds a statement to the batch, namespacing its variables
func (b *AtomicBatch) Add(query string, vars map[string]interface{}) *AtomicBatch {
	n := len(b.statements) + 1
	for name, value := range vars {
		namespaced := fmt.Sprintf("s%d_%s", n, name)
		query = strings.ReplaceAll(query, "$"+name, "$"+namespaced)
		b.vars[namespaced] = value
	}
	b.statements = append(b.statements, query)
	return b
}

// Execute runs all statements atomically. All succeed or none apply.
func (b *AtomicBatch) Execute(ctx context.Context, db Database) error {
	if len(b.statements) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("BEGIN TRANSACTION;\n")
	for _, stmt := range b.statements {
		sb.WriteString(stmt)
		if !strings.HasSuffix(strings.TrimSpace(stmt), ";") {
			sb.WriteString(";")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("COMMIT TRANSACTION;")

	return db.Execute(ctx, sb.String(), b.vars)
}
