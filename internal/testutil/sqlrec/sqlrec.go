// Package sqlrec provides a pgx.Tx that records the SQL it is given and
// answers every read with no rows.
package sqlrec

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
)

// ErrNoQuery is returned from Query so callers stop before touching rows
var ErrNoQuery = errors.New("sqlrec: query recorded")

// Tx only implements Query and QueryRow. Any other method panics on the nil embed.
type Tx struct {
	pgx.Tx

	mu      sync.Mutex
	queries []string
}

func (t *Tx) record(sql string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.queries = append(t.queries, sql)
}

func (t *Tx) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	t.record(sql)
	return nil, ErrNoQuery
}

func (t *Tx) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	t.record(sql)
	return noRow{}
}

// Queries returns the recorded statements in call order
func (t *Tx) Queries() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.queries...)
}

type noRow struct{}

func (noRow) Scan(...any) error { return pgx.ErrNoRows }
