// Package catalog holds the lookup tables the reference workers read from.
// A Source answers case-insensitive key lookups against named tables; the
// in-memory and SQLite backends share the same table layout.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Table names one lookup table.
type Table string

const (
	TableMarket   Table = "market"
	TableTrade    Table = "trade"
	TablePatent   Table = "patent"
	TableClinical Table = "clinical"
	TableWeb      Table = "web"
	TableInternal Table = "internal"
)

// Tables lists every known table.
var Tables = []Table{TableMarket, TableTrade, TablePatent, TableClinical, TableWeb, TableInternal}

// Valid reports whether t is a known table.
func (t Table) Valid() bool {
	for _, known := range Tables {
		if t == known {
			return true
		}
	}
	return false
}

// ErrUnknownTable is returned when a table name is not one of Tables.
var ErrUnknownTable = errors.New("unknown catalog table")

// ParseTable converts a name into a Table.
func ParseTable(name string) (Table, error) {
	t := Table(strings.ToLower(strings.TrimSpace(name)))
	if !t.Valid() {
		return "", fmt.Errorf("parse table %q: %w", name, ErrUnknownTable)
	}
	return t, nil
}

// Record is one row of a lookup table.
type Record map[string]any

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Source looks up records by key. Keys compare case-insensitively.
// A miss is reported with ok=false and a nil error.
type Source interface {
	Lookup(ctx context.Context, table Table, key string) (rec Record, ok bool, err error)
}

// normalizeKey is the canonical form keys are stored and looked up under.
func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
