package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Memory is an in-memory Source. The whole content can be swapped
// atomically with Replace, which is how the Watcher reloads fixtures.
type Memory struct {
	mu     sync.RWMutex
	tables map[Table]map[string]Record
}

// NewMemory creates an empty Memory.
func NewMemory() *Memory {
	return &Memory{tables: make(map[Table]map[string]Record)}
}

// Put stores rec under key in table, replacing any earlier record.
func (m *Memory) Put(table Table, key string, rec Record) error {
	if !table.Valid() {
		return fmt.Errorf("put %s/%s: %w", table, key, ErrUnknownTable)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rows, ok := m.tables[table]
	if !ok {
		rows = make(map[string]Record)
		m.tables[table] = rows
	}
	rows[normalizeKey(key)] = rec.Clone()
	return nil
}

// Lookup implements Source.
func (m *Memory) Lookup(_ context.Context, table Table, key string) (Record, bool, error) {
	if !table.Valid() {
		return nil, false, fmt.Errorf("lookup %s: %w", table, ErrUnknownTable)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.tables[table][normalizeKey(key)]
	if !ok {
		return nil, false, nil
	}
	return rec.Clone(), true, nil
}

// Keys returns the sorted keys of table.
func (m *Memory) Keys(table Table) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.tables[table]))
	for k := range m.tables[table] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of records across all tables.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, rows := range m.tables {
		n += len(rows)
	}
	return n
}

// Replace swaps m's content for other's.
func (m *Memory) Replace(other *Memory) {
	other.mu.RLock()
	next := make(map[Table]map[string]Record, len(other.tables))
	for t, rows := range other.tables {
		cp := make(map[string]Record, len(rows))
		for k, v := range rows {
			cp[k] = v
		}
		next[t] = cp
	}
	other.mu.RUnlock()

	m.mu.Lock()
	m.tables = next
	m.mu.Unlock()
}

// each calls fn for every record in table order then key order.
func (m *Memory) each(fn func(Table, string, Record) error) error {
	for _, t := range Tables {
		for _, k := range m.Keys(t) {
			m.mu.RLock()
			rec := m.tables[t][k]
			m.mu.RUnlock()
			if err := fn(t, k, rec); err != nil {
				return err
			}
		}
	}
	return nil
}
