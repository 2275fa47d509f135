// Package memory implements the workbook store in process memory.
//
// It is the reference backend: tests run against it, and the sqlite backend
// wraps it, persisting a snapshot after every mutation.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/JonMunkholm/provtab/internal/core"
)

// CommitHook is called after every successful mutation with the new state.
// An error from the hook is returned to the caller of the mutation; the
// in-memory change is kept.
type CommitHook func(ctx context.Context, snap Snapshot) error

// Option configures a Store.
type Option func(*Store)

// WithCommitHook registers a hook run after every mutation.
func WithCommitHook(h CommitHook) Option {
	return func(s *Store) { s.hook = h }
}

// Stats counts write calls, so callers can assert that a pass was a no-op.
type Stats struct {
	ValueWrites int `json:"valueWrites"`
	StyleWrites int `json:"styleWrites"`
	RowInserts  int `json:"rowInserts"`
	RuleWrites  int `json:"ruleWrites"`
}

// Store is an in-memory core.Store and core.Properties.
type Store struct {
	mu     sync.Mutex
	tables map[string]*table
	order  []string
	props  map[string]string
	stats  Stats
	hook   CommitHook
}

var (
	_ core.Store      = (*Store)(nil)
	_ core.Properties = (*Store)(nil)
)

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		tables: make(map[string]*table),
		props:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Table returns a handle to the named table.
func (s *Store) Table(_ context.Context, name string) (core.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tables[name]; !ok {
		return nil, fmt.Errorf("%s: %w", name, core.ErrTableNotFound)
	}
	return &handle{store: s, name: name}, nil
}

// CreateTable creates a table with the given header.
func (s *Store) CreateTable(ctx context.Context, name string, header []string) (core.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tables[name]; ok {
		return nil, fmt.Errorf("%s: %w", name, core.ErrTableExists)
	}
	s.tables[name] = &table{
		header: append([]string(nil), header...),
		rules:  make(map[int]core.ColumnRule),
	}
	s.order = append(s.order, name)

	if err := s.commit(ctx); err != nil {
		return nil, err
	}
	return &handle{store: s, name: name}, nil
}

// Tables lists table names in creation order.
func (s *Store) Tables(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...), nil
}

// DropTable removes a table.
func (s *Store) DropTable(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tables[name]; !ok {
		return fmt.Errorf("%s: %w", name, core.ErrTableNotFound)
	}
	delete(s.tables, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return s.commit(ctx)
}

// Get returns a property value.
func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.props[key]
	return v, ok, nil
}

// Set stores a property value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.props[key] = value
	return s.commit(ctx)
}

// DeleteAll removes every property.
func (s *Store) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.props = make(map[string]string)
	return s.commit(ctx)
}

// Stats returns the write counters.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Snapshot is the full store state.
type Snapshot struct {
	Tables     []TableSnapshot   `json:"tables"`
	Properties map[string]string `json:"properties"`
}

// TableSnapshot is the state of one table.
type TableSnapshot struct {
	Name        string                  `json:"name"`
	Header      []string                `json:"header"`
	HeaderStyle core.Style              `json:"headerStyle"`
	Rows        [][]string              `json:"rows"`
	Styles      [][]core.Style          `json:"styles,omitempty"`
	Rules       map[int]core.ColumnRule `json:"rules,omitempty"`
}

// Export returns a deep copy of the store state.
func (s *Store) Export() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Import replaces the store state without running the commit hook.
func (s *Store) Import(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tables = make(map[string]*table, len(snap.Tables))
	s.order = s.order[:0]
	for _, ts := range snap.Tables {
		t := &table{
			header:      append([]string(nil), ts.Header...),
			headerStyle: ts.HeaderStyle,
			rows:        copyGrid(ts.Rows),
			styles:      copyStyles(ts.Styles),
			rules:       make(map[int]core.ColumnRule, len(ts.Rules)),
		}
		for col, rule := range ts.Rules {
			t.rules[col] = rule
		}
		s.tables[ts.Name] = t
		s.order = append(s.order, ts.Name)
	}

	s.props = make(map[string]string, len(snap.Properties))
	for k, v := range snap.Properties {
		s.props[k] = v
	}
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Tables:     make([]TableSnapshot, 0, len(s.order)),
		Properties: make(map[string]string, len(s.props)),
	}
	for _, name := range s.order {
		t := s.tables[name]
		ts := TableSnapshot{
			Name:        name,
			Header:      append([]string(nil), t.header...),
			HeaderStyle: t.headerStyle,
			Rows:        copyGrid(t.rows),
			Styles:      copyStyles(t.styles),
		}
		if len(t.rules) > 0 {
			ts.Rules = make(map[int]core.ColumnRule, len(t.rules))
			for col, rule := range t.rules {
				ts.Rules[col] = rule
			}
		}
		snap.Tables = append(snap.Tables, ts)
	}
	for k, v := range s.props {
		snap.Properties[k] = v
	}
	return snap
}

// commit runs the hook. Callers hold s.mu.
func (s *Store) commit(ctx context.Context) error {
	if s.hook == nil {
		return nil
	}
	return s.hook(ctx, s.snapshotLocked())
}

// lookup returns the named table. Callers hold s.mu.
func (s *Store) lookup(name string) (*table, error) {
	t, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, core.ErrTableNotFound)
	}
	return t, nil
}

func copyGrid(g [][]string) [][]string {
	if g == nil {
		return nil
	}
	out := make([][]string, len(g))
	for i, row := range g {
		out[i] = append([]string(nil), row...)
	}
	return out
}

func copyStyles(g [][]core.Style) [][]core.Style {
	if g == nil {
		return nil
	}
	out := make([][]core.Style, len(g))
	for i, row := range g {
		out[i] = append([]core.Style(nil), row...)
	}
	return out
}
