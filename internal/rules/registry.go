// Package rules classifies sheet cells into column descriptors.
//
// Each classification family (concept, material, workflow) owns an
// independent Registry mapping context keys to descriptors. A context key is
// built from a column name and the value of the row's discriminant column,
// joined by a single space in that order. Lookups are exact string matches;
// an unregistered key yields the family's "none" descriptor.
//
// Because a typo in a key silently degrades to "none", every family also
// declares its closed set of cases, and tests require each case to be
// registered (see Registry.Missing).
package rules

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/JonMunkholm/provtab/internal/core"
	"github.com/JonMunkholm/provtab/internal/lists"
)

// ContextKey is the composite lookup key into a Registry.
type ContextKey string

// DefaultKey is the key of the fallback descriptor.
const DefaultKey ContextKey = "none"

// NewContextKey joins the non-empty parts with a single space.
// Part order matters: keys are compared as strings.
func NewContextKey(parts ...string) ContextKey {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return ContextKey(strings.Join(kept, " "))
}

// Case is one (column, subcase) pair. An empty Subcase is the column-level
// case used when configuring the whole column.
type Case struct {
	Column  string
	Subcase string
}

// Key returns the context key for the case.
func (c Case) Key() ContextKey {
	return NewContextKey(c.Column, c.Subcase)
}

func (c Case) String() string {
	return string(c.Key())
}

// Visibility controls whether a cell is shown as editable for a row.
type Visibility int

const (
	Visible Visibility = iota
	Hidden
)

// Descriptor is the derived validation and presentation rule for a cell.
type Descriptor struct {
	Kind         core.FieldType
	Allowed      []string      // fixed values for enum columns
	Source       *lists.Source // values drawn from another table at configuration time
	Min          *float64
	Max          *float64
	HelpText     string
	OntologyTerm string
	Visibility   Visibility
}

// Hidden reports whether the cell should be greyed out.
func (d Descriptor) Hidden() bool {
	return d.Visibility == Hidden
}

// Rule projects the descriptor into a storable column rule. allowed is the
// list built from d.Source and is ignored when the descriptor has no source.
func (d Descriptor) Rule(allowed []string) core.ColumnRule {
	rule := core.ColumnRule{
		Type:         d.Kind,
		Allowed:      d.Allowed,
		Min:          d.Min,
		Max:          d.Max,
		HelpText:     d.HelpText,
		OntologyTerm: d.OntologyTerm,
	}
	if d.Source != nil {
		rule.Allowed = allowed
	}
	return rule
}

// Registry maps context keys to descriptors for one family.
type Registry struct {
	family core.Family

	mu          sync.RWMutex
	descriptors map[ContextKey]Descriptor
}

// NewRegistry creates a registry whose fallback is def.
func NewRegistry(family core.Family, def Descriptor) *Registry {
	return &Registry{
		family:      family,
		descriptors: map[ContextKey]Descriptor{DefaultKey: def},
	}
}

// Family returns the family the registry classifies.
func (r *Registry) Family() core.Family { return r.family }

// Register adds the descriptor for a case.
// Panics if the case is already registered or collides with DefaultKey.
func (r *Registry) Register(c Case, d Descriptor) {
	key := c.Key()
	if key == "" {
		panic(fmt.Sprintf("%s rules: empty case", r.family))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.descriptors[key]; exists {
		panic(fmt.Sprintf("%s rules: case already registered: %q", r.family, key))
	}
	r.descriptors[key] = d
}

// on registers d for column under each subcase; no subcases means the
// column-level case only.
func (r *Registry) on(column string, d Descriptor, subcases ...string) {
	if len(subcases) == 0 {
		subcases = []string{""}
	}
	for _, s := range subcases {
		r.Register(Case{Column: column, Subcase: s}, d)
	}
}

// Classify returns the descriptor registered for key, or the default.
func (r *Registry) Classify(key ContextKey) Descriptor {
	if d, ok := r.Lookup(key); ok {
		return d
	}
	return r.Default()
}

// Lookup returns the descriptor for key and whether it was registered.
func (r *Registry) Lookup(key ContextKey) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descriptors[key]
	return d, ok
}

// Default returns the "none" descriptor.
func (r *Registry) Default() Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.descriptors[DefaultKey]
}

// Missing returns the cases that have no registered descriptor.
func (r *Registry) Missing(cases []Case) []Case {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var missing []Case
	for _, c := range cases {
		if _, ok := r.descriptors[c.Key()]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}

// Keys returns every registered key in sorted order, DefaultKey included.
func (r *Registry) Keys() []ContextKey {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]ContextKey, 0, len(r.descriptors))
	for k := range r.descriptors {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
