// Package patterns is component B: the immutable Pattern Registry.
// Grounded on internal/detectors/*.go of the teacher — one file per
// provider, each exposing a compiled regex plus an optional context
// regex — generalized per spec.md §9's design note from "detector
// functions" into serializable, data-only types.Pattern records so the
// registry itself stays inspectable and testable without invoking regex
// matching.
package patterns

import (
	"fmt"
	"regexp"
	"sort"
	"sync"

	"github.com/vibecheck/vibecheck/internal/types"
)

// Compiled pairs an immutable types.Pattern with its compiled regex.
type Compiled struct {
	types.Pattern
	Regex *regexp.Regexp
}

// Registry is an append-only catalog of Compiled patterns. Registration
// happens once at startup (Default, or Register calls before the first
// scan); scanning itself never mutates it.
type Registry struct {
	mu         sync.RWMutex
	byID       map[string]Compiled
	byCategory map[types.Category][]Compiled
	order      []string // registration order, for deterministic All()
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:       make(map[string]Compiled),
		byCategory: make(map[types.Category][]Compiled),
	}
}

// Register compiles p.RegexSource and adds it to the catalog. Returns an
// error on a malformed regex or a duplicate ID — both are startup-time
// programmer errors, never scan-time conditions.
func (r *Registry) Register(p types.Pattern) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[p.ID]; exists {
		return fmt.Errorf("patterns: duplicate pattern id %q", p.ID)
	}
	re, err := regexp.Compile(p.RegexSource)
	if err != nil {
		return fmt.Errorf("patterns: pattern %q: %w", p.ID, err)
	}
	c := Compiled{Pattern: p, Regex: re}
	r.byID[p.ID] = c
	r.byCategory[p.Category] = append(r.byCategory[p.Category], c)
	r.order = append(r.order, p.ID)
	return nil
}

// MustRegister panics on registration error — used only while building
// the built-in Default() catalog, where a failure means a typo in a
// literal regex, not a runtime condition to recover from.
func (r *Registry) MustRegister(p types.Pattern) {
	if err := r.Register(p); err != nil {
		panic(err)
	}
}

// Get looks up a single pattern by ID.
func (r *Registry) Get(id string) (Compiled, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	return c, ok
}

// ByCategory returns every pattern registered under category, in
// registration order.
func (r *Registry) ByCategory(category types.Category) []Compiled {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Compiled, len(r.byCategory[category]))
	copy(out, r.byCategory[category])
	return out
}

// All returns every registered pattern in registration order.
func (r *Registry) All() []Compiled {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Compiled, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// IDs returns every registered pattern ID, sorted, for doc generation
// and test assertions about catalog completeness.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byID))
	for id := range r.byID {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Len reports the number of registered patterns.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
