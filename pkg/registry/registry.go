// Package registry holds the set of constructed rules and answers the
// producer query the external DAG builder drives its scheduling from.
package registry

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"

	"wildrule/pkg/engine"
	"wildrule/pkg/rule"
)

// Registry is a read-only-once-populated set of rules, keyed by name.
type Registry struct {
	byName map[string]*rule.Rule
	order  []*rule.Rule // preserves Add order for deterministic All/Producers
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{byName: make(map[string]*rule.Rule)}
}

// Add registers r under its name. It fails with rule.ErrDuplicateName if
// the name is already taken.
func (reg *Registry) Add(r *rule.Rule) error {
	if _, exists := reg.byName[r.Name()]; exists {
		return &rule.ConstructionError{Rule: r.Name(), Location: r.Location(), Kind: rule.ErrDuplicateName}
	}
	reg.byName[r.Name()] = r
	reg.order = append(reg.order, r)
	return nil
}

// Get returns the rule named name, or (nil, false) if none exists.
func (reg *Registry) Get(name string) (*rule.Rule, bool) {
	r, ok := reg.byName[name]
	return r, ok
}

// All returns every registered rule in declaration order.
func (reg *Registry) All() []*rule.Rule {
	out := make([]*rule.Rule, len(reg.order))
	copy(out, reg.order)
	return out
}

// Producers returns every rule for which engine.IsProducer(r, path) holds,
// in declaration order. A cheap doublestar glob-skeleton check gates the
// authoritative regex match so a registry with many rules doesn't run a
// full regex match against every output of every rule for every query.
func (reg *Registry) Producers(path string) []*rule.Rule {
	var out []*rule.Rule
	for _, r := range reg.order {
		if producesVia(r, path) {
			out = append(out, r)
		}
	}
	return out
}

func producesVia(r *rule.Rule, path string) bool {
	for _, pf := range r.Outputs().Iter() {
		ok, err := doublestar.Match(pf.GlobSkeleton(), path)
		if err != nil {
			// A malformed skeleton can't happen for a pattern that compiled
			// successfully; fall back to the authoritative regex directly.
			ok = true
		}
		if !ok {
			continue
		}
		if _, matched := pf.Match(path); matched {
			return true
		}
	}
	return false
}

// IsProducer re-exports engine.IsProducer so callers that already hold a
// *rule.Rule (e.g. from All()) don't need to import pkg/engine directly.
func IsProducer(r *rule.Rule, path string) bool { return engine.IsProducer(r, path) }

// String mirrors the teacher's debug-friendly registry summaries.
func (reg *Registry) String() string {
	return fmt.Sprintf("registry(%d rules)", len(reg.order))
}
