// Package engine implements the wildcard resolution engine: producer
// testing, binding extraction with specificity tie-breaking, expansion of
// a rule into concrete inputs/outputs/params/log, and the dynamic-branch
// mechanism. Every exported function here is pure with respect to rule
// state: none of them mutate the Rule passed in.
package engine

import (
	"fmt"
	"sort"

	"wildrule/pkg/namedlist"
	"wildrule/pkg/pattern"
	"wildrule/pkg/rule"
)

// IsProducer reports whether some output of r fully matches path.
func IsProducer(r *rule.Rule, path string) bool {
	for _, pf := range r.Outputs().Iter() {
		if _, ok := pf.Match(path); ok {
			return true
		}
	}
	return false
}

// WildcardsOf returns the binding implied by path against r's outputs: the
// binding with the smallest aggregate captured length among matching
// outputs, ties going to the earlier declaration (§4.4.2).
func WildcardsOf(r *rule.Rule, path string) (pattern.Binding, bool) {
	var best pattern.Binding
	bestLen := -1
	for _, pf := range r.Outputs().Iter() {
		b, ok := pf.Match(path)
		if !ok {
			continue
		}
		l := aggregateLen(b)
		if bestLen == -1 || l < bestLen {
			best = b
			bestLen = l
		}
	}
	if best == nil {
		return nil, false
	}
	return best, true
}

func aggregateLen(b pattern.Binding) int {
	n := 0
	for _, v := range b {
		n += len(v)
	}
	return n
}

// Expansion is the concretized result of Expand: rendered outputs, inputs,
// params, and log, plus a provenance map from each concrete input back to
// the PatternFile (or nil, for a computed item) it came from.
type Expansion struct {
	Outputs       []string
	OutputNames   map[string]namedlist.Range
	Inputs        []string
	InputNames    map[string]namedlist.Range
	InputOrigin   []*pattern.PatternFile // parallel to Inputs; nil for computed items
	Params        []any
	ParamNames    map[string]namedlist.Range
	Log           string
	HasLog        bool
	Binding       pattern.Binding
}

// Expand renders r's outputs, inputs, params, and log under binding,
// following §4.4.3's six-step algorithm.
func Expand(r *rule.Rule, binding pattern.Binding) (*Expansion, error) {
	for name := range r.WildcardNames() {
		if _, ok := binding[name]; !ok {
			return nil, wrap(r, &pattern.UnresolvedWildcardError{Name: name})
		}
	}

	exp := &Expansion{Binding: binding}

	outs := r.Outputs()
	for _, pf := range outs.Iter() {
		s, err := pf.Render(binding, pattern.RenderOptions{Strict: true})
		if err != nil {
			return nil, wrap(r, err)
		}
		exp.Outputs = append(exp.Outputs, s)
	}
	exp.OutputNames = outs.Names()

	dynOut := r.DynamicOutputSet()
	ins := r.Inputs()
	var renderedInputs []string
	var origins []*pattern.PatternFile
	itemCounts := make([]int, 0, ins.Len())
	for _, it := range ins.Iter() {
		if it.IsComputed() {
			result, err := it.Fn(rule.NewWildcards(binding))
			if err != nil {
				return nil, wrap(r, fmt.Errorf("%w: %v", ErrBadInputFunction, err))
			}
			strs, err := toStringSlice(result)
			if err != nil {
				return nil, wrap(r, err)
			}
			for _, s := range strs {
				renderedInputs = append(renderedInputs, s)
				origins = append(origins, nil)
			}
			itemCounts = append(itemCounts, len(strs))
			continue
		}
		pf := it.Template
		fillMissing := r.IsDynamicInput(pf)
		s, err := pf.Render(binding, pattern.RenderOptions{
			FillMissing: fillMissing,
			FailDynamic: dynOut,
			Strict:      !fillMissing,
		})
		if err != nil {
			return nil, wrap(r, err)
		}
		renderedInputs = append(renderedInputs, s)
		origins = append(origins, pf)
		itemCounts = append(itemCounts, 1)
	}
	exp.Inputs = renderedInputs
	exp.InputOrigin = origins
	exp.InputNames = recomputeNames(ins.Groups(), itemCounts)

	params := r.Params()
	var renderedParams []any
	for _, it := range params.Iter() {
		if it.IsComputed() {
			v, err := it.Fn(rule.NewWildcards(binding))
			if err != nil {
				return nil, wrap(r, fmt.Errorf("%w: %v", ErrBadInputFunction, err))
			}
			renderedParams = append(renderedParams, v)
			continue
		}
		s, err := it.Template.Render(binding, pattern.RenderOptions{Strict: true})
		if err != nil {
			return nil, wrap(r, err)
		}
		renderedParams = append(renderedParams, s)
	}
	exp.Params = renderedParams
	exp.ParamNames = params.Names()

	if logTemplate, ok := r.Log(); ok {
		s, err := logTemplate.Render(binding, pattern.RenderOptions{Strict: true})
		if err != nil {
			return nil, wrap(r, err)
		}
		exp.Log = s
		exp.HasLog = true
	}

	return exp, nil
}

// recomputeNames replays the original declaration-order grouping (named
// ranges and singleton groups, from List.Groups) against itemCounts — the
// number of rendered strings each original item produced — so a single
// computed item that fanned out into several strings still gets its named
// range widened to cover all of them (§4.4.3 step 3).
func recomputeNames(groups []namedlist.Group, itemCounts []int) map[string]namedlist.Range {
	prefix := make([]int, len(itemCounts)+1)
	for i, c := range itemCounts {
		prefix[i+1] = prefix[i] + c
	}

	out := make(map[string]namedlist.Range, len(groups))
	for _, g := range groups {
		if g.Name == "" {
			continue
		}
		out[g.Name] = namedlist.Range{Start: prefix[g.Start], End: prefix[g.End]}
	}
	return out
}

func toStringSlice(v any) ([]string, error) {
	switch x := v.(type) {
	case string:
		return []string{x}, nil
	case []string:
		return x, nil
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: element %T is not a string", ErrBadInputFunction, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: got %T, want string or []string", ErrBadInputFunction, v)
	}
}

func wrap(r *rule.Rule, err error) error {
	return &ExpandError{Rule: r.Name(), Location: r.Location().String(), Kind: err}
}

// Side selects which half of a rule a dynamic branch operates over.
type Side int

const (
	SideInput Side = iota
	SideOutput
)

// WildcardLists maps a wildcard name to its ordered list of discovered
// values; all lists passed to Branch for one call must share length.
type WildcardLists map[string][]string

// Branch clones r and replaces every dynamic template on the given side
// with its k concrete expansions, per §4.4.4. It returns (nil, nil, false)
// if any wildcard referenced by a relevant template is absent from
// wildcards. Branch never mutates r.
func Branch(r *rule.Rule, wildcards WildcardLists, side Side) (*rule.Rule, pattern.Binding, bool) {
	k := -1
	for _, vs := range wildcards {
		if k == -1 {
			k = len(vs)
		} else if len(vs) != k {
			return nil, nil, false
		}
	}
	if k == -1 {
		k = 0
	}

	clone := r.Clone()

	switch side {
	case SideInput:
		if !branchInput(clone, wildcards, k) {
			return nil, nil, false
		}
		return clone, nil, true
	case SideOutput:
		if !branchOutput(clone, wildcards, k) {
			return nil, nil, false
		}
		nonDynamic := constantBinding(wildcards)
		clone.ClearWildcardNames()
		exp, err := Expand(clone, nonDynamic)
		if err != nil {
			return nil, nil, false
		}
		names := clone.Outputs().Names()
		clone.SetConcreteOutputs(exp.Outputs, names)
		if exp.HasLog {
			clone.SetConcreteLog(exp.Log)
		}
		inNames := clone.Inputs().Names()
		clone.SetConcreteInputs(exp.Inputs, inNames)
		return clone, nonDynamic, true
	default:
		return nil, nil, false
	}
}

func constantBinding(wildcards WildcardLists) pattern.Binding {
	b := pattern.Binding{}
	for name, vs := range wildcards {
		if len(vs) == 0 {
			continue
		}
		constant := true
		for _, v := range vs[1:] {
			if v != vs[0] {
				constant = false
				break
			}
		}
		if constant {
			b[name] = vs[0]
		}
	}
	return b
}

// expandZip renders f once per position 0..k, binding each wildcard name
// referenced by f to wildcards[name][i] for that position.
func expandZip(f *pattern.PatternFile, wildcards WildcardLists, k int) ([]*pattern.PatternFile, bool) {
	names := f.WildcardNames()
	for name := range names {
		if _, ok := wildcards[name]; !ok {
			return nil, false
		}
	}
	out := make([]*pattern.PatternFile, 0, k)
	for i := 0; i < k; i++ {
		b := pattern.Binding{}
		for name := range names {
			b[name] = wildcards[name][i]
		}
		s, err := f.Render(b, pattern.RenderOptions{Strict: true})
		if err != nil {
			return nil, false
		}
		out = append(out, pattern.Literal(s))
	}
	return out, true
}

func branchOutput(r *rule.Rule, wildcards WildcardLists, k int) bool {
	outs := r.Outputs()
	indices := dynamicIndices(outs, r.IsDynamicOutput)
	for i := len(indices) - 1; i >= 0; i-- {
		idx := indices[i]
		f := outs.ByIndex(idx)
		expanded, ok := expandZip(f, wildcards, k)
		if !ok {
			return false
		}
		wasTemp := r.IsTempOutput(f)
		wasProtected := r.IsProtectedOutput(f)
		outs.ReplaceAt(idx, expanded)
		r.RemoveDynamicOutput(f)
		for _, e := range expanded {
			if wasTemp {
				r.AddTempOutput(e)
			}
			if wasProtected {
				r.AddProtectedOutput(e)
			}
		}
	}
	return true
}

func branchInput(r *rule.Rule, wildcards WildcardLists, k int) bool {
	ins := r.Inputs()
	isDynamic := func(it rule.InputItem) bool {
		return !it.IsComputed() && r.IsDynamicInput(it.Template)
	}
	indices := dynamicInputIndices(ins, isDynamic)
	for i := len(indices) - 1; i >= 0; i-- {
		idx := indices[i]
		f := ins.ByIndex(idx).Template
		expanded, ok := expandZip(f, wildcards, k)
		if !ok {
			return false
		}
		items := make([]rule.InputItem, len(expanded))
		for j, e := range expanded {
			items[j] = rule.InputItem{Template: e}
		}
		ins.ReplaceAt(idx, items)
		r.RemoveDynamicInput(f)
	}
	return true
}

func dynamicIndices(l *namedlist.List[*pattern.PatternFile], isDynamic func(*pattern.PatternFile) bool) []int {
	var out []int
	for i, pf := range l.Iter() {
		if isDynamic(pf) {
			out = append(out, i)
		}
	}
	sort.Ints(out)
	return out
}

func dynamicInputIndices(l *namedlist.List[rule.InputItem], isDynamic func(rule.InputItem) bool) []int {
	var out []int
	for i, it := range l.Iter() {
		if isDynamic(it) {
			out = append(out, i)
		}
	}
	sort.Ints(out)
	return out
}
