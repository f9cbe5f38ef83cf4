// Package rule implements the immutable-after-construction Rule model:
// named input/output/param lists, attribute-flag bookkeeping, resources,
// priority, and the construction API the DSL parser layer calls.
package rule

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"mvdan.cc/sh/v3/syntax"

	"wildrule/pkg/namedlist"
	"wildrule/pkg/pattern"
)

// ResourceCPU is the distinguished resources-map key for CPU core count
// (named after the historical Snakemake internal key this spec traces to).
const ResourceCPU = "_cores"

// titleCaser renders flag and rule names for human-readable summaries.
var titleCaser = cases.Title(language.English)

// Wildcards is the read-only binding view passed to input/param functions
// during expansion.
type Wildcards struct {
	b pattern.Binding
}

// NewWildcards wraps a binding for passing to a callable item.
func NewWildcards(b pattern.Binding) Wildcards {
	cp := make(pattern.Binding, len(b))
	for k, v := range b {
		cp[k] = v
	}
	return Wildcards{b: cp}
}

// Get returns the bound value for name, if any.
func (w Wildcards) Get(name string) (string, bool) {
	v, ok := w.b[name]
	return v, ok
}

// All returns a copy of the full binding.
func (w Wildcards) All() pattern.Binding {
	cp := make(pattern.Binding, len(w.b))
	for k, v := range w.b {
		cp[k] = v
	}
	return cp
}

// InputFunc computes input items lazily from a binding at expansion time.
// It must return a string or a []string; any other return is a
// BadInputFunction error at expansion time.
type InputFunc func(w Wildcards) (any, error)

// ParamFunc computes a parameter value lazily from a binding. Its result is
// passed through verbatim, unlike InputFunc's.
type ParamFunc func(w Wildcards) (any, error)

// InputItem is the tagged variant spec.md §9 calls for: a compiled template
// or a deferred computation, resolved during Expand.
type InputItem struct {
	Template *pattern.PatternFile // nil if Fn is set
	Fn       InputFunc            // nil if Template is set
}

// IsComputed reports whether this item is evaluated by a function rather
// than rendered from a template.
func (it InputItem) IsComputed() bool { return it.Fn != nil }

// ParamItem mirrors InputItem for the param list: a templated string or a
// deferred computation.
type ParamItem struct {
	Template *pattern.PatternFile
	Fn       ParamFunc
}

func (it ParamItem) IsComputed() bool { return it.Fn != nil }

// NamedGroup is one named argument to SetInputs/SetOutputs/SetParams: a
// name bound to a (possibly nested) list of items.
type NamedGroup struct {
	Name  string
	Items []any
}

// patternSet is a set of PatternFiles keyed by pointer identity.
type patternSet map[*pattern.PatternFile]struct{}

func (s patternSet) has(p *pattern.PatternFile) bool { _, ok := s[p]; return ok }
func (s patternSet) add(p *pattern.PatternFile)      { s[p] = struct{}{} }
func (s patternSet) remove(p *pattern.PatternFile)   { delete(s, p) }
func (s patternSet) clone() patternSet {
	out := make(patternSet, len(s))
	for p := range s {
		out[p] = struct{}{}
	}
	return out
}

// Rule is an immutable-after-construction production relation: inputs ->
// outputs via a command, plus the bookkeeping the wildcard engine and the
// external scheduler need.
type Rule struct {
	name string

	inputs  *namedlist.List[InputItem]
	outputs *namedlist.List[*pattern.PatternFile]
	params  *namedlist.List[ParamItem]
	log     *pattern.PatternFile

	wildcardNames map[string]struct{}

	dynamicInputs    patternSet
	dynamicOutputs   patternSet
	tempOutputs      patternSet
	protectedOutputs patternSet

	priority  int
	resources map[string]int

	version   string
	docstring string
	message   string
	command   string

	location Location
}

// New creates an empty rule named name, declared at loc.
func New(name string, loc Location) *Rule {
	return &Rule{
		name:             name,
		inputs:           namedlist.New[InputItem](),
		outputs:          namedlist.New[*pattern.PatternFile](),
		params:           namedlist.New[ParamItem](),
		wildcardNames:    map[string]struct{}{},
		dynamicInputs:    patternSet{},
		dynamicOutputs:   patternSet{},
		tempOutputs:      patternSet{},
		protectedOutputs: patternSet{},
		priority:         1,
		resources:        map[string]int{ResourceCPU: 1},
		location:         loc,
	}
}

// Name returns the rule's name.
func (r *Rule) Name() string { return r.name }

// String returns the rule's name, mirroring Python's __str__.
func (r *Rule) String() string { return r.name }

// Location returns the rule's source location.
func (r *Rule) Location() Location { return r.location }

// HasWildcards reports whether the rule's outputs contain any wildcards.
func (r *Rule) HasWildcards() bool { return len(r.wildcardNames) > 0 }

// WildcardNames returns a copy of the rule's wildcard name set.
func (r *Rule) WildcardNames() map[string]struct{} {
	out := make(map[string]struct{}, len(r.wildcardNames))
	for n := range r.wildcardNames {
		out[n] = struct{}{}
	}
	return out
}

// Inputs returns the rule's input list.
func (r *Rule) Inputs() *namedlist.List[InputItem] { return r.inputs }

// Outputs returns the rule's output list.
func (r *Rule) Outputs() *namedlist.List[*pattern.PatternFile] { return r.outputs }

// Params returns the rule's param list.
func (r *Rule) Params() *namedlist.List[ParamItem] { return r.params }

// Log returns the rule's log template, if one was set.
func (r *Rule) Log() (*pattern.PatternFile, bool) { return r.log, r.log != nil }

// Priority returns the rule's arbitration priority (default 1).
func (r *Rule) Priority() int { return r.priority }

// Resources returns a copy of the rule's resource requirements.
func (r *Rule) Resources() map[string]int {
	out := make(map[string]int, len(r.resources))
	for k, v := range r.resources {
		out[k] = v
	}
	return out
}

// Version, Docstring, Message, Command return the rule's optional metadata.
func (r *Rule) Version() (string, bool)   { return r.version, r.version != "" }
func (r *Rule) Docstring() (string, bool) { return r.docstring, r.docstring != "" }
func (r *Rule) Message() (string, bool)   { return r.message, r.message != "" }
func (r *Rule) Command() (string, bool)   { return r.command, r.command != "" }

// IsDynamicInput, IsDynamicOutput, IsTempOutput, IsProtectedOutput report
// flag membership by pattern identity.
func (r *Rule) IsDynamicInput(p *pattern.PatternFile) bool    { return r.dynamicInputs.has(p) }
func (r *Rule) IsDynamicOutput(p *pattern.PatternFile) bool   { return r.dynamicOutputs.has(p) }
func (r *Rule) IsTempOutput(p *pattern.PatternFile) bool      { return r.tempOutputs.has(p) }
func (r *Rule) IsProtectedOutput(p *pattern.PatternFile) bool { return r.protectedOutputs.has(p) }

// DynamicOutputSet returns the rule's dynamic-output set as a render
// fail-set, suitable for pattern.RenderOptions.FailDynamic.
func (r *Rule) DynamicOutputSet() map[*pattern.PatternFile]struct{} {
	return map[*pattern.PatternFile]struct{}(r.dynamicOutputs.clone())
}

// SetPriority sets the rule's arbitration priority.
func (r *Rule) SetPriority(n int) { r.priority = n }

// SetResource sets a resource requirement (e.g. ResourceCPU).
func (r *Rule) SetResource(key string, value int) { r.resources[key] = value }

// SetVersion, SetDocstring, SetMessage set optional metadata.
func (r *Rule) SetVersion(s string)   { r.version = s }
func (r *Rule) SetDocstring(s string) { r.docstring = s }
func (r *Rule) SetMessage(s string)   { r.message = s }

// SetLog compiles template as the rule's log path.
func (r *Rule) SetLog(template any) error {
	pf, flags, err := r.compileItem(template)
	if err != nil {
		return err
	}
	_, temp := flags[pattern.FlagTemp]
	_, protected := flags[pattern.FlagProtected]
	_, dynamic := flags[pattern.FlagDynamic]
	if temp || protected || dynamic {
		return r.errf(ErrFlagMisuse, "log path may not carry temp/protected/dynamic flags")
	}
	r.log = pf
	return nil
}

// SetCommand syntax-checks template as a shell command and stores it
// verbatim. The parsed AST is discarded immediately; the command body is
// never evaluated by this package (spec.md's "evaluating user-supplied
// action bodies" Non-goal).
func (r *Rule) SetCommand(template string) error {
	parser := syntax.NewParser(syntax.Variant(syntax.LangBash))
	if _, err := parser.Parse(strings.NewReader(template), r.name); err != nil {
		return r.errf(ErrBadCommand, err.Error())
	}
	r.command = template
	return nil
}

func (r *Rule) errf(kind error, format string, args ...any) *ConstructionError {
	return &ConstructionError{Rule: r.name, Location: r.location, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// compileItem resolves a construction-time item (string or Tagged) to a
// compiled PatternFile plus its flag set.
func (r *Rule) compileItem(item any) (*pattern.PatternFile, map[pattern.Flag]struct{}, error) {
	switch v := item.(type) {
	case string:
		pf, err := pattern.Compile(v)
		if err != nil {
			return nil, nil, r.errf(ErrBadItemType, "%v", err)
		}
		return pf, nil, nil
	case pattern.Tagged:
		if !v.IsString {
			return nil, nil, r.errf(ErrFlagMisuse, "flag applied to a non-template item")
		}
		pf, err := pattern.CompileTagged(v)
		if err != nil {
			return nil, nil, r.errf(ErrBadItemType, "%v", err)
		}
		return pf, v.Flags, nil
	default:
		return nil, nil, r.errf(ErrBadItemType, "expected string or tagged template, got %T", item)
	}
}

// SetInputs appends positional and named input items. Each item is a
// string, a pattern.Tagged-wrapped string, a nested []any (flattened), or
// an InputFunc.
func (r *Rule) SetInputs(positional []any, named []NamedGroup) error {
	for _, item := range positional {
		if err := r.addInputItem(item, ""); err != nil {
			return err
		}
	}
	for _, g := range named {
		start := r.inputs.Len()
		for _, item := range g.Items {
			if err := r.addInputItem(item, ""); err != nil {
				return err
			}
		}
		r.inputs.SetName(g.Name, start, r.inputs.Len())
	}
	return nil
}

func (r *Rule) addInputItem(item any, name string) error {
	switch v := item.(type) {
	case InputFunc:
		r.inputs.Append(InputItem{Fn: v})
		if name != "" {
			r.inputs.AddName(name)
		}
		return nil
	case []any:
		start := r.inputs.Len()
		for _, sub := range v {
			if err := r.addInputItem(sub, ""); err != nil {
				return err
			}
		}
		if name != "" {
			r.inputs.SetName(name, start, r.inputs.Len())
		}
		return nil
	case pattern.Tagged:
		if !v.IsString {
			return r.errf(ErrFlagMisuse, "flag applied to a callable input")
		}
		if v.Has(pattern.FlagTemp) || v.Has(pattern.FlagProtected) {
			return r.errf(ErrFlagMisuse, "temp/protected flags are only valid on outputs")
		}
		pf, err := pattern.CompileTagged(v)
		if err != nil {
			return r.errf(ErrBadItemType, "%v", err)
		}
		r.inputs.Append(InputItem{Template: pf})
		if v.Has(pattern.FlagDynamic) {
			r.dynamicInputs.add(pf)
		}
		if name != "" {
			r.inputs.AddName(name)
		}
		return nil
	case string:
		pf, err := pattern.Compile(v)
		if err != nil {
			return r.errf(ErrBadItemType, "%v", err)
		}
		r.inputs.Append(InputItem{Template: pf})
		if name != "" {
			r.inputs.AddName(name)
		}
		return nil
	default:
		return r.errf(ErrBadItemType, "unsupported input item type %T", item)
	}
}

// SetOutputs appends positional and named output items, then validates the
// accumulated output set (dynamic/non-dynamic mixing, wildcard-set
// agreement). A callable item is always a CallableOutput error.
func (r *Rule) SetOutputs(positional []any, named []NamedGroup) error {
	for _, item := range positional {
		if err := r.addOutputItem(item, ""); err != nil {
			return err
		}
	}
	for _, g := range named {
		start := r.outputs.Len()
		for _, item := range g.Items {
			if err := r.addOutputItem(item, ""); err != nil {
				return err
			}
		}
		r.outputs.SetName(g.Name, start, r.outputs.Len())
	}
	return r.validateOutputs()
}

func (r *Rule) addOutputItem(item any, name string) error {
	switch v := item.(type) {
	case InputFunc, ParamFunc:
		return r.errf(ErrCallableOutput, "a callable is forbidden on outputs")
	case []any:
		start := r.outputs.Len()
		for _, sub := range v {
			if err := r.addOutputItem(sub, ""); err != nil {
				return err
			}
		}
		if name != "" {
			r.outputs.SetName(name, start, r.outputs.Len())
		}
		return nil
	case pattern.Tagged:
		if !v.IsString {
			return r.errf(ErrCallableOutput, "a callable is forbidden on outputs")
		}
		pf, err := pattern.CompileTagged(v)
		if err != nil {
			return r.errf(ErrBadItemType, "%v", err)
		}
		r.appendOutput(pf, v.Flags)
		if name != "" {
			r.outputs.AddName(name)
		}
		return nil
	case string:
		pf, err := pattern.Compile(v)
		if err != nil {
			return r.errf(ErrBadItemType, "%v", err)
		}
		r.appendOutput(pf, nil)
		if name != "" {
			r.outputs.AddName(name)
		}
		return nil
	default:
		return r.errf(ErrBadItemType, "unsupported output item type %T", item)
	}
}

func (r *Rule) appendOutput(pf *pattern.PatternFile, flags map[pattern.Flag]struct{}) {
	r.outputs.Append(pf)
	if _, ok := flags[pattern.FlagTemp]; ok {
		r.tempOutputs.add(pf)
	}
	if _, ok := flags[pattern.FlagProtected]; ok {
		r.protectedOutputs.add(pf)
	}
	if _, ok := flags[pattern.FlagDynamic]; ok {
		r.dynamicOutputs.add(pf)
	}
}

func (r *Rule) validateOutputs() error {
	var ref map[string]struct{}
	for i, pf := range r.outputs.Iter() {
		if len(r.dynamicOutputs) > 0 && !r.dynamicOutputs.has(pf) {
			return r.errf(ErrMixedDynamicOutput, "rule with dynamic output may not also declare non-dynamic output files")
		}
		names := pf.WildcardNames()
		if i == 0 {
			ref = names
			continue
		}
		if !sameNameSet(ref, names) {
			return r.errf(ErrWildcardSetMismatch, "not all output files of rule %s contain the same wildcards", r.name)
		}
	}
	if ref != nil {
		r.wildcardNames = ref
	}
	return nil
}

func sameNameSet(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

// SetParams appends positional and named param items. Each item is a
// string (rendered as a template), a ParamFunc, or a nested []any.
func (r *Rule) SetParams(positional []any, named []NamedGroup) error {
	for _, item := range positional {
		if err := r.addParamItem(item, ""); err != nil {
			return err
		}
	}
	for _, g := range named {
		start := r.params.Len()
		for _, item := range g.Items {
			if err := r.addParamItem(item, ""); err != nil {
				return err
			}
		}
		r.params.SetName(g.Name, start, r.params.Len())
	}
	return nil
}

func (r *Rule) addParamItem(item any, name string) error {
	switch v := item.(type) {
	case ParamFunc:
		r.params.Append(ParamItem{Fn: v})
		if name != "" {
			r.params.AddName(name)
		}
		return nil
	case []any:
		start := r.params.Len()
		for _, sub := range v {
			if err := r.addParamItem(sub, ""); err != nil {
				return err
			}
		}
		if name != "" {
			r.params.SetName(name, start, r.params.Len())
		}
		return nil
	case string:
		pf, err := pattern.Compile(v)
		if err != nil {
			return r.errf(ErrBadItemType, "%v", err)
		}
		r.params.Append(ParamItem{Template: pf})
		if name != "" {
			r.params.AddName(name)
		}
		return nil
	default:
		return r.errf(ErrBadItemType, "unsupported param item type %T", item)
	}
}

// Clone returns a structurally independent copy of r: new NamedLists and
// new flag/resource sets, so mutating the clone (as Branch does) can never
// observe or affect the original. This makes Branch pure even though the
// rules.py source it traces back to aliases its input/output lists by
// reference in the equivalent one-argument constructor.
func (r *Rule) Clone() *Rule {
	c := *r
	c.inputs = r.inputs.Clone()
	c.outputs = r.outputs.Clone()
	c.params = r.params.Clone()
	c.wildcardNames = cloneNameSet(r.wildcardNames)
	c.dynamicInputs = r.dynamicInputs.clone()
	c.dynamicOutputs = r.dynamicOutputs.clone()
	c.tempOutputs = r.tempOutputs.clone()
	c.protectedOutputs = r.protectedOutputs.clone()
	c.resources = make(map[string]int, len(r.resources))
	for k, v := range r.resources {
		c.resources[k] = v
	}
	return &c
}

func cloneNameSet(s map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// The remaining methods mutate a Rule that Branch has already Clone()'d;
// they are not part of the public construction API and are never called on
// a rule that has been added to a Registry.

// ClearWildcardNames empties the wildcard name set (used by Branch on the
// output side, once every output has been made concrete).
func (r *Rule) ClearWildcardNames() { r.wildcardNames = map[string]struct{}{} }

// RemoveDynamicInput, RemoveDynamicOutput drop a template from the
// corresponding dynamic set once it has been replaced by concrete
// expansions.
func (r *Rule) RemoveDynamicInput(p *pattern.PatternFile)  { r.dynamicInputs.remove(p) }
func (r *Rule) RemoveDynamicOutput(p *pattern.PatternFile) { r.dynamicOutputs.remove(p) }

// AddTempOutput, AddProtectedOutput transfer a flag onto a newly-expanded
// concrete output (used by Branch to carry temp/protected through a
// dynamic output's expansions).
func (r *Rule) AddTempOutput(p *pattern.PatternFile)      { r.tempOutputs.add(p) }
func (r *Rule) AddProtectedOutput(p *pattern.PatternFile) { r.protectedOutputs.add(p) }

// SetConcreteOutputs, SetConcreteInputs, SetConcreteLog replace the rule's
// fields with already-rendered, placeholder-free values (pattern.Literal),
// the state a rule reaches after a full dynamic-branch expansion on the
// output side (spec.md §4.4.4 step 4: "fully expand the clone").
func (r *Rule) SetConcreteOutputs(values []string, names map[string]namedlist.Range) {
	l := namedlist.New[*pattern.PatternFile]()
	for _, v := range values {
		l.Append(pattern.Literal(v))
	}
	l.SetNames(names)
	r.outputs = l
}

func (r *Rule) SetConcreteInputs(values []string, names map[string]namedlist.Range) {
	l := namedlist.New[InputItem]()
	for _, v := range values {
		l.Append(InputItem{Template: pattern.Literal(v)})
	}
	l.SetNames(names)
	r.inputs = l
}

func (r *Rule) SetConcreteLog(value string) { r.log = pattern.Literal(value) }

// Describe renders a one-line human-readable summary: the rule name, its
// output templates, and any carried flags, title-cased the way a report
// meant for a terminal reads. Unbound wildcards render as empty rather
// than failing, since this is a preview, not an expansion.
func (r *Rule) Describe() string {
	var b strings.Builder
	b.WriteString(titleCaser.String(r.name))
	b.WriteString(": ")

	outs := make([]string, 0, r.outputs.Len())
	for _, pf := range r.outputs.Iter() {
		s, _ := pf.Render(pattern.Binding{}, pattern.RenderOptions{})
		flags := r.describeFlags(pf)
		if flags != "" {
			s = s + " [" + flags + "]"
		}
		outs = append(outs, s)
	}
	b.WriteString(strings.Join(outs, ", "))
	return b.String()
}

func (r *Rule) describeFlags(pf *pattern.PatternFile) string {
	var names []string
	if r.IsTempOutput(pf) {
		names = append(names, titleCaser.String(string(pattern.FlagTemp)))
	}
	if r.IsProtectedOutput(pf) {
		names = append(names, titleCaser.String(string(pattern.FlagProtected)))
	}
	if r.IsDynamicOutput(pf) {
		names = append(names, titleCaser.String(string(pattern.FlagDynamic)))
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
