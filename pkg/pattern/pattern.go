// Package pattern implements the wildcard placeholder grammar used by rule
// inputs, outputs, params, and logs: "{name}" and "{name,regex}", with
// "{{"/"}}" escaping to literal braces.
package pattern

import (
	"fmt"
	"regexp"
	"strings"

	"wildrule/pkg/pathutil"
)

// Flag is an attribute carried by an input/output/param item.
type Flag string

const (
	FlagTemp      Flag = "temp"
	FlagProtected Flag = "protected"
	FlagDynamic   Flag = "dynamic"
)

// defaultBody is the regex body used for a placeholder without an explicit
// "{name,regex}" constraint.
const defaultBody = `[^/]+`

// dynamicMarkerPrefix, followed by the wildcard name, fills an unbound
// wildcard name when a template is rendered with FillMissing, so the caller
// gets a stable, recognizable placeholder instead of an error.
const dynamicMarkerPrefix = "{*}"

// Binding maps a wildcard name to the string it was matched against.
type Binding map[string]string

// token is one piece of a compiled template: either a literal run of text
// or a placeholder occurrence.
type token struct {
	literal string
	isPlace bool
	name    string
}

// Placeholder describes one "{name}"/"{name,regex}" occurrence in a
// template, in declaration order (a name may repeat).
type Placeholder struct {
	Name  string
	Regex string // the body actually used, including the implicit default
	Start int    // byte offset into the raw template
	End   int    // exclusive byte offset
}

// PatternFile is a compiled path template: a matcher (anchored regex) and a
// renderer (token list), plus the attribute flags carried by the template.
type PatternFile struct {
	raw          string
	tokens       []token
	placeholders []Placeholder
	wildcards    map[string]struct{}
	re           *regexp.Regexp
	groupOf      map[string]string // internal capture-group name -> wildcard name
	flags        map[Flag]struct{}
	skeleton     string // doublestar pre-filter pattern
}

// Tagged wraps a construction-time input/output/param item with attribute
// flags. Value holds the template string when one was wrapped; Callable
// holds whatever non-string value was wrapped instead (a flag applied to a
// callable is a construction error the rule package reports as such).
type Tagged struct {
	Value    string
	IsString bool
	Callable any
	Flags    map[Flag]struct{}
}

func wrap(v any, f Flag) Tagged {
	switch x := v.(type) {
	case Tagged:
		if x.Flags == nil {
			x.Flags = map[Flag]struct{}{}
		}
		x.Flags[f] = struct{}{}
		return x
	case string:
		return Tagged{Value: x, IsString: true, Flags: map[Flag]struct{}{f: {}}}
	default:
		return Tagged{Callable: x, Flags: map[Flag]struct{}{f: {}}}
	}
}

// Temp marks an item as a temporary output.
func Temp(v any) Tagged { return wrap(v, FlagTemp) }

// Protected marks an item as a protected output.
func Protected(v any) Tagged { return wrap(v, FlagProtected) }

// Dynamic marks an item as a dynamic input or output. Stacking is allowed:
// Temp(Dynamic(s)) carries both flags.
func Dynamic(v any) Tagged { return wrap(v, FlagDynamic) }

// Has reports whether the flag is set.
func (t Tagged) Has(f Flag) bool {
	_, ok := t.Flags[f]
	return ok
}

// BadPatternError reports a malformed placeholder or an invalid embedded
// regex fragment.
type BadPatternError struct {
	Template string
	Reason   string
}

func (e *BadPatternError) Error() string {
	return fmt.Sprintf("bad pattern %q: %s", e.Template, e.Reason)
}

// UnresolvedWildcardError reports a wildcard name with no bound value and no
// fill-missing fallback.
type UnresolvedWildcardError struct {
	Name string
}

func (e *UnresolvedWildcardError) Error() string {
	return fmt.Sprintf("unresolved wildcard %q", e.Name)
}

// DynamicNotExpandedError reports an attempt to render a template that is
// still dynamic (its multiplicity is not yet known).
type DynamicNotExpandedError struct {
	Template string
}

func (e *DynamicNotExpandedError) Error() string {
	return fmt.Sprintf("template %q is dynamic and has not been expanded", e.Template)
}

// Compile parses template into a PatternFile with no attribute flags.
func Compile(template string) (*PatternFile, error) {
	return compile(template, nil)
}

// CompileTagged parses a Tagged item into a PatternFile carrying its flags.
// It fails if t wraps a non-string (a flag was applied to a callable).
func CompileTagged(t Tagged) (*PatternFile, error) {
	if !t.IsString {
		return nil, &BadPatternError{Reason: "flag applied to a non-string item"}
	}
	return compile(t.Value, t.Flags)
}

// Literal wraps a path string as a concrete PatternFile without running it
// through the placeholder parser. Use this to re-ingest an already-rendered
// string (e.g. after a dynamic branch) so a literal "{" in a filename is
// never mistaken for a placeholder.
func Literal(path string) *PatternFile {
	return &PatternFile{
		raw:       path,
		tokens:    []token{{literal: path}},
		wildcards: map[string]struct{}{},
		re:        regexp.MustCompile("^" + regexp.QuoteMeta(path) + "$"),
		groupOf:   map[string]string{},
		flags:     map[Flag]struct{}{},
		skeleton:  pathutil.EscapeGlobLiteral(path),
	}
}

func compile(template string, flags map[Flag]struct{}) (*PatternFile, error) {
	toks, phs, err := tokenize(template)
	if err != nil {
		return nil, err
	}

	var reBuf strings.Builder
	var skelBuf strings.Builder
	reBuf.WriteByte('^')
	wildcards := map[string]struct{}{}
	groupOf := map[string]string{}
	seen := map[string]int{}
	hasCustom := false

	for _, tk := range toks {
		if !tk.isPlace {
			reBuf.WriteString(regexp.QuoteMeta(tk.literal))
			skelBuf.WriteString(pathutil.EscapeGlobLiteral(tk.literal))
			continue
		}
		wildcards[tk.name] = struct{}{}
		body := bodyForName(tk.name, phs)
		group := tk.name
		if n := seen[tk.name]; n > 0 {
			group = fmt.Sprintf("%s__dup%d", tk.name, n)
		}
		seen[tk.name]++
		groupOf[group] = tk.name
		reBuf.WriteString("(?P<")
		reBuf.WriteString(group)
		reBuf.WriteString(">")
		reBuf.WriteString(body)
		reBuf.WriteString(")")
		if body == defaultBody {
			skelBuf.WriteString("*")
		} else {
			skelBuf.WriteString("**")
			hasCustom = true
		}
	}
	reBuf.WriteByte('$')
	skeleton := skelBuf.String()
	if hasCustom {
		// A "**" inside a path segment only acts as "*" in doublestar, so
		// a custom regex that crosses "/" can only be covered by "**" alone.
		skeleton = "**"
	}

	re, err := regexp.Compile(reBuf.String())
	if err != nil {
		return nil, &BadPatternError{Template: template, Reason: err.Error()}
	}

	return &PatternFile{
		raw:          template,
		tokens:       toks,
		placeholders: phs,
		wildcards:    wildcards,
		re:           re,
		groupOf:      groupOf,
		flags:        cloneFlags(flags),
		skeleton:     skeleton,
	}, nil
}

func bodyForName(name string, phs []Placeholder) string {
	for _, p := range phs {
		if p.Name == name {
			return p.Regex
		}
	}
	return defaultBody
}

func cloneFlags(flags map[Flag]struct{}) map[Flag]struct{} {
	out := make(map[Flag]struct{}, len(flags))
	for f := range flags {
		out[f] = struct{}{}
	}
	return out
}

// tokenize parses the "{{"/"}}"/"{name}"/"{name,regex}" grammar.
func tokenize(template string) ([]token, []Placeholder, error) {
	var toks []token
	var phs []Placeholder
	var lit strings.Builder
	flushLit := func() {
		if lit.Len() > 0 {
			toks = append(toks, token{literal: lit.String()})
			lit.Reset()
		}
	}

	i := 0
	n := len(template)
	for i < n {
		c := template[i]
		switch {
		case c == '{' && i+1 < n && template[i+1] == '{':
			lit.WriteByte('{')
			i += 2
		case c == '}' && i+1 < n && template[i+1] == '}':
			lit.WriteByte('}')
			i += 2
		case c == '{':
			start := i
			rel := strings.IndexByte(template[i+1:], '}')
			if rel == -1 {
				return nil, nil, &BadPatternError{Template: template, Reason: "unterminated placeholder"}
			}
			end := i + 1 + rel
			body := template[i+1 : end]
			if strings.ContainsRune(body, '{') {
				return nil, nil, &BadPatternError{Template: template, Reason: "nested '{' inside placeholder"}
			}
			name, regex, err := parsePlaceholderBody(body)
			if err != nil {
				return nil, nil, &BadPatternError{Template: template, Reason: err.Error()}
			}
			if _, err := regexp.Compile(regex); err != nil {
				return nil, nil, &BadPatternError{Template: template, Reason: fmt.Sprintf("invalid embedded regex %q: %v", regex, err)}
			}
			flushLit()
			toks = append(toks, token{isPlace: true, name: name})
			phs = append(phs, Placeholder{Name: name, Regex: regex, Start: start, End: end + 1})
			i = end + 1
		case c == '}':
			return nil, nil, &BadPatternError{Template: template, Reason: "unmatched '}'"}
		default:
			lit.WriteByte(c)
			i++
		}
	}
	flushLit()
	return toks, phs, nil
}

var nameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func parsePlaceholderBody(body string) (name, regex string, err error) {
	idx := strings.IndexByte(body, ',')
	if idx == -1 {
		name = body
		regex = defaultBody
	} else {
		name = body[:idx]
		regex = body[idx+1:]
		if regex == "" {
			return "", "", fmt.Errorf("empty regex fragment in {%s,}", name)
		}
	}
	if !nameRe.MatchString(name) {
		return "", "", fmt.Errorf("invalid wildcard name %q", name)
	}
	return name, regex, nil
}

// WildcardNames returns the set of distinct wildcard names in the template.
func (p *PatternFile) WildcardNames() map[string]struct{} {
	out := make(map[string]struct{}, len(p.wildcards))
	for n := range p.wildcards {
		out[n] = struct{}{}
	}
	return out
}

// Placeholders returns the ordered placeholder occurrences, including
// repeated names.
func (p *PatternFile) Placeholders() []Placeholder {
	out := make([]Placeholder, len(p.placeholders))
	copy(out, p.placeholders)
	return out
}

// Raw returns the original template string.
func (p *PatternFile) Raw() string { return p.raw }

// IsConcrete reports whether the template has no placeholders.
func (p *PatternFile) IsConcrete() bool { return len(p.wildcards) == 0 }

// Flags returns the attribute flags carried by the template.
func (p *PatternFile) Flags() map[Flag]struct{} { return cloneFlags(p.flags) }

// Has reports whether the template carries the given flag.
func (p *PatternFile) Has(f Flag) bool {
	_, ok := p.flags[f]
	return ok
}

// GlobSkeleton returns a coarse doublestar pattern that is a safe superset
// of everything Match accepts: literal runs are glob-escaped and each
// default-regex placeholder becomes "*". A template with any custom-regex
// placeholder (which might itself match "/") gets the skeleton "**", which
// matches every path. It never produces a false negative, so it is fit to
// use as a cheap pre-filter ahead of Match.
func (p *PatternFile) GlobSkeleton() string { return p.skeleton }

// Match reports whether path fully matches the template, returning the
// wildcard bindings implied. A name that occurs more than once in the
// template must bind to the same value at every occurrence, or Match fails.
func (p *PatternFile) Match(path string) (Binding, bool) {
	m := p.re.FindStringSubmatch(path)
	if m == nil {
		return nil, false
	}
	b := make(Binding, len(p.wildcards))
	for i, group := range p.re.SubexpNames() {
		if group == "" {
			continue
		}
		name, ok := p.groupOf[group]
		if !ok {
			continue
		}
		val := m[i]
		if existing, bound := b[name]; bound && existing != val {
			return nil, false
		}
		b[name] = val
	}
	return b, true
}

// RenderOptions controls Render's behavior for names the binding doesn't
// cover, and lets a caller refuse to render a template that is still
// dynamic.
type RenderOptions struct {
	// FillMissing substitutes a synthetic marker for an unbound name
	// instead of failing.
	FillMissing bool
	// FailDynamic, if it contains the PatternFile being rendered, makes
	// Render fail with DynamicNotExpandedError regardless of bindings.
	FailDynamic map[*PatternFile]struct{}
	// Strict makes an unbound, non-filled name fail with
	// UnresolvedWildcardError. Without Strict, such a name renders as "".
	Strict bool
}

// Render substitutes each placeholder in the template by its bound value.
func (p *PatternFile) Render(b Binding, opts RenderOptions) (string, error) {
	if _, bad := opts.FailDynamic[p]; bad {
		return "", &DynamicNotExpandedError{Template: p.raw}
	}
	var out strings.Builder
	for _, tk := range p.tokens {
		if !tk.isPlace {
			out.WriteString(tk.literal)
			continue
		}
		val, ok := b[tk.name]
		switch {
		case ok:
			out.WriteString(val)
		case opts.FillMissing:
			out.WriteString(dynamicMarkerPrefix + tk.name)
		case opts.Strict:
			return "", &UnresolvedWildcardError{Name: tk.name}
		default:
			// Non-strict, unbound, not filled: render as empty so partial
			// previews (e.g. Rule.Describe) don't need a full binding.
		}
	}
	return out.String(), nil
}
