// Package namedlist implements the ordered-sequence-plus-name-overlay
// container used throughout the rule model: an ordered list of items with a
// separate mapping from names to contiguous index ranges.
package namedlist

import "sort"

// Range is a contiguous half-open index range [Start, End) bound to a name.
type Range struct {
	Start, End int
}

// List is an ordered sequence overlaid with a name -> Range map. The zero
// value is not usable; construct with New.
type List[T any] struct {
	items []T
	names map[string]Range
}

// New returns an empty List.
func New[T any]() *List[T] {
	return &List[T]{names: make(map[string]Range)}
}

// Len returns the number of items.
func (l *List[T]) Len() int { return len(l.items) }

// Append adds item to the end of the sequence.
func (l *List[T]) Append(item T) { l.items = append(l.items, item) }

// ByIndex returns the item at positional index i.
func (l *List[T]) ByIndex(i int) T { return l.items[i] }

// Iter returns the items in positional order. Callers must not mutate the
// returned slice.
func (l *List[T]) Iter() []T { return l.items }

// AddName binds name to the singleton range covering the last-appended
// item. It is a no-op if the list is empty.
func (l *List[T]) AddName(name string) {
	n := len(l.items)
	if n == 0 {
		return
	}
	l.names[name] = Range{Start: n - 1, End: n}
}

// SetName binds name to the explicit range [start, end).
func (l *List[T]) SetName(name string, start, end int) {
	l.names[name] = Range{Start: start, End: end}
}

// ByName returns the sub-slice bound to name, or nil if no such name exists.
func (l *List[T]) ByName(name string) []T {
	r, ok := l.names[name]
	if !ok {
		return nil
	}
	return l.items[r.Start:r.End]
}

// Names returns a copy of the name -> range map.
func (l *List[T]) Names() map[string]Range {
	out := make(map[string]Range, len(l.names))
	for k, v := range l.names {
		out[k] = v
	}
	return out
}

// TakeNames copies other's name map onto l, provided the two lists have
// equal length. Returns false (and does nothing) on a length mismatch.
func (l *List[T]) TakeNames(other *List[T]) bool {
	if l.Len() != other.Len() {
		return false
	}
	for k, v := range other.names {
		l.names[k] = v
	}
	return true
}

// SetNames replaces the name map wholesale (e.g. restoring a map captured
// with Names()).
func (l *List[T]) SetNames(names map[string]Range) {
	out := make(map[string]Range, len(names))
	for k, v := range names {
		out[k] = v
	}
	l.names = out
}

// IndexFunc returns the index of the first item for which pred is true, or
// -1 if none match.
func (l *List[T]) IndexFunc(pred func(T) bool) int {
	for i, it := range l.items {
		if pred(it) {
			return i
		}
	}
	return -1
}

// InsertRange inserts items at index, shifting later items and any name
// range that starts at or after index.
func (l *List[T]) InsertRange(index int, items []T) {
	n := len(items)
	out := make([]T, 0, len(l.items)+n)
	out = append(out, l.items[:index]...)
	out = append(out, items...)
	out = append(out, l.items[index:]...)
	l.items = out

	for name, r := range l.names {
		if r.Start >= index {
			r.Start += n
			r.End += n
		} else if r.End > index {
			r.End += n
		}
		l.names[name] = r
	}
}

// ReplaceAt removes the single item at index i and inserts replacement in
// its place, adjusting every name range so that indices before i are
// unaffected, ranges spanning i grow to cover the replacement, and ranges
// entirely after i shift by the size delta. This is the primitive the
// dynamic-branch mechanism uses to swap one still-dynamic template for its
// k concrete expansions without disturbing unrelated named groups.
func (l *List[T]) ReplaceAt(i int, replacement []T) {
	l.ReplaceRange(i, i+1, replacement)
}

// ReplaceRange removes items[start:end) and inserts replacement in their
// place, adjusting name ranges the same way ReplaceAt does.
func (l *List[T]) ReplaceRange(start, end int, replacement []T) {
	delta := len(replacement) - (end - start)
	out := make([]T, 0, len(l.items)+delta)
	out = append(out, l.items[:start]...)
	out = append(out, replacement...)
	out = append(out, l.items[end:]...)
	l.items = out

	for name, r := range l.names {
		nr := r
		if r.Start > start {
			nr.Start += delta
		}
		if r.End > start {
			nr.End += delta
		}
		l.names[name] = nr
	}
}

// Clone returns a structurally independent copy: a new backing slice and a
// new name map. Element values themselves are copied shallowly (pointer
// elements still refer to the same pointee).
func (l *List[T]) Clone() *List[T] {
	c := &List[T]{
		items: make([]T, len(l.items)),
		names: make(map[string]Range, len(l.names)),
	}
	copy(c.items, l.items)
	for k, v := range l.names {
		c.names[k] = v
	}
	return c
}

// Group is one contiguous run of positional indices, optionally bound to a
// name, as recovered by Groups.
type Group struct {
	Name  string // empty for a singleton group with no bound name
	Start int
	End   int
}

// Groups replays the list's items as declaration-order groups: every named
// range becomes one group, and every index not covered by a name becomes
// its own singleton group. This lets the expansion engine recompute name
// ranges over a derived list (e.g. one where a single input item fans out
// into several rendered paths) the same way the index range was originally
// assigned, without requiring name ranges to line up 1:1 with input items.
//
// Groups assumes the list's named ranges are pairwise disjoint, which the
// construction API guarantees; List itself treats the name map as opaque
// and does not enforce it (see NamedList's invariant in the rule model).
func (l *List[T]) Groups() []Group {
	ranges := make([]Group, 0, len(l.names))
	for name, r := range l.names {
		ranges = append(ranges, Group{Name: name, Start: r.Start, End: r.End})
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Start < ranges[j].Start })

	var out []Group
	i, ri := 0, 0
	for i < len(l.items) {
		if ri < len(ranges) && ranges[ri].Start == i {
			out = append(out, ranges[ri])
			i = ranges[ri].End
			ri++
			continue
		}
		out = append(out, Group{Start: i, End: i + 1})
		i++
	}
	return out
}
