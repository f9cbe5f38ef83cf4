package namedlist

import (
	"reflect"
	"testing"
)

func TestAppendAndByIndex(t *testing.T) {
	l := New[string]()
	l.Append("a")
	l.Append("b")
	if l.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", l.Len())
	}
	if l.ByIndex(0) != "a" || l.ByIndex(1) != "b" {
		t.Fatalf("unexpected items: %v", l.Iter())
	}
}

func TestAddNameBindsLastAppended(t *testing.T) {
	l := New[string]()
	l.Append("a")
	l.AddName("first")
	l.Append("b")
	l.Append("c")
	l.SetName("rest", 1, 3)

	if got := l.ByName("first"); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("ByName(first) = %v", got)
	}
	if got := l.ByName("rest"); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Errorf("ByName(rest) = %v", got)
	}
	if got := l.ByName("missing"); got != nil {
		t.Errorf("ByName(missing) = %v, want nil", got)
	}
}

func TestTakeNames(t *testing.T) {
	a := New[string]()
	a.Append("x")
	a.Append("y")
	a.SetName("g", 0, 2)

	b := New[string]()
	b.Append("p")
	b.Append("q")

	if !b.TakeNames(a) {
		t.Fatalf("TakeNames failed on equal-length lists")
	}
	if got := b.ByName("g"); !reflect.DeepEqual(got, []string{"p", "q"}) {
		t.Errorf("ByName(g) = %v", got)
	}

	c := New[string]()
	c.Append("only-one")
	if c.TakeNames(a) {
		t.Errorf("TakeNames should fail on length mismatch")
	}
}

func TestReplaceAtAdjustsNameRanges(t *testing.T) {
	l := New[string]()
	l.Append("a")
	l.Append("b")
	l.Append("c")
	l.SetName("head", 0, 1)
	l.SetName("tail", 1, 3)

	l.ReplaceAt(0, []string{"a1", "a2", "a3"})

	if got := l.Iter(); !reflect.DeepEqual(got, []string{"a1", "a2", "a3", "b", "c"}) {
		t.Fatalf("unexpected items after ReplaceAt: %v", got)
	}
	names := l.Names()
	if names["tail"] != (Range{Start: 3, End: 5}) {
		t.Errorf("tail range = %v, want {3 5}", names["tail"])
	}
}

func TestCloneIsIndependent(t *testing.T) {
	l := New[string]()
	l.Append("a")
	l.SetName("n", 0, 1)

	c := l.Clone()
	c.Append("b")
	c.SetName("n2", 1, 2)

	if l.Len() != 1 {
		t.Errorf("original list mutated by clone append: len=%d", l.Len())
	}
	if _, ok := l.Names()["n2"]; ok {
		t.Errorf("original list's name map mutated by clone")
	}
}

func TestGroupsReplaysDeclarationOrder(t *testing.T) {
	l := New[string]()
	l.Append("a")
	l.Append("b")
	l.Append("c")
	l.Append("d")
	l.SetName("pair", 1, 3)

	groups := l.Groups()
	want := []Group{
		{Start: 0, End: 1},
		{Name: "pair", Start: 1, End: 3},
		{Start: 3, End: 4},
	}
	if !reflect.DeepEqual(groups, want) {
		t.Fatalf("Groups() = %#v, want %#v", groups, want)
	}
}

func TestIndexFunc(t *testing.T) {
	l := New[int]()
	l.Append(1)
	l.Append(2)
	l.Append(3)
	if i := l.IndexFunc(func(v int) bool { return v == 2 }); i != 1 {
		t.Errorf("IndexFunc = %d, want 1", i)
	}
	if i := l.IndexFunc(func(v int) bool { return v == 99 }); i != -1 {
		t.Errorf("IndexFunc = %d, want -1", i)
	}
}
