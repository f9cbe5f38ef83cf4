package registry

import (
	"testing"

	"wildrule/pkg/rule"
)

func newRule(t *testing.T, name string, output string) *rule.Rule {
	t.Helper()
	r := rule.New(name, rule.Location{File: "rules.wr", Line: 1})
	if err := r.SetOutputs([]any{output}, nil); err != nil {
		t.Fatalf("SetOutputs: %v", err)
	}
	return r
}

func TestAddAndGet(t *testing.T) {
	reg := New()
	r := newRule(t, "align", "{sample}.bam")
	if err := reg.Add(r); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	got, ok := reg.Get("align")
	if !ok || got != r {
		t.Fatalf("Get(align) = %v, %v", got, ok)
	}
	if _, ok := reg.Get("missing"); ok {
		t.Errorf("expected Get(missing) to fail")
	}
}

func TestAddDuplicateName(t *testing.T) {
	reg := New()
	r1 := newRule(t, "dup", "{sample}.bam")
	r2 := newRule(t, "dup", "{sample}.sam")
	if err := reg.Add(r1); err != nil {
		t.Fatalf("first Add error: %v", err)
	}
	if err := reg.Add(r2); err == nil {
		t.Fatalf("expected duplicate-name error on second Add")
	}
}

func TestProducers(t *testing.T) {
	reg := New()
	bam := newRule(t, "align", "{sample}.bam")
	sam := newRule(t, "convert", "{sample}.sam")
	for _, r := range []*rule.Rule{bam, sam} {
		if err := reg.Add(r); err != nil {
			t.Fatalf("Add error: %v", err)
		}
	}

	producers := reg.Producers("A.bam")
	if len(producers) != 1 || producers[0] != bam {
		t.Fatalf("Producers(A.bam) = %v", producers)
	}

	if len(reg.Producers("A.nonexistent")) != 0 {
		t.Errorf("expected no producers for an unmatched path")
	}
}

func TestAllPreservesDeclarationOrder(t *testing.T) {
	reg := New()
	names := []string{"c", "a", "b"}
	for _, n := range names {
		if err := reg.Add(newRule(t, n, n+".out")); err != nil {
			t.Fatalf("Add error: %v", err)
		}
	}
	all := reg.All()
	if len(all) != 3 {
		t.Fatalf("All() len = %d", len(all))
	}
	for i, n := range names {
		if all[i].Name() != n {
			t.Errorf("All()[%d] = %s, want %s", i, all[i].Name(), n)
		}
	}
}
