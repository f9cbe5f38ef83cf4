package ruleorder

import "testing"

// S5 — Rule ordering override: a later clause overrides an earlier one.
func TestScenarioS5(t *testing.T) {
	o := New()
	o.AddClause("r1", "r2")
	o.AddClause("r2", "r1")

	if got := o.Compare("r1", "r2"); got != 1 {
		t.Fatalf("Compare(r1, r2) = %d, want 1", got)
	}
	if got := o.Compare("r2", "r1"); got != -1 {
		t.Fatalf("Compare(r2, r1) = %d, want -1", got)
	}
}

func TestNoClauseContainsBoth(t *testing.T) {
	o := New()
	o.AddClause("r1", "r2")
	if got := o.Compare("r1", "r3"); got != 0 {
		t.Fatalf("Compare(r1, r3) = %d, want 0", got)
	}
}

// Testable property 5: antisymmetry.
func TestCompareAntisymmetric(t *testing.T) {
	o := New()
	o.AddClause("a", "b", "c")
	o.AddClause("c", "a")

	pairs := [][2]string{{"a", "b"}, {"b", "c"}, {"a", "c"}, {"x", "y"}}
	for _, p := range pairs {
		ab := o.Compare(p[0], p[1])
		ba := o.Compare(p[1], p[0])
		if ab != -ba {
			t.Errorf("Compare(%s,%s)=%d, Compare(%s,%s)=%d: not antisymmetric", p[0], p[1], ab, p[1], p[0], ba)
		}
	}
}

func TestLessGreater(t *testing.T) {
	o := New()
	o.AddClause("a", "b")
	if !o.Less("a", "b") {
		t.Errorf("expected Less(a, b)")
	}
	if !o.Greater("b", "a") {
		t.Errorf("expected Greater(b, a)")
	}
	if o.Less("a", "c") || o.Greater("a", "c") {
		t.Errorf("unrelated names should be neither Less nor Greater")
	}
}
