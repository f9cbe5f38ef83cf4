package rulefile

import (
	"os"
	"path/filepath"
	"testing"

	"wildrule/pkg/registry"
)

func writeTempRuleFile(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.toml")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadAndBuild(t *testing.T) {
	path := writeTempRuleFile(t, `
[[rule]]
name = "align"
outputs = ["{sample}.bam"]
inputs = ["{sample}.fq"]
command = "align {input} > {output}"
priority = 2
`)

	rf, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(rf.Rules) != 1 {
		t.Fatalf("Rules len = %d, want 1", len(rf.Rules))
	}

	reg := registry.New()
	if err := Build(rf, path, reg); err != nil {
		t.Fatalf("Build error: %v", err)
	}
	r, ok := reg.Get("align")
	if !ok {
		t.Fatalf("rule %q not registered", "align")
	}
	if r.Priority() != 2 {
		t.Errorf("Priority() = %d, want 2", r.Priority())
	}
}

func TestBuildAppliesFlags(t *testing.T) {
	path := writeTempRuleFile(t, `
[[rule]]
name = "split"
outputs = ["{tag}_{i}.out"]
dynamic = ["{tag}_{i}.out"]
temp = ["{tag}_{i}.out"]
`)

	rf, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	reg := registry.New()
	if err := Build(rf, path, reg); err != nil {
		t.Fatalf("Build error: %v", err)
	}
	r, ok := reg.Get("split")
	if !ok {
		t.Fatalf("rule %q not registered", "split")
	}
	pf := r.Outputs().ByIndex(0)
	if !r.IsDynamicOutput(pf) {
		t.Errorf("expected output to carry the dynamic flag")
	}
	if !r.IsTempOutput(pf) {
		t.Errorf("expected output to carry the temp flag")
	}
}

func TestBuildRejectsWildcardSetMismatch(t *testing.T) {
	path := writeTempRuleFile(t, `
[[rule]]
name = "bad"
outputs = ["{a}.x", "{b}.y"]
`)

	rf, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	reg := registry.New()
	if err := Build(rf, path, reg); err == nil {
		t.Fatalf("expected Build to fail on wildcard-set mismatch")
	}
}
