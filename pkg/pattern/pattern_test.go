package pattern

import "testing"

func TestCompileAndMatch(t *testing.T) {
	tests := []struct {
		name     string
		template string
		path     string
		want     Binding
		wantOK   bool
	}{
		{"basic", "{sample}.bam", "A.bam", Binding{"sample": "A"}, true},
		{"two wildcards", "{a}_{b}.txt", "x_y.txt", Binding{"a": "x", "b": "y"}, true},
		{"custom regex ok", "{n,[0-9]+}.log", "42.log", Binding{"n": "42"}, true},
		{"custom regex reject", "{n,[0-9]+}.log", "x.log", nil, false},
		{"literal mismatch", "foo.txt", "bar.txt", nil, false},
		{"no slash crossing", "{a}/{b}.txt", "x/y/z.txt", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pf, err := Compile(tt.template)
			if err != nil {
				t.Fatalf("Compile error: %v", err)
			}
			got, ok := pf.Match(tt.path)
			if ok != tt.wantOK {
				t.Fatalf("Match ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("binding = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("binding[%q] = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestDuplicateWildcardNameMustAgree(t *testing.T) {
	pf, err := Compile("{a}/{a}.txt")
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	if _, ok := pf.Match("x/x.txt"); !ok {
		t.Errorf("expected equal repeated bindings to match")
	}
	if _, ok := pf.Match("x/y.txt"); ok {
		t.Errorf("expected unequal repeated bindings to fail")
	}
}

func TestRoundTrip(t *testing.T) {
	pf, err := Compile("results/{sample}/{lane,[0-9]+}.fq")
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	b := Binding{"sample": "A1", "lane": "3"}
	rendered, err := pf.Render(b, RenderOptions{Strict: true})
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	got, ok := pf.Match(rendered)
	if !ok {
		t.Fatalf("rendered path %q did not match its own pattern", rendered)
	}
	for k, v := range b {
		if got[k] != v {
			t.Errorf("round-trip binding[%q] = %q, want %q", k, got[k], v)
		}
	}
}

func TestRenderStrictUnresolved(t *testing.T) {
	pf, _ := Compile("{sample}.bam")
	_, err := pf.Render(Binding{}, RenderOptions{Strict: true})
	if _, ok := err.(*UnresolvedWildcardError); !ok {
		t.Fatalf("expected UnresolvedWildcardError, got %v", err)
	}
}

func TestRenderFillMissing(t *testing.T) {
	pf, _ := Compile("{tag}_{i}.out")
	out, err := pf.Render(Binding{"tag": "A"}, RenderOptions{FillMissing: true})
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if out != "A_{*}i.out" {
		t.Fatalf("got %q", out)
	}
}

func TestRenderFailDynamic(t *testing.T) {
	pf, _ := Compile("{sample}.bam")
	fail := map[*PatternFile]struct{}{pf: {}}
	_, err := pf.Render(Binding{"sample": "A"}, RenderOptions{FailDynamic: fail})
	if _, ok := err.(*DynamicNotExpandedError); !ok {
		t.Fatalf("expected DynamicNotExpandedError, got %v", err)
	}
}

func TestEscapedBraces(t *testing.T) {
	pf, err := Compile("{{literal}}_{name}.txt")
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	b, ok := pf.Match("{literal}_foo.txt")
	if !ok {
		t.Fatalf("expected match on escaped literal braces")
	}
	if b["name"] != "foo" {
		t.Errorf("got %v", b)
	}
}

func TestBadPattern(t *testing.T) {
	tests := []string{
		"{unterminated",
		"{nested{inner}}",
		"{1bad}.txt",
	}
	for _, tmpl := range tests {
		if _, err := Compile(tmpl); err == nil {
			t.Errorf("Compile(%q): expected error", tmpl)
		}
	}
}

func TestIsConcrete(t *testing.T) {
	pf, _ := Compile("a/b/c.txt")
	if !pf.IsConcrete() {
		t.Errorf("expected concrete pattern")
	}
	pf2, _ := Compile("{a}/c.txt")
	if pf2.IsConcrete() {
		t.Errorf("expected non-concrete pattern")
	}
}

func TestLiteralDoesNotReinterpretBraces(t *testing.T) {
	pf := Literal("weird{name}.txt")
	if !pf.IsConcrete() {
		t.Fatalf("Literal pattern must be concrete")
	}
	b, ok := pf.Match("weird{name}.txt")
	if !ok || len(b) != 0 {
		t.Fatalf("Literal pattern should match its exact string only, got %v %v", b, ok)
	}
}

func TestGlobSkeletonIsSuperset(t *testing.T) {
	pf, _ := Compile("results/{sample}/{lane,[0-9]+/[a-z]+}.fq")
	if pf.GlobSkeleton() == "" {
		t.Fatalf("expected non-empty skeleton")
	}
	// A custom regex fragment that can itself match '/' must widen to '**'.
	if !containsDoubleStar(pf.GlobSkeleton()) {
		t.Errorf("expected ** in skeleton for slash-capable custom regex, got %q", pf.GlobSkeleton())
	}
}

func containsDoubleStar(s string) bool {
	for i := 0; i+1 < len(s); i++ {
		if s[i] == '*' && s[i+1] == '*' {
			return true
		}
	}
	return false
}

func TestFlagStacking(t *testing.T) {
	tagged := Temp(Dynamic("{tag}_{i}.out"))
	if !tagged.Has(FlagTemp) || !tagged.Has(FlagDynamic) {
		t.Fatalf("expected both temp and dynamic flags, got %v", tagged.Flags)
	}
	pf, err := CompileTagged(tagged)
	if err != nil {
		t.Fatalf("CompileTagged error: %v", err)
	}
	if !pf.Has(FlagTemp) || !pf.Has(FlagDynamic) {
		t.Errorf("compiled pattern lost a stacked flag: %v", pf.Flags())
	}
}

func TestFlagOnCallableIsNotString(t *testing.T) {
	tagged := Dynamic(42)
	if tagged.IsString {
		t.Fatalf("expected non-string Tagged for a non-string wrapped value")
	}
	if _, err := CompileTagged(tagged); err == nil {
		t.Errorf("expected CompileTagged to fail for a flag on a non-string")
	}
}
