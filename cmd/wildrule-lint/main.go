// Command wildrule-lint validates a rule file and reports its rules
// ordered by specificity: fewer wildcard names first, since a rule with
// fewer wildcards expresses a more precise production relation.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"wildrule/cmd/wildrule/rulefile"
	"wildrule/pkg/pathutil"
	"wildrule/pkg/pattern"
	"wildrule/pkg/registry"
	"wildrule/pkg/rule"
)

var titleCaser = cases.Title(language.English)

type ruleReport struct {
	r             *rule.Rule
	wildcardCount int
}

func main() {
	rulesPath := flag.String("rules", "", "path to a rule file (TOML) to validate")
	flag.Parse()

	if *rulesPath == "" {
		fmt.Fprintln(os.Stderr, "usage: wildrule-lint -rules <file>")
		os.Exit(1)
	}

	rf, err := rulefile.Load(*rulesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading rule file: %v\n", err)
		os.Exit(1)
	}

	reg := registry.New()
	if err := rulefile.Build(rf, *rulesPath, reg); err != nil {
		fmt.Fprintf(os.Stderr, "invalid rule file: %v\n", err)
		os.Exit(1)
	}

	all := reg.All()
	reports := make([]ruleReport, 0, len(all))
	for _, r := range all {
		reports = append(reports, ruleReport{r: r, wildcardCount: len(r.WildcardNames())})
	}
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].wildcardCount < reports[j].wildcardCount
	})

	fmt.Printf("%d rule(s) in %s, by specificity (fewest wildcards first)\n", len(reports), *rulesPath)
	fmt.Println("====================================================================")
	for _, rep := range reports {
		fmt.Printf("\n%s\n", rep.r.Describe())
		fmt.Printf("  %s: %d\n", titleCaser.String("wildcards"), rep.wildcardCount)
		fmt.Printf("  %s: %d\n", titleCaser.String("priority"), rep.r.Priority())
		if version, ok := rep.r.Version(); ok {
			fmt.Printf("  %s: %s\n", titleCaser.String("version"), version)
		}
		for _, warning := range pathLikeWarnings(rep.r) {
			fmt.Printf("  warning: %s\n", warning)
		}
	}
}

// pathLikeWarnings flags outputs whose rendered preview doesn't look like a
// filesystem path, since an output that isn't one is usually a copy-paste
// mistake rather than an intentional rule.
func pathLikeWarnings(r *rule.Rule) []string {
	var warnings []string
	for _, pf := range r.Outputs().Iter() {
		preview, err := pf.Render(pattern.Binding{}, pattern.RenderOptions{FillMissing: true})
		if err != nil {
			continue
		}
		if !pathutil.IsPathLike(preview) {
			warnings = append(warnings, fmt.Sprintf("output %q does not look like a path", preview))
		}
	}
	return warnings
}
