// Package rulefile is a thin TOML surface for declaring rules for the
// demo CLI. It is not the DSL parser spec.md places out of scope: there is
// no expression language and no control flow, only templates, flags,
// priority, and resources turned into Rule construction-API calls.
package rulefile

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"wildrule/pkg/pattern"
	"wildrule/pkg/registry"
	"wildrule/pkg/rule"
)

// File is the top-level TOML document: an ordered list of rule
// declarations under the "rule" table array.
type File struct {
	Rules []Decl `toml:"rule"`
}

// Decl is one [[rule]] entry.
type Decl struct {
	Name      string         `toml:"name"`
	Outputs   []string       `toml:"outputs"`
	Inputs    []string       `toml:"inputs"`
	Params    []string       `toml:"params"`
	Log       string         `toml:"log"`
	Command   string         `toml:"command"`
	Priority  int            `toml:"priority"`
	Resources map[string]int `toml:"resources"`
	Version   string         `toml:"version"`
	Message   string         `toml:"message"`
	Docstring string         `toml:"docstring"`
	Temp      []string       `toml:"temp"`      // output templates (verbatim) carrying the temp flag
	Protected []string       `toml:"protected"` // output templates carrying the protected flag
	Dynamic   []string       `toml:"dynamic"`   // input or output templates carrying the dynamic flag
}

// Load parses a rule file from path.
func Load(path string) (*File, error) {
	var f File
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("rulefile: %w", err)
	}
	return &f, nil
}

// Build constructs a Rule for every declaration and adds it to reg. The
// rule's source_location is (path, declaration index + 1), since a TOML
// table array has no native line tracking.
func Build(f *File, path string, reg *registry.Registry) error {
	for i, d := range f.Rules {
		r, err := buildOne(d, rule.Location{File: path, Line: i + 1})
		if err != nil {
			return err
		}
		if err := reg.Add(r); err != nil {
			return err
		}
	}
	return nil
}

func buildOne(d Decl, loc rule.Location) (*rule.Rule, error) {
	r := rule.New(d.Name, loc)

	outputs := make([]any, 0, len(d.Outputs))
	for _, tmpl := range d.Outputs {
		outputs = append(outputs, tagItem(tmpl, d))
	}
	if err := r.SetOutputs(outputs, nil); err != nil {
		return nil, err
	}

	inputs := make([]any, 0, len(d.Inputs))
	for _, tmpl := range d.Inputs {
		inputs = append(inputs, tagItem(tmpl, d))
	}
	if err := r.SetInputs(inputs, nil); err != nil {
		return nil, err
	}

	if len(d.Params) > 0 {
		params := make([]any, 0, len(d.Params))
		for _, tmpl := range d.Params {
			params = append(params, tmpl)
		}
		if err := r.SetParams(params, nil); err != nil {
			return nil, err
		}
	}

	if d.Log != "" {
		if err := r.SetLog(d.Log); err != nil {
			return nil, err
		}
	}
	if d.Command != "" {
		if err := r.SetCommand(d.Command); err != nil {
			return nil, err
		}
	}
	if d.Priority != 0 {
		r.SetPriority(d.Priority)
	}
	for k, v := range d.Resources {
		r.SetResource(k, v)
	}
	if d.Version != "" {
		r.SetVersion(d.Version)
	}
	if d.Message != "" {
		r.SetMessage(d.Message)
	}
	if d.Docstring != "" {
		r.SetDocstring(d.Docstring)
	}

	return r, nil
}

func tagItem(tmpl string, d Decl) any {
	var item any = tmpl
	if contains(d.Dynamic, tmpl) {
		item = pattern.Dynamic(item)
	}
	if contains(d.Temp, tmpl) {
		item = pattern.Temp(item)
	}
	if contains(d.Protected, tmpl) {
		item = pattern.Protected(item)
	}
	return item
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
