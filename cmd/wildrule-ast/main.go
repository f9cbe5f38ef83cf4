// Command wildrule-ast dumps the shell syntax tree of a rule's command
// template, for debugging a rule definition's SetCommand validation
// without running the engine.
package main

import (
	"flag"
	"io"
	"os"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

func main() {
	var command string
	flag.StringVar(&command, "command", "", "command template to parse; reads stdin if omitted")
	flag.Parse()

	var src io.Reader = os.Stdin
	if command != "" {
		src = strings.NewReader(command)
	}

	parser := syntax.NewParser(syntax.Variant(syntax.LangBash))
	f, err := parser.Parse(src, "")
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	syntax.DebugPrint(os.Stdout, f)
}
