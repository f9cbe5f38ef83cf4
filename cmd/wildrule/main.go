// Command wildrule is a demo CLI: it loads an EngineConfig and a rule
// file, builds a Registry, and resolves a requested target path to its
// producing rule and expansion. It exists to exercise the core engine end
// to end; the DSL parser, scheduler, and subprocess runner it would sit in
// front of in a full build system are out of scope.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"wildrule/cmd/wildrule/rulefile"
	"wildrule/pkg/engine"
	"wildrule/pkg/registry"
)

// Exit codes.
const (
	ExitOK             = 0
	ExitNoProducer     = 1
	ExitAmbiguous      = 2
	ExitError          = 3
)

var debugLog *log.Logger

type multiWriter struct {
	writers []io.Writer
}

func (mw *multiWriter) Write(p []byte) (n int, err error) {
	for _, w := range mw.writers {
		if n, err = w.Write(p); err != nil {
			return n, err
		}
	}
	return len(p), nil
}

func initDebugLog(logPath string) {
	writers := []io.Writer{os.Stderr}
	if logPath != "" {
		if f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644); err == nil {
			writers = append(writers, f)
			fmt.Fprintf(os.Stderr, "[debug] Log file: %s\n", logPath)
		}
	}
	debugLog = log.New(&multiWriter{writers}, "[wildrule] ", log.Ltime)
}

func logDebug(format string, args ...any) {
	if debugLog != nil {
		debugLog.Printf(format, args...)
	}
}

func main() {
	rulesPath := flag.String("rules", "", "path to a rule file (TOML)")
	configPath := flag.String("config", "", "path to an explicit EngineConfig file (adds to the config chain)")
	target := flag.String("target", "", "target path to resolve")
	debugMode := flag.Bool("debug", false, "enable debug logging to stderr and the configured log file")
	flag.Parse()

	if *rulesPath == "" || *target == "" {
		fmt.Fprintln(os.Stderr, "usage: wildrule -rules <file> -target <path> [-config <file>] [-debug]")
		os.Exit(ExitError)
	}

	cfg, err := loadEngineConfigChain(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(ExitError)
	}

	if *debugMode {
		initDebugLog(cfg.DebugLogFile)
	}
	logDebug("config: default_cpu=%d default_priority=%d", cfg.DefaultCPU, cfg.DefaultPriority)

	rf, err := rulefile.Load(*rulesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading rule file: %v\n", err)
		os.Exit(ExitError)
	}

	reg := registry.New()
	if err := rulefile.Build(rf, *rulesPath, reg); err != nil {
		fmt.Fprintf(os.Stderr, "error building rules: %v\n", err)
		os.Exit(ExitError)
	}
	logDebug("loaded %d rule(s) from %s", len(reg.All()), *rulesPath)

	candidates := reg.Producers(*target)
	if len(candidates) == 0 {
		fmt.Fprintf(os.Stderr, "no rule produces %q\n", *target)
		os.Exit(ExitNoProducer)
	}
	if len(candidates) > 1 {
		names := make([]string, len(candidates))
		for i, r := range candidates {
			names[i] = r.Name()
		}
		fmt.Fprintf(os.Stderr, "ambiguous producer for %q: %v\n", *target, names)
		os.Exit(ExitAmbiguous)
	}

	r := candidates[0]
	binding, ok := engine.WildcardsOf(r, *target)
	if !ok {
		fmt.Fprintf(os.Stderr, "rule %q matched as producer but binding extraction failed\n", r.Name())
		os.Exit(ExitError)
	}
	logDebug("rule %s binds %v", r.Name(), binding)

	exp, err := engine.Expand(r, binding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error expanding rule %q: %v\n", r.Name(), err)
		os.Exit(ExitError)
	}

	fmt.Printf("rule: %s\n", r.Name())
	fmt.Printf("outputs: %v\n", exp.Outputs)
	fmt.Printf("inputs: %v\n", exp.Inputs)
	if len(exp.Params) > 0 {
		fmt.Printf("params: %v\n", exp.Params)
	}
	if exp.HasLog {
		fmt.Printf("log: %s\n", exp.Log)
	}
}
