package main

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// EngineConfig carries ambient settings: never rule bodies, since rule
// construction is a parser concern out of scope for this engine.
type EngineConfig struct {
	Path string `toml:"-"`

	DefaultCPU      int    `toml:"default_cpu"`
	DefaultPriority int    `toml:"default_priority"`
	DebugLogFile    string `toml:"debug_log_file"`
}

// loadEngineConfig parses a single TOML file into an EngineConfig.
func loadEngineConfig(path string) (*EngineConfig, error) {
	cfg := &EngineConfig{Path: path}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findGlobalConfig looks for ~/.config/wildrule.toml.
func findGlobalConfig() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(home, ".config", "wildrule.toml")
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

// findProjectConfig walks up from cwd looking for .wildrule.toml.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	dir := cwd
	for {
		path := filepath.Join(dir, ".wildrule.toml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// configChain returns the ordered list of config paths to load: global,
// then project, then an explicit path if one was given. Later entries
// override earlier ones when merged.
func configChain(explicit string) []string {
	var paths []string
	if p := findGlobalConfig(); p != "" {
		paths = append(paths, p)
	}
	if p := findProjectConfig(); p != "" {
		paths = append(paths, p)
	}
	if explicit != "" {
		paths = append(paths, explicit)
	}
	return paths
}

// mergeEngineConfigs applies each config in order; a later config's
// non-zero field overrides an earlier one's, matching the teacher's
// later-wins merge convention for scalar fields.
func mergeEngineConfigs(configs []*EngineConfig) *EngineConfig {
	merged := &EngineConfig{DefaultCPU: 1, DefaultPriority: 1}
	for _, cfg := range configs {
		if cfg.DefaultCPU != 0 {
			merged.DefaultCPU = cfg.DefaultCPU
		}
		if cfg.DefaultPriority != 0 {
			merged.DefaultPriority = cfg.DefaultPriority
		}
		if cfg.DebugLogFile != "" {
			merged.DebugLogFile = cfg.DebugLogFile
		}
	}
	return merged
}

// loadEngineConfigChain discovers and merges the full config chain.
func loadEngineConfigChain(explicit string) (*EngineConfig, error) {
	var configs []*EngineConfig
	for _, path := range configChain(explicit) {
		cfg, err := loadEngineConfig(path)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return mergeEngineConfigs(configs), nil
}
