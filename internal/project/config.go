// Package project holds the rxgen.yaml configuration and the package
// loading front end of the generator.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the configuration file looked up at the module
// root.
const ConfigFileName = "rxgen.yaml"

// Config is the rxgen.yaml surface.
type Config struct {
	// Packages are go/packages patterns to analyze, relative to root.
	Packages []string `yaml:"packages"`

	// Templates are directories scanned for UI template usage sites.
	Templates []string `yaml:"templates"`

	// Exclude is a list of glob patterns for files the generator skips.
	// "prefix/**" matches the directory and everything beneath it.
	Exclude []string `yaml:"exclude"`

	// KnownDeps names opaque service types whose registration is
	// handled elsewhere; injections of these types do not warn.
	KnownDeps []string `yaml:"known_deps"`

	// Cache toggles the incremental digest cache.
	Cache bool `yaml:"cache"`

	// Report is the path the check command writes its yaml diagnostics
	// report to when --report is set.
	Report string `yaml:"report"`
}

// DefaultConfig is the configuration used when no rxgen.yaml exists.
func DefaultConfig() *Config {
	return &Config{
		Packages: []string{"./..."},
		Cache:    true,
		Report:   "rxgen-report.yaml",
	}
}

// LoadConfig reads rxgen.yaml relative to root, falling back to the
// defaults when the file does not exist.
func LoadConfig(root string) (*Config, error) {
	path := filepath.Join(root, ConfigFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	c := DefaultConfig()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Save writes the configuration to rxgen.yaml under root.
func (c *Config) Save(root string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	path := filepath.Join(root, ConfigFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if len(c.Packages) == 0 {
		return fmt.Errorf("packages must list at least one pattern")
	}
	for _, p := range c.Packages {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("empty package pattern")
		}
	}
	return nil
}

// Excluded reports whether relPath (forward-slash, relative to root)
// matches any exclude pattern. Safe on a nil receiver.
func (c *Config) Excluded(relPath string) bool {
	if c == nil {
		return false
	}
	for _, pattern := range c.Exclude {
		if matchPattern(strings.TrimPrefix(pattern, "./"), relPath) {
			return true
		}
	}
	return false
}

// KnownDepSet returns the known-registration lookup used by record
// building.
func (c *Config) KnownDepSet() map[string]bool {
	out := make(map[string]bool, len(c.KnownDeps))
	for _, d := range c.KnownDeps {
		out[d] = true
	}
	return out
}

// matchPattern reports whether path matches one exclude glob.
//
// "prefix/**" matches the prefix directory itself and every path
// beneath it. All other patterns use filepath.Match semantics (single *
// does not cross /).
func matchPattern(pattern, path string) bool {
	if strings.HasSuffix(pattern, "/**") {
		prefix := strings.TrimSuffix(pattern, "/**")
		return path == prefix || strings.HasPrefix(path, prefix+"/")
	}
	matched, _ := filepath.Match(pattern, path)
	return matched
}
