package kernel

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// DotConfig is a parsed kernel .config file (spec.md §3 "Configuration",
// §6 "DotConfig input"). Grounded on original_source/src/kernel/config.rs.
type DotConfig struct {
	values map[string]string
}

var notSetPattern = regexp.MustCompile(`^#\s*(CONFIG_[A-Z0-9_]+)\s+is not set$`)
var assignPattern = regexp.MustCompile(`^(CONFIG_[A-Z0-9_]+)=(.*)$`)

// LoadDotConfig reads a .config file line by line, recording "y"/"m"/"n" or
// an arbitrary string value per symbol (spec.md §6).
func LoadDotConfig(path string) (*DotConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dotconfig %s: %w", path, err)
	}
	defer f.Close()

	cfg := &DotConfig{values: make(map[string]string)}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if m := notSetPattern.FindStringSubmatch(line); m != nil {
			cfg.values[m[1]] = "n"
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		if m := assignPattern.FindStringSubmatch(line); m != nil {
			cfg.values[m[1]] = m[2]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dotconfig %s: %w", path, err)
	}
	return cfg, nil
}

// IsEnabled reports whether sym is enabled: always for "y", or for "m" when
// includeModules is true (spec.md §6).
func (c *DotConfig) IsEnabled(sym string, includeModules bool) bool {
	if c == nil {
		return false
	}
	v, ok := c.values[sym]
	if !ok {
		return false
	}
	if v == "y" {
		return true
	}
	return v == "m" && includeModules
}

// Value returns the raw recorded value for sym, and whether it was present
// at all.
func (c *DotConfig) Value(sym string) (string, bool) {
	if c == nil {
		return "", false
	}
	v, ok := c.values[sym]
	return v, ok
}

// EnabledSet materializes the set of enabled symbols once, for cheap
// repeated intersection against many trace unions (SPEC_FULL.md §4.6).
func (c *DotConfig) EnabledSet(includeModules bool) map[string]struct{} {
	out := make(map[string]struct{})
	if c == nil {
		return out
	}
	for sym, v := range c.values {
		if v == "y" || (v == "m" && includeModules) {
			out[sym] = struct{}{}
		}
	}
	return out
}

// IntersectsAny reports whether any symbol in symbols is enabled.
func (c *DotConfig) IntersectsAny(symbols []string, includeModules bool) bool {
	if c == nil {
		return false
	}
	for _, s := range symbols {
		if c.IsEnabled(s, includeModules) {
			return true
		}
	}
	return false
}
