package kernel

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/brel-ge/kcfg-vex/models"
)

// MinSupportedVersion is the oldest kernel line this system's Makefile
// grammar (R1-R5, SPEC_FULL.md §4.1-4.5) has been checked against;
// versions older than this may use Makefile shapes the scanner doesn't
// recognize.
const MinSupportedVersion = "v4.0.0"

// IsAtLeastMinSupported reports whether kv's version is at or above
// MinSupportedVersion, using golang.org/x/mod/semver for the comparison
// since KernelVersion.Semver() already renders a semver-shaped string.
func IsAtLeastMinSupported(kv *models.KernelVersion) bool {
	v := kv.Semver()
	if !semver.IsValid(v) {
		return false
	}
	return semver.Compare(v, MinSupportedVersion) >= 0
}

// DetectVersion reads a kernel source tree's top-level Makefile and
// extracts the VERSION/PATCHLEVEL/SUBLEVEL/EXTRAVERSION tuple
// (SPEC_FULL.md §4.11, C7). It is supplemental: the distilled spec does not
// name this component, but both VEX provenance and advisory version-range
// reasoning benefit from it.
func DetectVersion(srcRoot string) (*models.KernelVersion, error) {
	path := filepath.Join(srcRoot, "Makefile")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open top-level makefile %s: %w", path, err)
	}
	defer f.Close()

	kv := &models.KernelVersion{}
	found := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() && found < 4 {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "VERSION"):
			if v, ok := splitAssignment(line); ok {
				kv.Version = v
				found++
			}
		case strings.HasPrefix(line, "PATCHLEVEL"):
			if v, ok := splitAssignment(line); ok {
				kv.PatchLevel = v
				found++
			}
		case strings.HasPrefix(line, "SUBLEVEL"):
			if v, ok := splitAssignment(line); ok {
				kv.SubLevel = v
				found++
			}
		case strings.HasPrefix(line, "EXTRAVERSION"):
			if v, ok := splitAssignment(line); ok {
				kv.ExtraVersion = v
				found++
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read top-level makefile %s: %w", path, err)
	}
	return kv, nil
}

// splitAssignment parses "NAME = value" / "NAME := value"-shaped lines,
// the form the kernel's top-level Makefile uses for its version fields.
func splitAssignment(line string) (string, bool) {
	idx := strings.IndexByte(line, '=')
	if idx == -1 {
		return "", false
	}
	key := strings.TrimSpace(strings.TrimSuffix(line[:idx], ":"))
	if key == "" {
		return "", false
	}
	value := strings.TrimSpace(line[idx+1:])
	return value, true
}
