// Package kernel implements the Kernel Configuration Tracer: the Makefile
// Reader (C1), Target Matcher (C2), Tracer (C3), DotConfig Loader (C6b),
// and Kernel Version Detector (C7) described in SPEC_FULL.md §4.
//
// Grounded on original_source/src/kernel/tracer.rs for the rule semantics,
// and on the teacher's internal/source/reader.go for the cached,
// line-oriented file reading idiom.
package kernel

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// ReadMakefile loads a Makefile and folds backslash line continuations,
// returning an ordered sequence of logical lines (spec.md §4.1, C1).
//
// A missing file is not an error: it returns an empty sequence, matching
// the contract that directories without a Makefile simply contribute
// nothing to a trace.
func ReadMakefile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open makefile %s: %w", path, err)
	}
	defer f.Close()

	var raw []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		raw = append(raw, rtrim(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read makefile %s: %w", path, err)
	}

	var folded []string
	i := 0
	for i < len(raw) {
		line := raw[i]
		for strings.HasSuffix(line, "\\") && i+1 < len(raw) {
			line = line[:len(line)-1] + " " + raw[i+1]
			line = rtrim(line)
			i++
		}
		folded = append(folded, line)
		i++
	}

	var out []string
	for _, line := range folded {
		line = collapseWhitespace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out, nil
}

func rtrim(s string) string {
	return strings.TrimRight(s, " \t\r")
}

var whitespaceRun = regexp.MustCompile(`\s+`)

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// containerNamePattern matches a composite-object container name
// (spec.md §3, "Container name").
var containerNamePattern = `[A-Za-z0-9_-]+`

// Scan implements the Target Matcher (spec.md §4.2, C2): given a Makefile's
// logical lines, a target name to search for, and an optional subdirectory
// hint, it extracts the CONFIG_* symbols and composite-object containers
// that the five recognized rule shapes bind to that target.
//
// subdirHint, when non-empty, enables R5 (the directory-gate rule) and is
// also folded into the early-out substring check.
func Scan(lines []string, target string, subdirHint string) (symbols map[string]struct{}, containers map[string]struct{}) {
	symbols = make(map[string]struct{})
	containers = make(map[string]struct{})

	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, target) && subdirHint == "" {
		return symbols, containers
	}

	escaped := regexp.QuoteMeta(target)
	boundary := `(?:^|[^A-Za-z0-9_./-])` + escaped + `(?:[^A-Za-z0-9_./-]|$)`

	// R1: obj-$(CONFIG_FOO) += ... T ...
	r1, err1 := regexp.Compile(`obj-\$\(CONFIG_([A-Z0-9_]+)\)\s*[:+]?=.*` + boundary)
	// R2: C-y += ... T ... | C-m += ... T ... | C-$(CONFIG_BAR) += ... T ...
	r2y, err2y := regexp.Compile(`(` + containerNamePattern + `)-[ym]\s*[:+]?=.*` + boundary)
	r2cfg, err2cfg := regexp.Compile(`(` + containerNamePattern + `)-\$\(CONFIG_([A-Z0-9_]+)\)\s*[:+]?=.*` + boundary)
	// R3: C-objs := ... T ... | C-objs += ... T ...
	r3, err3 := regexp.Compile(`(` + containerNamePattern + `)-objs\s*[:+]=.*` + boundary)
	// R4: C-objs-$(CONFIG_BAZ) := ... T ... | ... += ... T ...
	r4, err4 := regexp.Compile(`(` + containerNamePattern + `)-objs-\$\(CONFIG_([A-Z0-9_]+)\)\s*[:+]?=.*` + boundary)

	for _, line := range lines {
		if err1 == nil {
			for _, m := range r1.FindAllStringSubmatch(line, -1) {
				symbols["CONFIG_"+m[1]] = struct{}{}
			}
		}
		if err2y == nil {
			for _, m := range r2y.FindAllStringSubmatch(line, -1) {
				containers[m[1]+".o"] = struct{}{}
			}
		}
		if err2cfg == nil {
			for _, m := range r2cfg.FindAllStringSubmatch(line, -1) {
				containers[m[1]+".o"] = struct{}{}
				symbols["CONFIG_"+m[2]] = struct{}{}
			}
		}
		if err3 == nil {
			for _, m := range r3.FindAllStringSubmatch(line, -1) {
				containers[m[1]+".o"] = struct{}{}
			}
		}
		if err4 == nil {
			for _, m := range r4.FindAllStringSubmatch(line, -1) {
				containers[m[1]+".o"] = struct{}{}
				symbols["CONFIG_"+m[2]] = struct{}{}
			}
		}
	}

	if subdirHint != "" {
		subdirEscaped := regexp.QuoteMeta(subdirHint)
		subdirBoundary := `(?:^|[^A-Za-z0-9_./-])` + subdirEscaped + `/(?:[^A-Za-z0-9_./-]|$)`
		r5, err5 := regexp.Compile(`obj-\$\(CONFIG_([A-Z0-9_]+)\)\s*[:+]?=.*` + subdirBoundary)
		if err5 == nil {
			for _, line := range lines {
				for _, m := range r5.FindAllStringSubmatch(line, -1) {
					symbols["CONFIG_"+m[1]] = struct{}{}
				}
			}
		}
	}

	return symbols, containers
}

// ScanFile is a convenience wrapper combining ReadMakefile and Scan for a
// single Makefile path, returning empty sets (not an error) when the
// Makefile does not exist.
func ScanFile(makefilePath, target, subdirHint string) (map[string]struct{}, map[string]struct{}, error) {
	lines, err := ReadMakefile(makefilePath)
	if err != nil {
		return nil, nil, err
	}
	symbols, containers := Scan(lines, target, subdirHint)
	return symbols, containers, nil
}
