package models

import "regexp"

// SymbolPattern is the syntactic shape every discovered CONFIG_* symbol
// must satisfy (spec.md §3 invariant 1).
var SymbolPattern = regexp.MustCompile(`^CONFIG_[A-Z0-9_]+$`)

// EdgeKind enumerates the four provenance kinds a trace edge can carry
// (spec.md §4.3): a symbol found by a rule in the file's own directory or
// by a parent directory gate, and a container found in the file's own
// directory or through a parent-directory scan.
type EdgeKind string

const (
	EdgeMakefileRule            EdgeKind = "makefile rule"
	EdgeParentDirectoryGate     EdgeKind = "parent directory gate"
	EdgeContainerIncludesTarget EdgeKind = "container includes target"
	EdgeParentContainerIncludes EdgeKind = "parent container includes target"
)

// TraceEdge is one inferred dependency discovered during a trace, in BFS
// discovery order (spec.md §3, "Trace edge").
type TraceEdge struct {
	Src string   `json:"src"`
	Dst string   `json:"dst"`
	Via EdgeKind `json:"via"`
}

// TraceResult is the output of tracing a single source file (spec.md §3,
// "Trace result", and invariant 6: Error != "" implies every other field is
// empty).
type TraceResult struct {
	File    string      `json:"file"`
	Objects []string    `json:"objects"`
	Symbols []string    `json:"symbols"`
	Edges   []TraceEdge `json:"edges"`
	Error   string      `json:"error,omitempty"`
}

// IsValid checks invariants 1, 2, and 6 from spec.md §3. It exists purely
// for tests; production code never needs to call it.
func (r *TraceResult) IsValid() bool {
	if r.Error != "" {
		return len(r.Objects) == 0 && len(r.Symbols) == 0 && len(r.Edges) == 0
	}
	for _, s := range r.Symbols {
		if !SymbolPattern.MatchString(s) {
			return false
		}
	}
	for _, o := range r.Objects {
		if len(o) < 2 || o[len(o)-2:] != ".o" {
			return false
		}
	}
	return true
}
