package kernel

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/brel-ge/kcfg-vex/models"
)

// workItem is one entry in the BFS queue (spec.md §4.3): a target to look
// up in a directory's Makefile, an optional subdirectory-gate hint, and the
// seed object the discovery should be attributed back to in edge
// provenance.
type workItem struct {
	target     string
	directory  string
	subdirHint string
	source     string
}

// Trace implements the Tracer (spec.md §4.3, C3): given a path relative to
// srcRoot, it returns the set of CONFIG_* symbols necessary to compile that
// file, by BFS over (target, directory) pairs seeded from the file's own
// object and walked up the directory tree to srcRoot.
func Trace(relFile, srcRoot string) models.TraceResult {
	clean := strings.TrimPrefix(relFile, "./")
	absFile := filepath.Join(srcRoot, clean)

	if _, err := os.Stat(absFile); err != nil {
		return models.TraceResult{
			File:  clean,
			Error: fmt.Sprintf("File not found: %s", absFile),
		}
	}

	obj := objectName(filepath.Base(clean))
	fileDir := filepath.Dir(absFile)

	objects := map[string]struct{}{obj: {}}
	symbols := map[string]struct{}{}
	var edges []models.TraceEdge
	visited := map[string]struct{}{}

	relTarget, err := filepath.Rel(fileDir, filepath.Join(fileDir, obj))
	if err != nil {
		relTarget = obj
	}

	var queue []workItem
	queue = append(queue, workItem{target: obj, directory: fileDir, source: obj})
	if relTarget != obj {
		queue = append(queue, workItem{target: relTarget, directory: fileDir, source: obj})
	}

	// Seed directory-gate tuples by walking ancestors of fileDir up to (but
	// excluding) srcRoot (spec.md §4.3 invariant 5). fileDir was built with
	// filepath.Join(srcRoot, clean), so it carries the same absolute-or-relative
	// shape as srcRoot; compare against srcRoot as given rather than making it
	// absolute, or a relative srcRoot (the normal CLI case) would never compare
	// equal and isStrictlyInside would fail closed on every call.
	child := fileDir
	dir := filepath.Dir(fileDir)
	for isStrictlyInside(dir, srcRoot) {
		rel, err := filepath.Rel(dir, filepath.Join(fileDir, obj))
		if err != nil {
			break
		}
		queue = append(queue, workItem{
			target:     rel,
			directory:  dir,
			subdirHint: filepath.Base(child),
			source:     obj,
		})
		child = dir
		dir = filepath.Dir(dir)
	}

	for len(queue) > 0 {
		batch := queue
		queue = nil

		for _, item := range batch {
			key := item.target + "@" + item.directory
			if _, ok := visited[key]; ok {
				continue
			}
			visited[key] = struct{}{}

			makefilePath := filepath.Join(item.directory, "Makefile")
			foundSymbols, foundContainers, err := ScanFile(makefilePath, item.target, item.subdirHint)
			if err != nil {
				continue
			}

			for sym := range foundSymbols {
				symbols[sym] = struct{}{}
				via := models.EdgeMakefileRule
				if item.subdirHint != "" {
					via = models.EdgeParentDirectoryGate
				}
				edges = append(edges, models.TraceEdge{
					Src: item.source + "@" + fileDir,
					Dst: "CONFIG:" + sym,
					Via: via,
				})
			}

			for container := range foundContainers {
				if _, known := objects[container]; known {
					continue
				}
				objects[container] = struct{}{}
				via := models.EdgeContainerIncludesTarget
				if item.subdirHint != "" {
					via = models.EdgeParentContainerIncludes
				}
				edges = append(edges, models.TraceEdge{
					Src: item.target + "@" + item.directory,
					Dst: container + "@" + item.directory,
					Via: via,
				})
				queue = append(queue, workItem{
					target:    container,
					directory: item.directory,
					source:    item.source,
				})
			}
		}
	}

	return models.TraceResult{
		File:    clean,
		Objects: setToSortedSlice(objects),
		Symbols: setToSortedSlice(symbols),
		Edges:   edges,
	}
}

// objectName replaces a ".c" suffix with ".o", preserving the base name
// (spec.md §3, "Target name").
func objectName(base string) string {
	if strings.HasSuffix(base, ".c") {
		return strings.TrimSuffix(base, ".c") + ".o"
	}
	return base
}

// isStrictlyInside reports whether dir is inside root but not equal to it
// (spec.md §3 invariant 5; directory ascent stops strictly before srcRoot).
// Grounded on the teacher's config.findGitRoot ancestor-walk pattern
// (config/parser.go), generalized from "stop at .git" to "stop at srcRoot".
func isStrictlyInside(dir, root string) bool {
	if dir == root {
		return false
	}
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return false
	}
	if rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	return true
}

// setToSortedSlice flattens a set back to a sorted slice. Uses samber/lo's
// Keys rather than a hand-rolled loop, matching the teacher's reach for lo
// helpers over utility packages throughout analysis/.
func setToSortedSlice(set map[string]struct{}) []string {
	out := lo.Keys(set)
	sort.Strings(out)
	return out
}
