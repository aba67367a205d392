package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/brel-ge/kcfg-vex/cve"
	"github.com/brel-ge/kcfg-vex/kernel"
	"github.com/brel-ge/kcfg-vex/models"
)

var (
	traceJSON    bool
	traceExclude []string
)

var traceCmd = &cobra.Command{
	Use:   "trace <cve.json> <linux-src>",
	Short: "Print the CONFIG_* symbols that build the files named by a CVE advisory",
	Args:  cobra.ExactArgs(2),
	RunE:  runTrace,
}

func init() {
	traceCmd.Flags().BoolVar(&traceJSON, "json", false, "emit the full trace result (objects, symbols, edges) as JSON")
	traceCmd.Flags().StringSliceVar(&traceExclude, "exclude", nil, "doublestar glob(s) of programFiles paths to skip tracing")
}

func runTrace(cmd *cobra.Command, args []string) error {
	advisoryPath, srcRoot := args[0], args[1]

	raw, err := os.ReadFile(advisoryPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", advisoryPath, err)
	}

	files, err := cve.ExtractProgramFiles(raw)
	if err != nil {
		return fmt.Errorf("failed to extract program files: %w", err)
	}
	files = excludeMatching(files, traceExclude)

	traces := make([]models.TraceResult, 0, len(files))
	var allSymbols []string
	for _, f := range files {
		r := kernel.Trace(f, srcRoot)
		traces = append(traces, r)
		allSymbols = append(allSymbols, r.Symbols...)
	}

	if traceJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(traces)
	}

	for _, s := range uniqueSorted(allSymbols) {
		fmt.Println(s)
	}
	return nil
}

// excludeMatching drops any path matching one of the doublestar glob
// patterns. A malformed pattern is skipped rather than aborting the trace
// (patterns are user-supplied CLI input, not a file the system must parse
// correctly to make progress).
func excludeMatching(paths, patterns []string) []string {
	if len(patterns) == 0 {
		return paths
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		excluded := false
		for _, pattern := range patterns {
			if matched, err := doublestar.Match(pattern, p); err == nil && matched {
				excluded = true
				break
			}
		}
		if !excluded {
			out = append(out, p)
		}
	}
	return out
}

func uniqueSorted(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
