package cve

import (
	"sort"
	"strings"

	"github.com/brel-ge/kcfg-vex/models"
)

// DeriveVerdict implements the Verdict Deriver (spec.md §4.5, C5): given
// the union of symbols discovered across an advisory's traced files and
// whether that union intersects the configured-enabled set, it returns
// exactly one of the three states with a human-readable detail string.
func DeriveVerdict(advisoryID string, unionSymbols []string, isEnabled bool) models.Verdict {
	sorted := append([]string(nil), unionSymbols...)
	sort.Strings(sorted)

	if len(sorted) == 0 {
		return models.Verdict{
			AdvisoryID: advisoryID,
			State:      models.StateUnderInvestigation,
			Detail:     "Could not infer enabling symbols for listed programFiles",
		}
	}

	joined := strings.Join(sorted, ", ")
	if isEnabled {
		return models.Verdict{
			AdvisoryID: advisoryID,
			State:      models.StateAffected,
			Detail:     "Enabled symbols: " + joined,
			Symbols:    sorted,
		}
	}

	return models.Verdict{
		AdvisoryID:    advisoryID,
		State:         models.StateNotAffected,
		Justification: models.JustificationCodeNotReachable,
		Detail:        "Required symbols present in source but not enabled in provided .config: " + joined,
		Symbols:       sorted,
	}
}

// UnionSymbols merges the symbol sets from multiple trace results into one
// sorted, deduplicated union (spec.md §2, "union across paths").
func UnionSymbols(results ...models.TraceResult) []string {
	set := make(map[string]struct{})
	for _, r := range results {
		for _, s := range r.Symbols {
			set[s] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
