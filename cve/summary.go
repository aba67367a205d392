package cve

import (
	"encoding/json"
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/brel-ge/kcfg-vex/models"
)

// IngestSummary implements the Advisory Summary Ingest (spec.md §6, C6d):
// only packages naming a "linux_kernel" product are considered; CVE-
// prefixed issue ids with status "Patched" are filed as patched, everything
// else is queued for tracing.
//
// filterExpr, when non-empty, is a CEL expression (SPEC_FULL.md §4.9)
// evaluated per issue with "id", "status", and "product" bound as string
// variables; an issue is queued only if the expression evaluates true. This
// supplements, but does not replace, the hardcoded "Patched" exclusion.
func IngestSummary(raw []byte, filterExpr string) (models.IngestResult, error) {
	var doc models.AdvisorySummary
	if err := json.Unmarshal(raw, &doc); err != nil {
		return models.IngestResult{}, models.NewJsonError("failed to parse advisory summary", err)
	}

	var filter *celFilter
	if filterExpr != "" {
		f, err := newCelFilter(filterExpr)
		if err != nil {
			return models.IngestResult{}, models.NewInvalidConfigError("invalid --filter expression: " + err.Error())
		}
		filter = f
	}

	var result models.IngestResult
	seen := make(map[string]struct{})

	for _, pkg := range doc.Packages {
		if !hasLinuxKernelProduct(pkg) {
			continue
		}
		product := linuxKernelProductName(pkg)
		for _, issue := range pkg.Issues {
			if !strings.HasPrefix(issue.ID, "CVE-") {
				continue
			}
			if _, dup := seen[issue.ID]; dup {
				continue
			}
			seen[issue.ID] = struct{}{}

			if filter != nil {
				ok, err := filter.Eval(issue.ID, issue.Status, product)
				if err != nil {
					return models.IngestResult{}, models.NewInvalidConfigError("--filter evaluation failed: " + err.Error())
				}
				if !ok {
					continue
				}
			}

			if issue.Status == "Patched" {
				result.Patched = append(result.Patched, issue.ID)
			} else {
				result.ToTrace = append(result.ToTrace, issue.ID)
			}
		}
	}

	return result, nil
}

func hasLinuxKernelProduct(pkg models.SummaryPackage) bool {
	for _, p := range pkg.Products {
		if p.Product == "linux_kernel" {
			return true
		}
	}
	return false
}

func linuxKernelProductName(pkg models.SummaryPackage) string {
	for _, p := range pkg.Products {
		if p.Product == "linux_kernel" {
			return p.Product
		}
	}
	return ""
}

// celFilter wraps a compiled CEL program for the advisory filter predicate
// (SPEC_FULL.md §4.9). Grounded on google/cel-go's standard
// NewEnv/Compile/Program/Eval pipeline; there is no teacher call site for
// cel-go, so this is the home this system's distillation gives it.
type celFilter struct {
	program cel.Program
}

func newCelFilter(expr string) (*celFilter, error) {
	env, err := cel.NewEnv(
		cel.Variable("id", cel.StringType),
		cel.Variable("status", cel.StringType),
		cel.Variable("product", cel.StringType),
	)
	if err != nil {
		return nil, err
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, iss.Err()
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, err
	}
	return &celFilter{program: program}, nil
}

func (f *celFilter) Eval(id, status, product string) (bool, error) {
	out, _, err := f.program.Eval(map[string]interface{}{
		"id":      id,
		"status":  status,
		"product": product,
	})
	if err != nil {
		return false, err
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, nil
	}
	return result, nil
}
