// Package cve implements the advisory-facing half of the pipeline: the
// Advisory File Extractor (C4), Verdict Deriver (C5), Advisory Fetcher
// (C6a), Advisory Summary Ingest (C6d), SBOM Loader (C6e), and VEX Emitter
// (C6c) described in SPEC_FULL.md §4.
package cve

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/brel-ge/kcfg-vex/models"
)

// ExtractProgramFiles pulls the programFiles paths out of an advisory's
// containers.cna.affected[*].programFiles[*] shape (spec.md §4.4, C4),
// stripping a leading "./" from each path, deduplicating, and sorting.
// Absent or malformed shapes yield an empty list rather than an error,
// matching the spec's silent-omission policy for structural surprises;
// only input that is not valid JSON at all is reported as an error.
func ExtractProgramFiles(raw []byte) ([]string, error) {
	var doc models.AdvisoryDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, nil
		}
		return nil, models.NewJsonError("failed to parse advisory document", err)
	}
	return extractFromDocument(&doc), nil
}

func extractFromDocument(doc *models.AdvisoryDocument) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, affected := range doc.Containers.CNA.Affected {
		for _, path := range affected.ProgramFiles {
			clean := strings.TrimPrefix(path, "./")
			if clean == "" {
				continue
			}
			if _, ok := seen[clean]; ok {
				continue
			}
			seen[clean] = struct{}{}
			out = append(out, clean)
		}
	}
	sort.Strings(out)
	return out
}

// AdvisoryID extracts the CVE id embedded in an advisory document, when
// present under the common "cveMetadata.cveId" shape. Returns "" if absent;
// callers that already know the id (e.g. from summary ingest) don't need
// this.
func AdvisoryID(raw []byte) (string, error) {
	var probe struct {
		CveMetadata struct {
			CveID string `json:"cveId"`
		} `json:"cveMetadata"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return "", models.NewJsonError("failed to parse advisory id", err)
	}
	return probe.CveMetadata.CveID, nil
}

// programFilesError renders a consistent message for callers that want to
// report extraction failures against a specific advisory id.
func programFilesError(id string, cause error) error {
	return fmt.Errorf("advisory %s: %w", id, cause)
}
