package cve

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/brel-ge/kcfg-vex/models"
)

// BuildOptions carries the ambient, caller-supplied values a VEX document
// needs. The timestamp is always taken from Now and never read from the
// clock inside the library; the serial number is the one value the library
// generates itself (a random v4 UUID) when the caller leaves it empty.
type BuildOptions struct {
	Now          time.Time
	SerialNumber string // optional; a v4 UUID is synthesized when empty
	SpecVersion  string // optional; defaults to "1.4"
	Component    *models.VexComponent
}

// BuildVexDocument assembles one CycloneDX VEX document (spec.md §6) from a
// set of verdicts, partitioned by state by the caller beforehand (one
// document per state, per WriteVexShards below).
func BuildVexDocument(verdicts []models.Verdict, refs []KernelRef, opts BuildOptions) models.VexDocument {
	spec := opts.SpecVersion
	if spec == "" {
		spec = "1.4"
	}
	serial := opts.SerialNumber
	if serial == "" {
		serial = "urn:uuid:" + uuid.New().String()
	}

	doc := models.VexDocument{
		BomFormat:    "CycloneDX",
		SpecVersion:  spec,
		Version:      1,
		SerialNumber: serial,
		Metadata: models.VexMetadata{
			Timestamp: opts.Now.UTC().Format(time.RFC3339),
			Component: opts.Component,
		},
	}

	affects := refsToAffected(refs)
	for _, v := range verdicts {
		doc.Vulnerabilities = append(doc.Vulnerabilities, models.VexVuln{
			ID: v.AdvisoryID,
			Source: models.VexSource{
				Name: "NVD",
				URL:  "https://nvid.nist.gov/vuln/detail/" + v.AdvisoryID,
			},
			Analysis: models.VexAnalysis{
				State:         v.State,
				Detail:        v.Detail,
				Justification: justificationForState(v),
			},
			Affects: affects,
		})
	}
	return doc
}

// justificationForState only ever serializes a justification for
// not_affected verdicts (spec.md §6).
func justificationForState(v models.Verdict) models.Justification {
	if v.State != models.StateNotAffected {
		return ""
	}
	return v.Justification
}

func refsToAffected(refs []KernelRef) []models.VexAffected {
	if len(refs) == 0 {
		return []models.VexAffected{{Ref: "#kernel"}}
	}
	out := make([]models.VexAffected, 0, len(refs))
	for _, r := range refs {
		out = append(out, models.VexAffected{Ref: r.Ref})
	}
	return out
}

// WriteVexShards partitions verdicts by state and writes one
// vex_<state>.json file per non-empty partition into outDir (spec.md §6).
func WriteVexShards(outDir string, verdicts []models.Verdict, refs []KernelRef, opts BuildOptions) error {
	byState := map[models.VerdictState][]models.Verdict{}
	for _, v := range verdicts {
		byState[v.State] = append(byState[v.State], v)
	}

	for _, state := range []models.VerdictState{models.StateAffected, models.StateNotAffected, models.StateUnderInvestigation} {
		group := byState[state]
		if len(group) == 0 {
			continue
		}
		doc := BuildVexDocument(group, refs, opts)
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return models.NewJsonError("failed to marshal VEX document", err)
		}
		path := filepath.Join(outDir, fmt.Sprintf("vex_%s.json", state))
		if err := os.WriteFile(path, data, 0644); err != nil {
			return models.NewIoError("failed to write VEX output "+path, err)
		}
	}
	return nil
}
