package cve

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/brel-ge/kcfg-vex/models"
)

// KernelRef identifies a scanned kernel component in the SBOM, synthesized
// to the "urn:cdx:<serial>/<version>#<bref>" shape (spec.md §6).
type KernelRef struct {
	Ref string
}

// ParseSBOM loads an optional CycloneDX SBOM and synthesizes one KernelRef
// per "linux_kernel"-named component (spec.md §6, C6e). If bomFormat is not
// "CycloneDX", the document is rejected outright (this is a structural
// rejection per spec.md §7's InvalidConfig policy, not a per-advisory
// failure). If no component named "linux_kernel" is found, a single
// synthetic "#kernel" ref is emitted.
func ParseSBOM(raw []byte) ([]KernelRef, error) {
	var doc models.SBOMDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, models.NewJsonError("failed to parse SBOM", err)
	}
	if doc.BomFormat != "CycloneDX" {
		return nil, models.NewInvalidConfigError(fmt.Sprintf("unsupported bomFormat %q, expected CycloneDX", doc.BomFormat))
	}

	serial := "unknown"
	if doc.SerialNumber != "" {
		parts := strings.Split(doc.SerialNumber, ":")
		serial = parts[len(parts)-1]
	}
	version := doc.Version
	if version == 0 {
		version = 1
	}

	var refs []KernelRef
	for _, comp := range doc.Components {
		if comp.Name != "linux_kernel" {
			continue
		}
		bref := firstNonEmpty(comp.BomRef, comp.BomRef2, comp.Purl, comp.Name)
		refs = append(refs, KernelRef{
			Ref: fmt.Sprintf("urn:cdx:%s/%d#%s", serial, version, bref),
		})
	}

	if len(refs) == 0 {
		refs = append(refs, KernelRef{Ref: "#kernel"})
	}
	return refs, nil
}

func firstNonEmpty(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}
