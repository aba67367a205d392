package models

// VexDocument is the CycloneDX 1.4 VEX shape this system emits (spec.md §6).
type VexDocument struct {
	BomFormat       string          `json:"bomFormat"`
	SpecVersion     string          `json:"specVersion"`
	Version         int             `json:"version"`
	SerialNumber    string          `json:"serialNumber"`
	Metadata        VexMetadata     `json:"metadata"`
	Vulnerabilities []VexVuln       `json:"vulnerabilities"`
}

type VexMetadata struct {
	Timestamp string         `json:"timestamp"`
	Component *VexComponent  `json:"component,omitempty"`
}

type VexComponent struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	BomRef  string `json:"bom-ref,omitempty"`
}

type VexVuln struct {
	ID       string        `json:"id"`
	Source   VexSource     `json:"source"`
	Analysis VexAnalysis   `json:"analysis"`
	Affects  []VexAffected `json:"affects"`
}

type VexSource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type VexAnalysis struct {
	State         VerdictState  `json:"state"`
	Detail        string        `json:"detail"`
	Justification Justification `json:"justification,omitempty"`
}

type VexAffected struct {
	Ref string `json:"ref"`
}
