package models

// KernelVersion is the {VERSION, PATCHLEVEL, SUBLEVEL, EXTRAVERSION} tuple
// read from a kernel source tree's top-level Makefile (SPEC_FULL.md §4.11,
// §3). It is supplemental to spec.md: the distilled spec never names it,
// but VEX output benefits from recording which kernel was scanned.
type KernelVersion struct {
	Version      string
	PatchLevel   string
	SubLevel     string
	ExtraVersion string
}

// String renders "MAJOR.MINOR.PATCH[EXTRA]", e.g. "6.1.55-rt".
func (k KernelVersion) String() string {
	s := k.Version + "." + k.PatchLevel + "." + k.SubLevel
	if k.ExtraVersion != "" {
		s += k.ExtraVersion
	}
	return s
}

// Semver renders the same tuple in the "vX.Y.Z" shape golang.org/x/mod/semver
// expects. EXTRAVERSION is always dropped, whatever its content.
func (k KernelVersion) Semver() string {
	return "v" + k.Version + "." + k.PatchLevel + "." + k.SubLevel
}
