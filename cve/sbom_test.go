package cve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSBOM_RejectsNonCycloneDX(t *testing.T) {
	_, err := ParseSBOM([]byte(`{"bomFormat": "SPDX"}`))
	require.Error(t, err)
}

func TestParseSBOM_SynthesizesRefFromComponent(t *testing.T) {
	raw := []byte(`{
		"bomFormat": "CycloneDX",
		"serialNumber": "urn:uuid:1234-5678",
		"version": 3,
		"components": [
			{"name": "linux_kernel", "bom-ref": "kernel-ref-1"}
		]
	}`)
	refs, err := ParseSBOM(raw)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "urn:cdx:1234-5678/3#kernel-ref-1", refs[0].Ref)
}

func TestParseSBOM_NoMatchYieldsSyntheticRef(t *testing.T) {
	raw := []byte(`{"bomFormat": "CycloneDX", "components": []}`)
	refs, err := ParseSBOM(raw)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "#kernel", refs[0].Ref)
}

func TestParseSBOM_DefaultVersionAndSerial(t *testing.T) {
	raw := []byte(`{"bomFormat": "CycloneDX", "components": [{"name": "linux_kernel", "purl": "pkg:generic/linux"}]}`)
	refs, err := ParseSBOM(raw)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "urn:cdx:unknown/1#pkg:generic/linux", refs[0].Ref)
}
