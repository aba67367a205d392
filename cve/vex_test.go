package cve

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brel-ge/kcfg-vex/models"
)

// TestVexRoundTrip is scenario S6 (spec.md §8): building a VEX document from
// two entries and reparsing the JSON preserves bomFormat, specVersion,
// version, both vulnerability ids, and the presence/absence of
// justification.
func TestVexRoundTrip(t *testing.T) {
	verdicts := []models.Verdict{
		{
			AdvisoryID:    "CVE-2024-1",
			State:         models.StateNotAffected,
			Justification: models.Justification("vulnerable_code_not_present"),
			Detail:        "not reachable",
		},
		{
			AdvisoryID: "CVE-2024-2",
			State:      models.StateUnderInvestigation,
			Detail:     "unknown",
		},
	}

	doc := BuildVexDocument(verdicts, nil, BuildOptions{Now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)})

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var reparsed models.VexDocument
	require.NoError(t, json.Unmarshal(data, &reparsed))

	assert.Equal(t, "CycloneDX", reparsed.BomFormat)
	assert.Equal(t, "1.4", reparsed.SpecVersion)
	assert.Equal(t, 1, reparsed.Version)
	require.Len(t, reparsed.Vulnerabilities, 2)

	ids := []string{reparsed.Vulnerabilities[0].ID, reparsed.Vulnerabilities[1].ID}
	assert.ElementsMatch(t, []string{"CVE-2024-1", "CVE-2024-2"}, ids)

	var rawByID map[string]json.RawMessage
	var arr []json.RawMessage
	require.NoError(t, json.Unmarshal(mustField(t, data, "vulnerabilities"), &arr))
	rawByID = make(map[string]json.RawMessage)
	for _, item := range arr {
		var probe struct {
			ID       string          `json:"id"`
			Analysis json.RawMessage `json:"analysis"`
		}
		require.NoError(t, json.Unmarshal(item, &probe))
		rawByID[probe.ID] = probe.Analysis
	}

	assert.Contains(t, string(rawByID["CVE-2024-1"]), "justification")
	assert.NotContains(t, string(rawByID["CVE-2024-2"]), "justification")
}

func mustField(t *testing.T, raw []byte, field string) json.RawMessage {
	t.Helper()
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &doc))
	return doc[field]
}

func TestBuildVexDocument_SynthesizesSerialNumberWhenAbsent(t *testing.T) {
	doc := BuildVexDocument(nil, nil, BuildOptions{Now: time.Now()})
	assert.Contains(t, doc.SerialNumber, "urn:uuid:")
}

func TestBuildVexDocument_NoRefsDefaultsToSyntheticKernelRef(t *testing.T) {
	verdicts := []models.Verdict{{AdvisoryID: "CVE-2024-9", State: models.StateAffected}}
	doc := BuildVexDocument(verdicts, nil, BuildOptions{Now: time.Now()})
	require.Len(t, doc.Vulnerabilities, 1)
	require.Len(t, doc.Vulnerabilities[0].Affects, 1)
	assert.Equal(t, "#kernel", doc.Vulnerabilities[0].Affects[0].Ref)
}
