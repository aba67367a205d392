package cve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSummary = `{
	"package": [
		{
			"products": [{"product": "linux_kernel"}],
			"issue": [
				{"id": "CVE-2024-1", "status": "Patched"},
				{"id": "CVE-2024-2", "status": "Open"},
				{"id": "not-a-cve", "status": "Open"}
			]
		},
		{
			"products": [{"product": "other_product"}],
			"issue": [
				{"id": "CVE-2024-3", "status": "Open"}
			]
		}
	]
}`

func TestIngestSummary_PartitionsPatchedVsQueued(t *testing.T) {
	result, err := IngestSummary([]byte(sampleSummary), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"CVE-2024-1"}, result.Patched)
	assert.Equal(t, []string{"CVE-2024-2"}, result.ToTrace)
}

func TestIngestSummary_FilterExpression(t *testing.T) {
	result, err := IngestSummary([]byte(sampleSummary), `status != "Patched"`)
	require.NoError(t, err)
	assert.Empty(t, result.Patched)
	assert.Equal(t, []string{"CVE-2024-2"}, result.ToTrace)
}

func TestIngestSummary_InvalidFilterExpression(t *testing.T) {
	_, err := IngestSummary([]byte(sampleSummary), `this is not cel(`)
	require.Error(t, err)
}
