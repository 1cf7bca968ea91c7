package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/types"
)

func TestJSONFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Format(&buf, sampleReport()))

	var doc struct {
		Summary struct {
			Constraining string `json:"constraining"`
			Insufficient int    `json:"insufficient"`
		} `json:"summary"`
		Profile struct {
			Cells int64 `json:"cells"`
		} `json:"profile"`
		Results []struct {
			Resource   string  `json:"resource"`
			Ratio      float64 `json:"ratio"`
			Percent    string  `json:"percent"`
			Sufficient bool    `json:"sufficient"`
		} `json:"results"`
		Advisories []struct {
			Kind string `json:"kind"`
		} `json:"advisories"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "gpu_vram", doc.Summary.Constraining)
	assert.Equal(t, 4, doc.Summary.Insufficient)
	assert.Equal(t, int64(10_000_000), doc.Profile.Cells)
	require.Len(t, doc.Results, 7)
	assert.Equal(t, "ram_capacity", doc.Results[6].Resource)
	assert.Equal(t, "320 %", doc.Results[6].Percent)
	assert.True(t, doc.Results[6].Sufficient)
	require.Len(t, doc.Advisories, 1)
	assert.Equal(t, "no_gpu", doc.Advisories[0].Kind)
}

func TestJSONFormatter_EmptyAdvisoriesIsArray(t *testing.T) {
	r := sampleReport()
	r.Advisories = nil

	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Format(&buf, r))
	assert.Contains(t, buf.String(), `"advisories": []`)
}

func TestJSONLFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONLFormatter{}).Format(&buf, sampleReport()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 7)

	var first Row
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, types.ResourceGPUVRAM, first.Resource)
	assert.False(t, first.Sufficient)
}

func TestYAMLFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&YAMLFormatter{}).Format(&buf, sampleReport()))

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Contains(t, doc, "summary")
	assert.Contains(t, doc, "results")

	results, ok := doc["results"].([]any)
	require.True(t, ok)
	assert.Len(t, results, 7)
	assert.Contains(t, buf.String(), "resource: gpu_vram")
}
