package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/types"
)

func TestPlainFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&PlainFormatter{}).Format(&buf, sampleReport()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 1+7+1)

	assert.Equal(t, "Checking the various possible hardware bottlenecks for a simulation with 10,000,000 cells", lines[0])
	assert.Equal(t, "GPU VRAM (GB)          Actual: 0          Target: 0.83       0 %   [✗]", lines[1])
	assert.Equal(t, "CPU Cores              Actual: 20.0       Target: 100        20 %  [✗]", lines[2])
	assert.Equal(t, "RAM Capacity (GB)      Actual: 64.0       Target: 20.0       320 % [✓]", lines[7])
	assert.Equal(t, "No GPU memory given", lines[8])
}

func TestPlainFormatter_NoAdvisories(t *testing.T) {
	r := sampleReport()
	r.Advisories = nil

	var buf bytes.Buffer
	require.NoError(t, (&PlainFormatter{}).Format(&buf, r))
	assert.Equal(t, 8, strings.Count(buf.String(), "\n"))
}

func TestPlainFormatter_EmptyReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&PlainFormatter{}).Format(&buf, &types.Report{Profile: types.HardwareProfile{Cells: 1}}))
	assert.Equal(t, "Checking the various possible hardware bottlenecks for a simulation with 1 cells\n", buf.String())
}
