package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateFormatter_Format(t *testing.T) {
	tests := []struct {
		name     string
		template string
		want     string
	}{
		{
			name:     "constraining resource",
			template: `{{.Summary.Constraining}} {{len .Rows}}`,
			want:     "gpu_vram 7",
		},
		{
			name:     "value and percent",
			template: `{{with index .Rows 4}}{{value .Actual}} {{percent .Ratio}} {{mark .Sufficient}}{{end}}`,
			want:     "60.5 151 % [✓]",
		},
		{
			name:     "cells and bytes",
			template: `{{cells .Profile.Cells}} {{bytes 1500000000}}`,
			want:     "10,000,000 1.5 GB",
		},
		{
			name:     "report methods",
			template: `{{.Insufficient}}`,
			want:     "4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, NewTemplateFormatter(tt.template).Format(&buf, sampleReport()))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestTemplateFormatter_Default(t *testing.T) {
	f, err := Get("template")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, sampleReport()))
	assert.Contains(t, buf.String(), "gpu_vram\t0 %\t[✗]\n")
}

func TestTemplateFormatter_SetTemplate(t *testing.T) {
	f := NewTemplateFormatter("one")
	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, sampleReport()))

	f.SetTemplate("two")
	buf.Reset()
	require.NoError(t, f.Format(&buf, sampleReport()))
	assert.Equal(t, "two", buf.String())
}

func TestTemplateFormatter_ParseError(t *testing.T) {
	var buf bytes.Buffer
	err := NewTemplateFormatter("{{.Nope").Format(&buf, sampleReport())
	assert.Error(t, err)
}
