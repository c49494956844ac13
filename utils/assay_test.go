package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatFinalResult(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{916.6, "916.6"},
		{999.95, "1000.0"},
		{750, "750.0"},
		{-1, "REJ"},
		{-2, "REDO"},
		{-3, "LOW"},
		{0, ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, FormatFinalResult(tc.value), "value %v", tc.value)
	}
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "Wong_Trading", SanitizeFilename("Wong/Trading"))
	assert.Equal(t, "a_b_c", SanitizeFilename(`a\b:c`))
	assert.Equal(t, "report", SanitizeFilename(" report. "))
	assert.Equal(t, "", SanitizeFilename("..."))
}

func TestBuildPDFFilename(t *testing.T) {
	assert.Equal(t, "Wong Trading_A1.pdf", BuildPDFFilename("Wong Trading", []string{"A1"}))
	assert.Equal(t, "Wong Trading_A1_A2.pdf", BuildPDFFilename("Wong Trading", []string{"A1", "A2"}))
	assert.Equal(t, "Wong Trading.pdf", BuildPDFFilename("Wong Trading", nil))
	assert.Equal(t, "assay_A1.pdf", BuildPDFFilename("", []string{"A1"}))
	assert.Equal(t, "Wong Trading_A1.pdf", BuildPDFFilename("Wong Trading", []string{"", "A1"}))
}
