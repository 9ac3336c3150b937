package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRow struct {
	Date   string `csv:"Date"`
	Course string `csv:"Course"`
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render([]sampleRow{{Date: "2025-05-12", Course: "CSC101"}})
	require.NoError(t, err)
	assert.Equal(t, "Date,Course\n2025-05-12,CSC101\n", string(out))
}

func TestCSVExporterRenderEmptyKeepsHeader(t *testing.T) {
	out, err := NewCSVExporter().Render([]sampleRow{})
	require.NoError(t, err)
	assert.Equal(t, "Date,Course\n", string(out))
}

func TestCSVExporterRejectsNonSlice(t *testing.T) {
	_, err := NewCSVExporter().Render(sampleRow{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	data := Dataset{
		Headers: []string{"Date", "Course"},
		Rows:    []map[string]string{{"Date": "2025-05-12", "Course": "CSC101"}},
	}
	out, err := NewPDFExporter().Render(data, "Exam Timetable", "12 May 2025 - 23 May 2025")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestPDFExporterRequiresHeaders(t *testing.T) {
	_, err := NewPDFExporter().Render(Dataset{}, "x", "")
	assert.Error(t, err)
}
