package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Class Report 10A 2024-2025",
		Headers: []string{"Rank", "Student", "Average", "Grade"},
		Rows: []map[string]string{
			{"Rank": "1", "Student": "Dara", "Average": "38.00", "Grade": "C"},
			{"Rank": "2", "Student": "Sok, Jr.", "Average": "30.50", "Grade": "D"},
		},
	}
}

func TestCSVExporter(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Rank,Student,Average,Grade", lines[0])
	assert.Equal(t, `2,"Sok, Jr.",30.50,D`, lines[2])

	_, err = NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporter(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestXLSXExporter(t *testing.T) {
	out, err := NewXLSXExporter().Render(sampleDataset())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	title, err := f.GetCellValue(xlsxSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Class Report 10A 2024-2025", title)

	header, err := f.GetCellValue(xlsxSheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "Student", header)

	average, err := f.GetCellValue(xlsxSheet, "C4")
	require.NoError(t, err)
	assert.Equal(t, "38", average)
}

func TestForFormat(t *testing.T) {
	for _, format := range []Format{FormatCSV, FormatPDF, FormatXLSX} {
		renderer, err := ForFormat(format)
		require.NoError(t, err)
		assert.Equal(t, string(format), renderer.Extension())
	}
	_, err := ForFormat("docx")
	assert.Error(t, err)
}
