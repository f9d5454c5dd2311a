package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:    "Vaccination card",
		Preamble: []string{"Child: Ana Pérez", "Birth date: 2024-01-01"},
		Headers:  []string{"Vaccine", "Dose", "Date"},
		Rows: []map[string]string{
			{"Vaccine": "BCG", "Dose": "Dose 1", "Date": "2024-01-02"},
			{"Vaccine": "Hepatitis B", "Dose": "Dose 2"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)

	f, err = ParseFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	_, err = ParseFormat("docx")
	assert.Error(t, err)
}

func TestCSVRendersTableOnly(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Vaccine", "Dose", "Date"}, records[0])
	assert.Equal(t, []string{"Hepatitis B", "Dose 2", ""}, records[2])
}

func TestPDFRenders(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestXLSXRenders(t *testing.T) {
	out, err := NewXLSXExporter().Render(sampleDataset())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{xlsxSheet}, f.GetSheetList())
	title, err := f.GetCellValue(xlsxSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Vaccination card", title)
	header, err := f.GetCellValue(xlsxSheet, "A5")
	require.NoError(t, err)
	assert.Equal(t, "Vaccine", header)
	dose, err := f.GetCellValue(xlsxSheet, "B7")
	require.NoError(t, err)
	assert.Equal(t, "Dose 2", dose)
}

func TestRenderRequiresHeaders(t *testing.T) {
	for _, format := range []Format{FormatCSV, FormatPDF, FormatXLSX} {
		r, err := NewRenderer(format)
		require.NoError(t, err)
		_, err = r.Render(Dataset{})
		assert.Error(t, err, format)
	}
}
