package xlsxparser

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, sheet string, rows [][]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "trades.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReadSheetFirstSheet(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]any{
		{"contract", " comment0 ", "amount1"},
		{"D1", "C", 100},
		{},
		{"D2", "", 250.5},
	})

	sheet, err := ReadSheet(path, "", 1)
	require.NoError(t, err)

	assert.Equal(t, "Sheet1", sheet.Name)
	assert.Equal(t, []string{"contract", "comment0", "amount1"}, sheet.Headers)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, "D1", sheet.Rows[0]["contract"])
	assert.Equal(t, "100", sheet.Rows[0]["amount1"])
	assert.Equal(t, "250.5", sheet.Rows[1]["amount1"])
}

func TestReadSheetNamedSheetAndHeaderRow(t *testing.T) {
	path := writeWorkbook(t, "Trades", [][]any{
		{"Extract generated for 2024-03-28"},
		{"contract", "", "typology"},
		{"D9", "x", "NDF"},
	})

	sheet, err := ReadSheet(path, "Trades", 2)
	require.NoError(t, err)

	assert.Equal(t, []string{"contract", "Column_2", "typology"}, sheet.Headers)
	require.Len(t, sheet.Rows, 1)
	assert.Equal(t, "NDF", sheet.Rows[0]["typology"])
}

func TestReadSheetErrors(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]any{{"contract"}})

	_, err := ReadSheet(path, "Missing", 1)
	assert.Error(t, err)

	_, err = ReadSheet(path, "", 5)
	assert.Error(t, err)

	_, err = ReadSheet(filepath.Join(t.TempDir(), "none.xlsx"), "", 1)
	assert.Error(t, err)
}
