// =============================================================================
// FX Booking Transformer - XLSX Parser
// =============================================================================
//
// Reads trade extracts delivered as Excel workbooks. One sheet is read; the
// configured header row names the columns and every non-empty row below it is
// a record.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet is the parsed content of one worksheet.
type Sheet struct {
	// Name is the worksheet that was read.
	Name string

	// Headers are the cleaned column names from the header row.
	Headers []string

	// Rows holds one header -> value map per non-empty data row.
	Rows []map[string]string
}

// ReadSheet reads sheet from the workbook at path. An empty sheet name selects
// the first worksheet. headerRow is 1-indexed; values below 1 mean row 1.
func ReadSheet(path, sheet string, headerRow int) (*Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return readSheet(f, sheet, headerRow)
}

func readSheet(f *excelize.File, sheet string, headerRow int) (*Sheet, error) {
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("workbook has no sheet %q", sheet)
	}
	if headerRow < 1 {
		headerRow = 1
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) < headerRow {
		return nil, fmt.Errorf("sheet %q has no header row %d", sheet, headerRow)
	}

	headers := cleanHeaders(rows[headerRow-1])
	out := &Sheet{Name: sheet, Headers: headers, Rows: []map[string]string{}}

	for _, row := range rows[headerRow:] {
		if isRowEmpty(row) {
			continue
		}
		m := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(row) {
				m[h] = strings.TrimSpace(row[i])
			} else {
				m[h] = ""
			}
		}
		out.Rows = append(out.Rows, m)
	}
	return out, nil
}

func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Column_%d", i+1)
		}
		cleaned[i] = h
	}
	return cleaned
}

func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
