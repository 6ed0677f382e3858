// =============================================================================
// FX Booking Transformer - CSV Parser
// =============================================================================
//
// Reads trade extracts exported from the upstream position system. Handles:
//   - Configurable delimiters (comma, pipe, tab, semicolon)
//   - Multi-row headers, merged column by column
//   - A configurable 1-indexed data start row
//   - Comment lines
//
// Values are returned as strings keyed by header. Typing happens later, when
// the fetch layer writes them into records through the field accessors.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/ginjaninja78/fx-booking-transformer/internal/config"
)

// ErrEmpty is returned when the input has no rows at all.
var ErrEmpty = errors.New("CSV file is empty")

// CSVData is a parsed CSV file.
type CSVData struct {
	// Headers are the merged, cleaned column names in file order.
	Headers []string

	// Rows holds one header -> value map per non-empty data row.
	Rows []map[string]string

	// SourceFile is the path the data was read from, when known.
	SourceFile string
}

// RowCount returns the number of data rows.
func (d *CSVData) RowCount() int { return len(d.Rows) }

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads the CSV file at filePath.
func Parse(filePath string, settings config.CSVSettings) (*CSVData, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	data, err := ParseReader(bufio.NewReader(file), settings)
	if err != nil {
		return nil, err
	}
	data.SourceFile = filePath
	return data, nil
}

// ParseReader reads CSV content from r.
//
// PARSING PROCESS:
//  1. Configure the reader from the settings
//  2. Read and merge the header rows
//  3. Read data rows from DataStartRow, skipping blank rows
//  4. Convert each row to a header -> value map
func ParseReader(r io.Reader, settings config.CSVSettings) (*CSVData, error) {
	csvReader := csv.NewReader(r)
	if err := configureReader(csvReader, settings); err != nil {
		return nil, err
	}

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(allRows) == 0 {
		return nil, ErrEmpty
	}

	headers, err := extractHeaders(allRows, settings)
	if err != nil {
		return nil, fmt.Errorf("failed to extract headers: %w", err)
	}

	return &CSVData{
		Headers: headers,
		Rows:    extractDataRows(allRows, headers, settings),
	}, nil
}

// configureReader applies the delimiter and comment settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) error {
	comma, err := delimiterRune(settings.Delimiter)
	if err != nil {
		return err
	}
	reader.Comma = comma

	if settings.Comment != "" {
		c, _ := utf8.DecodeRuneInString(settings.Comment)
		reader.Comment = c
	}

	// Extracts are not strict about column counts or quoting.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	return nil
}

func delimiterRune(delimiter string) (rune, error) {
	switch delimiter {
	case "":
		return ',', nil
	case "\\t", "tab", "TAB":
		return '\t', nil
	case "pipe", "PIPE":
		return '|', nil
	case "semicolon":
		return ';', nil
	}
	if utf8.RuneCountInString(delimiter) != 1 {
		return 0, fmt.Errorf("delimiter %q must be a single character", delimiter)
	}
	r, _ := utf8.DecodeRuneInString(delimiter)
	return r, nil
}

// extractHeaders merges the first HeaderRows rows into one header per column.
//
// MULTI-ROW HEADERS:
//
//	Row 1: "Trade", "", "Value", ""
//	Row 2: "Id",    "Amount", "Date", "Ccy"
//	Result: "Trade Id", "Amount", "Value Date", "Ccy"
func extractHeaders(allRows [][]string, settings config.CSVSettings) ([]string, error) {
	headerRows := settings.HeaderRows
	if headerRows <= 0 {
		return nil, fmt.Errorf("header_rows must be at least 1")
	}
	if len(allRows) < headerRows {
		return nil, fmt.Errorf("file has %d rows, fewer than header_rows %d", len(allRows), headerRows)
	}
	if headerRows == 1 {
		return cleanHeaders(allRows[0]), nil
	}

	maxCols := 0
	for _, row := range allRows[:headerRows] {
		maxCols = max(maxCols, len(row))
	}

	headers := make([]string, maxCols)
	for col := range maxCols {
		var parts []string
		for _, row := range allRows[:headerRows] {
			if col < len(row) {
				if v := strings.TrimSpace(row[col]); v != "" {
					parts = append(parts, v)
				}
			}
		}
		headers[col] = strings.Join(parts, " ")
	}
	return cleanHeaders(headers), nil
}

// cleanHeaders trims headers and names blank ones by position.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	for i, header := range headers {
		header = strings.TrimSpace(header)
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		cleaned[i] = header
	}
	return cleaned
}

// extractDataRows converts rows from DataStartRow onward into maps.
// Missing trailing columns become empty strings.
func extractDataRows(allRows [][]string, headers []string, settings config.CSVSettings) []map[string]string {
	// DataStartRow is 1-indexed.
	start := settings.DataStartRow - 1
	if start < settings.HeaderRows {
		start = settings.HeaderRows
	}
	if start >= len(allRows) {
		return []map[string]string{}
	}

	rows := make([]map[string]string, 0, len(allRows)-start)
	for _, row := range allRows[start:] {
		if isRowEmpty(row) {
			continue
		}
		m := make(map[string]string, len(headers))
		for i, header := range headers {
			if i < len(row) {
				m[header] = strings.TrimSpace(row[i])
			} else {
				m[header] = ""
			}
		}
		rows = append(rows, m)
	}
	return rows
}

func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
