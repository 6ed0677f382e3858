package csvparser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/fx-booking-transformer/internal/config"
)

func settings() config.CSVSettings {
	return config.CSVSettings{Delimiter: ",", HeaderRows: 1, DataStartRow: 2}
}

func TestParseReaderSingleHeader(t *testing.T) {
	in := "contract, comment0 ,amount1\nD1,C,100\n\n , ,\nD2,,200,extra\nD3\n"

	data, err := ParseReader(strings.NewReader(in), settings())
	require.NoError(t, err)

	assert.Equal(t, []string{"contract", "comment0", "amount1"}, data.Headers)
	require.Equal(t, 3, data.RowCount())
	assert.Equal(t, map[string]string{"contract": "D1", "comment0": "C", "amount1": "100"}, data.Rows[0])
	assert.Equal(t, "", data.Rows[1]["comment0"])
	assert.Equal(t, map[string]string{"contract": "D3", "comment0": "", "amount1": ""}, data.Rows[2])
}

func TestParseReaderMultiRowHeader(t *testing.T) {
	in := "Trade,,Value,\nId,Amount,Date,\nT1,10,2024-01-02,x\n"
	s := config.CSVSettings{Delimiter: ",", HeaderRows: 2, DataStartRow: 3}

	data, err := ParseReader(strings.NewReader(in), s)
	require.NoError(t, err)

	assert.Equal(t, []string{"Trade Id", "Amount", "Value Date", "Column_4"}, data.Headers)
	require.Len(t, data.Rows, 1)
	assert.Equal(t, "2024-01-02", data.Rows[0]["Value Date"])
	assert.Equal(t, "x", data.Rows[0]["Column_4"])
}

func TestParseReaderDelimitersAndComments(t *testing.T) {
	in := "# exported\ncontract|amount1\n# skipped\nD1|5\n"
	s := config.CSVSettings{Delimiter: "pipe", HeaderRows: 1, DataStartRow: 2, Comment: "#"}

	data, err := ParseReader(strings.NewReader(in), s)
	require.NoError(t, err)
	assert.Equal(t, []string{"contract", "amount1"}, data.Headers)
	require.Len(t, data.Rows, 1)
	assert.Equal(t, "5", data.Rows[0]["amount1"])

	tab := config.CSVSettings{Delimiter: "\\t", HeaderRows: 1, DataStartRow: 2}
	data, err = ParseReader(strings.NewReader("a\tb\n1\t2\n"), tab)
	require.NoError(t, err)
	assert.Equal(t, "2", data.Rows[0]["b"])
}

func TestParseReaderDataStartRowSkipsRows(t *testing.T) {
	in := "contract\nignored\nD1\n"
	s := config.CSVSettings{Delimiter: ",", HeaderRows: 1, DataStartRow: 3}

	data, err := ParseReader(strings.NewReader(in), s)
	require.NoError(t, err)
	require.Len(t, data.Rows, 1)
	assert.Equal(t, "D1", data.Rows[0]["contract"])
}

func TestParseReaderErrors(t *testing.T) {
	_, err := ParseReader(strings.NewReader(""), settings())
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = ParseReader(strings.NewReader("a\n"), config.CSVSettings{Delimiter: ",", HeaderRows: 2})
	assert.Error(t, err)

	_, err = ParseReader(strings.NewReader("a\n"), config.CSVSettings{Delimiter: "::", HeaderRows: 1})
	assert.Error(t, err)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")
	require.NoError(t, os.WriteFile(path, []byte("contract\nD1\n"), 0o644))

	data, err := Parse(path, settings())
	require.NoError(t, err)
	assert.Equal(t, path, data.SourceFile)
	assert.Equal(t, 1, data.RowCount())

	_, err = Parse(filepath.Join(t.TempDir(), "missing.csv"), settings())
	assert.Error(t, err)
}
