package fetch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/fx-booking-transformer/internal/config"
	"github.com/ginjaninja78/fx-booking-transformer/internal/csvparser"
	"github.com/ginjaninja78/fx-booking-transformer/internal/xlsxparser"
)

// Row is one raw record keyed by column name.
type Row map[string]any

// RowSource produces raw rows for a request. Sources may push the request
// filters down; the fetcher filters again after mapping.
type RowSource interface {
	Rows(ctx context.Context, req Request) ([]Row, error)
}

// CSVSource reads rows from a CSV file.
type CSVSource struct {
	Path     string
	Settings config.CSVSettings
}

func (s *CSVSource) Rows(ctx context.Context, _ Request) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := csvparser.Parse(s.Path, s.Settings)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.Path, err)
	}
	return stringRows(data.Rows), nil
}

// XLSXSource reads rows from one sheet of a workbook.
type XLSXSource struct {
	Path      string
	Sheet     string
	HeaderRow int
}

func (s *XLSXSource) Rows(ctx context.Context, _ Request) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sheet, err := xlsxparser.ReadSheet(s.Path, s.Sheet, s.HeaderRow)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}
	return stringRows(sheet.Rows), nil
}

func stringRows(in []map[string]string) []Row {
	rows := make([]Row, len(in))
	for i, m := range in {
		row := make(Row, len(m))
		for k, v := range m {
			row[k] = v
		}
		rows[i] = row
	}
	return rows
}

// NewSource builds the row source an event config describes. path is the
// input file for file based kinds; db is required for postgres.
func NewSource(cfg *config.EventConfig, path string, db Querier) (RowSource, error) {
	kind := strings.ToLower(cfg.Source.Kind)
	if kind == config.SourceFile {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".xlsx", ".xlsm":
			kind = config.SourceXLSX
		default:
			kind = config.SourceCSV
		}
	}

	switch kind {
	case config.SourceCSV:
		return &CSVSource{Path: path, Settings: cfg.CSVSettings}, nil
	case config.SourceXLSX:
		return &XLSXSource{Path: path, Sheet: cfg.Source.Sheet, HeaderRow: cfg.Source.HeaderRow}, nil
	case config.SourcePostgres:
		if db == nil {
			return nil, fmt.Errorf("event %s: postgres source needs a database connection", cfg.InstructionEvent)
		}
		return NewPostgresSource(db, cfg.Source.Query), nil
	}
	return nil, fmt.Errorf("event %s: %w %q", cfg.InstructionEvent, config.ErrUnknownSourceKind, cfg.Source.Kind)
}
