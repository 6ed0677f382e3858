package fetch

import (
	"context"
	"database/sql/driver"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ginjaninja78/fx-booking-transformer/internal/config"
)

// Querier is the part of a pgx pool or connection the postgres source uses.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresSource runs the event's staging query.
type PostgresSource struct {
	db    Querier
	query string
}

func NewPostgresSource(db Querier, query string) *PostgresSource {
	return &PostgresSource{db: db, query: query}
}

// Rows runs the query with the request as named arguments and returns the
// rows keyed by column name. Unset request fields are passed as NULL.
func (s *PostgresSource) Rows(ctx context.Context, req Request) ([]Row, error) {
	rows, err := s.db.Query(ctx, s.query, queryArgs(req))
	if err != nil {
		return nil, fmt.Errorf("query aggregated records: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var out []Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read aggregated record: %w", err)
		}
		row := make(Row, len(fields))
		for i, fd := range fields {
			if i >= len(values) {
				break
			}
			v, err := normalize(values[i])
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", fd.Name, err)
			}
			row[fd.Name] = v
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query aggregated records: %w", err)
	}
	return out, nil
}

func queryArgs(req Request) pgx.NamedArgs {
	args := pgx.NamedArgs{
		"business_date":  nil,
		"trade_ids":      nil,
		"typology":       nil,
		"input_currency": nil,
	}
	if !req.BusinessDate.IsZero() {
		args["business_date"] = req.BusinessDate
	}
	if len(req.ExternalTradeIDs) > 0 {
		args["trade_ids"] = req.ExternalTradeIDs
	}
	if req.HedgeInstrumentType != "" {
		args["typology"] = string(req.HedgeInstrumentType)
	}
	if req.InputCurrency != "" {
		args["input_currency"] = req.InputCurrency
	}
	return args
}

// normalize turns driver values into types the field accessors coerce.
func normalize(v any) (any, error) {
	switch x := v.(type) {
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int:
		return int64(x), nil
	case float32:
		return float64(x), nil
	case []byte:
		return string(x), nil
	case driver.Valuer:
		dv, err := x.Value()
		if err != nil {
			return nil, err
		}
		return normalize(dv)
	}
	return v, nil
}

// NewPostgresPool opens a pool for cfg and checks it can connect.
func NewPostgresPool(ctx context.Context, cfg config.PostgresConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}
