// Package data provides the kernel's default HistoricalDataProvider,
// backed by a TimescaleDB (Postgres) ohlcv_data hypertable. Persistence
// of bars is a collaborator the kernel treats as opaque; this package is
// the one concrete implementation the CLI wires in.
package data

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/ridopark/quantback/internal/types"
	"github.com/ridopark/quantback/pkg/feed"
	"github.com/ridopark/quantback/pkg/logging"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// TimescaleDBProvider provides historical OHLCV data from TimescaleDB.
// Prices and volume are stored as NUMERIC and scanned as strings so they
// round-trip into decimal.Decimal without a float64 detour.
type TimescaleDBProvider struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewTimescaleDBProvider opens and pings a TimescaleDB connection.
func NewTimescaleDBProvider(connectionString string) (*TimescaleDBProvider, error) {
	logger := logging.GetLogger("data-provider")

	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("opening database connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logger.Info().Msg("connected to TimescaleDB")
	return &TimescaleDBProvider{db: db, logger: logger}, nil
}

// newTimescaleDBProviderWithDB is used by tests to inject a sqlmock DB.
func newTimescaleDBProviderWithDB(db *sql.DB) *TimescaleDBProvider {
	return &TimescaleDBProvider{db: db, logger: logging.GetLogger("data-provider")}
}

const barsQuery = `
	SELECT symbol, timestamp, open, high, low, close, volume
	FROM ohlcv_data
	WHERE symbol = $1 AND timeframe = $2 AND timestamp >= $3 AND timestamp <= $4
	ORDER BY timestamp ASC
`

// Bars retrieves historical OHLCV data for symbol in [start, end].
func (p *TimescaleDBProvider) Bars(symbol, timeframe string, start, end time.Time) ([]types.Bar, error) {
	rows, err := p.db.Query(barsQuery, symbol, timeframe, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying ohlcv_data for %s: %w", symbol, err)
	}
	defer rows.Close()

	var bars []types.Bar
	for rows.Next() {
		bar, err := scanBar(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning bar for %s: %w", symbol, err)
		}
		bars = append(bars, bar)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating bars for %s: %w", symbol, err)
	}

	p.logger.Debug().Str("symbol", symbol).Int("bars", len(bars)).Msg("fetched bars")
	return bars, nil
}

// FirstAndLastClose returns the first and last observed close price for
// symbol in [start, end]. ok is false when fewer than two bars exist.
func (p *TimescaleDBProvider) FirstAndLastClose(symbol string, start, end time.Time) (decimal.Decimal, decimal.Decimal, bool, error) {
	rows, err := p.db.Query(`
		SELECT close FROM ohlcv_data
		WHERE symbol = $1 AND timestamp >= $2 AND timestamp <= $3
		ORDER BY timestamp ASC
	`, symbol, start, end)
	if err != nil {
		return decimal.Zero, decimal.Zero, false, fmt.Errorf("querying baseline closes for %s: %w", symbol, err)
	}
	defer rows.Close()

	var closes []decimal.Decimal
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Zero, decimal.Zero, false, fmt.Errorf("scanning baseline close for %s: %w", symbol, err)
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, decimal.Zero, false, fmt.Errorf("parsing baseline close for %s: %w", symbol, err)
		}
		closes = append(closes, d)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, decimal.Zero, false, fmt.Errorf("iterating baseline closes for %s: %w", symbol, err)
	}

	if len(closes) < 2 {
		return decimal.Zero, decimal.Zero, false, nil
	}
	return closes[0], closes[len(closes)-1], true, nil
}

func scanBar(rows *sql.Rows) (types.Bar, error) {
	var bar types.Bar
	var open, high, low, close, volume string
	if err := rows.Scan(&bar.Symbol, &bar.Timestamp, &open, &high, &low, &close, &volume); err != nil {
		return types.Bar{}, err
	}

	var err error
	if bar.Open, err = decimal.NewFromString(open); err != nil {
		return types.Bar{}, fmt.Errorf("parsing open: %w", err)
	}
	if bar.High, err = decimal.NewFromString(high); err != nil {
		return types.Bar{}, fmt.Errorf("parsing high: %w", err)
	}
	if bar.Low, err = decimal.NewFromString(low); err != nil {
		return types.Bar{}, fmt.Errorf("parsing low: %w", err)
	}
	if bar.Close, err = decimal.NewFromString(close); err != nil {
		return types.Bar{}, fmt.Errorf("parsing close: %w", err)
	}
	if bar.Volume, err = decimal.NewFromString(volume); err != nil {
		return types.Bar{}, fmt.Errorf("parsing volume: %w", err)
	}
	bar.Timestamp = bar.Timestamp.UTC()
	return bar, nil
}

// Close closes the database connection.
func (p *TimescaleDBProvider) Close() error {
	p.logger.Info().Msg("closing TimescaleDB connection")
	return p.db.Close()
}

// Verify that TimescaleDBProvider implements the HistoricalDataProvider interface.
var _ feed.HistoricalDataProvider = (*TimescaleDBProvider)(nil)
