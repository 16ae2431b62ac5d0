package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"TradeAgent/internal/domain/models"
	domrepo "TradeAgent/internal/domain/repository"
	pkgch "TradeAgent/pkg/clickhouse"
	applogger "TradeAgent/pkg/logger"
)

// CHCandleStore persists OHLCV bars in ClickHouse. It implements both
// CandleStorage (write path, ingest) and CandleSource (read path,
// analysis). The table uses ReplacingMergeTree keyed on
// (symbol, tf, open_time) so re-ingesting a bar overwrites it.
type CHCandleStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHCandleStore(ch *pkgch.Client) *CHCandleStore {
	return &CHCandleStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHCandleStore) SetLogger(l *applogger.Logger) { s.l = l }

const candlesDDL = `
CREATE TABLE IF NOT EXISTS candles (
    symbol     LowCardinality(String),
    tf         LowCardinality(String),
    open_time  DateTime64(3, 'UTC'),
    open       Float64,
    high       Float64,
    low        Float64,
    close      Float64,
    volume     Float64
) ENGINE = ReplacingMergeTree
ORDER BY (symbol, tf, open_time)
`

func (s *CHCandleStore) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, candlesDDL); err != nil {
		return fmt.Errorf("init candles table: %w", err)
	}
	return nil
}

func (s *CHCandleStore) Store(ctx context.Context, symbol string, tf domrepo.Timeframe, c *models.Candle) error {
	const q = `INSERT INTO candles (symbol, tf, open_time, open, high, low, close, volume) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		symbol, string(tf), c.OpenTime,
		c.Open, c.High, c.Low, c.Close, c.Volume,
	)
	if err != nil {
		return fmt.Errorf("store candle: %w", err)
	}
	return nil
}

func (s *CHCandleStore) StoreBatch(ctx context.Context, symbol string, tf domrepo.Timeframe, candles []models.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	// Multi-row VALUES inserts, chunked to bound statement size.
	const chunkSize = 2000
	for start := 0; start < len(candles); start += chunkSize {
		end := start + chunkSize
		if end > len(candles) {
			end = len(candles)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*8)
		for _, c := range candles[start:end] {
			if c.OpenTime.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				symbol, string(tf), c.OpenTime,
				c.Open, c.High, c.Low, c.Close, c.Volume,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf(
			"INSERT INTO candles (symbol, tf, open_time, open, high, low, close, volume) VALUES %s",
			strings.Join(values, ","),
		)
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse candle batch insert error",
					applogger.String("symbol", symbol),
					applogger.String("tf", string(tf)),
					applogger.Int("rows", len(values)),
					applogger.Error(err),
				)
			}
			return fmt.Errorf("store candle batch: %w", err)
		}
	}
	return nil
}

func (s *CHCandleStore) Query(ctx context.Context, symbol string, tf domrepo.Timeframe, from, to time.Time, limit int) ([]models.Candle, error) {
	const q = `
        SELECT open_time, open, high, low, close, volume
        FROM candles FINAL
        WHERE symbol = ? AND tf = ? AND open_time >= ? AND open_time <= ?
        ORDER BY open_time ASC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, q, symbol, string(tf), from, to, limit)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse candle query error",
				applogger.String("symbol", symbol),
				applogger.String("tf", string(tf)),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("query candles: %w", err)
	}
	defer rows.Close()
	return scanCandles(rows)
}

func (s *CHCandleStore) LatestN(ctx context.Context, symbol string, tf domrepo.Timeframe, n int) ([]models.Candle, error) {
	start := time.Now()
	const q = `
        SELECT open_time, open, high, low, close, volume
        FROM candles FINAL
        WHERE symbol = ? AND tf = ?
        ORDER BY open_time DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, q, symbol, string(tf), n)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse latest candles query error",
				applogger.String("symbol", symbol),
				applogger.String("tf", string(tf)),
				applogger.Int("limit", n),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("latest candles: %w", err)
	}
	defer rows.Close()

	out, err := scanCandles(rows)
	if err != nil {
		return nil, err
	}
	// reverse to ASC
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	if s.l != nil {
		s.l.Debug("clickhouse latest candles ok",
			applogger.String("symbol", symbol),
			applogger.String("tf", string(tf)),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

// GetCandles implements CandleSource for analysis reads.
func (s *CHCandleStore) GetCandles(ctx context.Context, symbol string, from, to time.Time, tf domrepo.Timeframe) ([]models.Candle, error) {
	return s.Query(ctx, symbol, tf, from, to, 100000)
}

// GetLatestNCandles implements CandleSource for analysis reads.
func (s *CHCandleStore) GetLatestNCandles(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) ([]models.Candle, error) {
	return s.LatestN(ctx, symbol, tf, n)
}

func (s *CHCandleStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHCandleStore) Close() error {
	return nil // pool owned by pkg/clickhouse client
}

func scanCandles(rows *sql.Rows) ([]models.Candle, error) {
	out := make([]models.Candle, 0, 1024)
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.OpenTime, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
