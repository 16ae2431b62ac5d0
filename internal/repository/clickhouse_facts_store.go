package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"TradeAgent/internal/domain/models"
	pkgch "TradeAgent/pkg/clickhouse"
	applogger "TradeAgent/pkg/logger"
)

// ErrNotFound is returned when no row matches a lookup.
var ErrNotFound = errors.New("not found")

// CHFactsStore persists facts payloads and backtest runs in ClickHouse.
// Payloads are stored as JSON blobs next to the columns used for lookup,
// so the schema does not have to chase the payload shape.
type CHFactsStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHFactsStore(ch *pkgch.Client) *CHFactsStore {
	return &CHFactsStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHFactsStore) SetLogger(l *applogger.Logger) { s.l = l }

const factsDDL = `
CREATE TABLE IF NOT EXISTS facts (
    symbol   LowCardinality(String),
    version  LowCardinality(String),
    as_of    DateTime64(3, 'UTC'),
    regime   LowCardinality(String),
    payload  String
) ENGINE = ReplacingMergeTree
ORDER BY (symbol, version, as_of)
`

const backtestRunsDDL = `
CREATE TABLE IF NOT EXISTS backtest_runs (
    id                String,
    symbol            LowCardinality(String),
    tf                LowCardinality(String),
    mode              LowCardinality(String),
    bars              UInt32,
    fee_bps           Float64,
    total_return_pct  Float64,
    max_drawdown_pct  Float64,
    sharpe            Float64,
    trades            UInt32,
    win_rate_pct      Float64,
    started_at        DateTime64(3, 'UTC'),
    finished_at       DateTime64(3, 'UTC')
) ENGINE = MergeTree
ORDER BY (symbol, started_at)
`

func (s *CHFactsStore) Init(ctx context.Context) error {
	for _, ddl := range []string{factsDDL, backtestRunsDDL} {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("init facts schema: %w", err)
		}
	}
	return nil
}

func (s *CHFactsStore) StoreFacts(ctx context.Context, p *models.FactsPayload) error {
	blob, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal facts: %w", err)
	}
	version := p.Version
	if version == "" {
		version = models.DefaultFactsVersion
	}
	const q = `INSERT INTO facts (symbol, version, as_of, regime, payload) VALUES (?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, p.Symbol, version, p.AsOf, string(p.Regime), string(blob)); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse facts insert error",
				applogger.String("symbol", p.Symbol),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("store facts: %w", err)
	}
	return nil
}

func (s *CHFactsStore) LatestFacts(ctx context.Context, symbol, version string, asOf time.Time) (*models.FactsPayload, error) {
	if version == "" {
		version = models.DefaultFactsVersion
	}
	q := `
        SELECT payload
        FROM facts FINAL
        WHERE symbol = ? AND version = ?
    `
	args := []interface{}{symbol, version}
	if !asOf.IsZero() {
		q += ` AND as_of <= ?`
		args = append(args, asOf)
	}
	q += `
        ORDER BY as_of DESC
        LIMIT 1
    `
	var blob string
	err := s.db.QueryRowContext(ctx, q, args...).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("facts for %s: %w", symbol, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("latest facts: %w", err)
	}

	var p models.FactsPayload
	if err := json.Unmarshal([]byte(blob), &p); err != nil {
		return nil, fmt.Errorf("unmarshal facts: %w", err)
	}
	return &p, nil
}

func (s *CHFactsStore) StoreBacktestRun(ctx context.Context, run *models.BacktestRun) error {
	const q = `
        INSERT INTO backtest_runs
            (id, symbol, tf, mode, bars, fee_bps, total_return_pct, max_drawdown_pct,
             sharpe, trades, win_rate_pct, started_at, finished_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := s.db.ExecContext(ctx, q,
		run.ID, run.Symbol, run.TF, run.Mode,
		uint32(run.Bars), run.FeeBps, run.TotalReturnPct, run.MaxDrawdownPct,
		run.Sharpe, uint32(run.Trades), run.WinRatePct,
		run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("store backtest run: %w", err)
	}
	if s.l != nil {
		s.l.Info("backtest run persisted",
			applogger.String("id", run.ID),
			applogger.String("symbol", run.Symbol),
			applogger.String("mode", run.Mode),
			applogger.Float64("total_return_pct", run.TotalReturnPct),
		)
	}
	return nil
}

func (s *CHFactsStore) Close() error {
	return nil // pool owned by pkg/clickhouse client
}
