package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"GoldPulse/internal/domain/models"
)

// ClickHouseAudit appends applied trade outcomes to a ClickHouse table
// for offline analysis.
type ClickHouseAudit struct {
	db    *sql.DB
	table string
}

// NewClickHouseAudit builds the audit log over an open connection.
func NewClickHouseAudit(db *sql.DB, table string) *ClickHouseAudit {
	return &ClickHouseAudit{db: db, table: table}
}

// Init creates the outcomes table if it does not exist.
func (a *ClickHouseAudit) Init(ctx context.Context) error {
	q := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		ts DateTime64(3),
		trade_id String,
		symbol LowCardinality(String),
		direction LowCardinality(String),
		pnl Float64,
		success UInt8,
		confidence Float64,
		prior_mean Float64,
		source LowCardinality(String)
	) ENGINE = MergeTree()
	ORDER BY (symbol, ts)`, a.table)
	if _, err := a.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("init outcomes table: %w", err)
	}
	return nil
}

func (a *ClickHouseAudit) Append(ctx context.Context, rec *models.OutcomeRecord) error {
	q := fmt.Sprintf("INSERT INTO %s (ts, trade_id, symbol, direction, pnl, success, confidence, prior_mean, source) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)", a.table)
	success := uint8(0)
	if rec.Success {
		success = 1
	}
	_, err := a.db.ExecContext(ctx, q,
		rec.Ts,
		rec.TradeID,
		rec.Symbol,
		string(rec.Direction),
		rec.PnL,
		success,
		rec.Confidence,
		rec.PriorMean,
		rec.Source,
	)
	if err != nil {
		return fmt.Errorf("append outcome %s: %w", rec.TradeID, err)
	}
	return nil
}

func (a *ClickHouseAudit) Recent(ctx context.Context, symbol string, limit int) ([]*models.OutcomeRecord, error) {
	q := fmt.Sprintf("SELECT ts, trade_id, symbol, direction, pnl, success, confidence, prior_mean, source FROM %s WHERE symbol = ? ORDER BY ts DESC LIMIT ?", a.table)
	rows, err := a.db.QueryContext(ctx, q, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query outcomes for %s: %w", symbol, err)
	}
	defer rows.Close()

	var out []*models.OutcomeRecord
	for rows.Next() {
		var rec models.OutcomeRecord
		var ts time.Time
		var direction string
		var success uint8
		if err := rows.Scan(&ts, &rec.TradeID, &rec.Symbol, &direction, &rec.PnL, &success, &rec.Confidence, &rec.PriorMean, &rec.Source); err != nil {
			return nil, fmt.Errorf("scan outcome row: %w", err)
		}
		rec.Ts = ts
		rec.Direction = models.Direction(direction)
		rec.Success = success == 1
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (a *ClickHouseAudit) Health(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *ClickHouseAudit) Close() error {
	return nil // connection lifecycle owned by pkg/clickhouse
}
