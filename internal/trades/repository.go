package trades

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository reads and writes trading.closed_trades
// ⭐ SSOT: 청산 거래 조회/저장은 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new trade repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// StrategySummary is one row of ListStrategies
type StrategySummary struct {
	StrategyID string    `json:"strategy_id"`
	Trades     int       `json:"trades"`
	FirstClose time.Time `json:"first_close"`
	LastClose  time.Time `json:"last_close"`
}

// LoadByStrategy returns the strategy's trades closed in [from, to], where
// to covers the whole day. Zero from/to leave that side open.
func (r *Repository) LoadByStrategy(ctx context.Context, strategyID string, from, to time.Time) (*Series, error) {
	query := `
		SELECT symbol, closed_at, pnl::text
		FROM trading.closed_trades
		WHERE strategy_id = $1
		  AND ($2::timestamptz IS NULL OR closed_at >= $2)
		  AND ($3::timestamptz IS NULL OR closed_at < $3::timestamptz + interval '1 day')
		ORDER BY closed_at, id
	`

	rows, err := r.pool.Query(ctx, query, strategyID, nullableTime(from), nullableTime(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query closed trades: %w", err)
	}
	defer rows.Close()

	var trades []Trade
	for rows.Next() {
		var t Trade
		var pnl string
		if err := rows.Scan(&t.Symbol, &t.ClosedAt, &pnl); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if t.PnL, err = decimal.NewFromString(pnl); err != nil {
			return nil, fmt.Errorf("invalid pnl %q: %w", pnl, err)
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	if len(trades) == 0 {
		return nil, fmt.Errorf("%w for strategy %s", ErrNoTrades, strategyID)
	}

	series, err := NewSeries(strategyID, trades)
	if err != nil {
		return nil, err
	}
	if err := series.Window(from, to); err != nil {
		return nil, err
	}
	return series, nil
}

// ListStrategies returns every strategy with at least one closed trade
func (r *Repository) ListStrategies(ctx context.Context) ([]StrategySummary, error) {
	query := `
		SELECT strategy_id, COUNT(*), MIN(closed_at), MAX(closed_at)
		FROM trading.closed_trades
		GROUP BY strategy_id
		ORDER BY strategy_id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list strategies: %w", err)
	}
	defer rows.Close()

	var out []StrategySummary
	for rows.Next() {
		var s StrategySummary
		if err := rows.Scan(&s.StrategyID, &s.Trades, &s.FirstClose, &s.LastClose); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return out, nil
}

// Save inserts trades for a strategy in one batch; all or nothing
func (r *Repository) Save(ctx context.Context, strategyID string, trades []Trade) error {
	if len(trades) == 0 {
		return ErrNoTrades
	}

	query := `
		INSERT INTO trading.closed_trades (strategy_id, symbol, closed_at, pnl)
		VALUES ($1, $2, $3, $4::text::numeric)
	`

	// Batch insert inside one transaction
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, t := range trades {
		batch.Queue(query, strategyID, t.Symbol, t.ClosedAt, t.PnL.String())
	}

	results := tx.SendBatch(ctx, batch)
	for i := range trades {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("failed to insert trade %d: %w", i, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Source binds a strategy and window to the repository
func (r *Repository) Source(strategyID string, from, to time.Time) Source {
	return &repositorySource{repo: r, strategyID: strategyID, from: from, to: to}
}

type repositorySource struct {
	repo       *Repository
	strategyID string
	from, to   time.Time
}

func (s *repositorySource) Load(ctx context.Context) (*Series, error) {
	return s.repo.LoadByStrategy(ctx, s.strategyID, s.from, s.to)
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
