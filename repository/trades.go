package repository

import (
	"context"
	"fmt"
	"time"

	"signal-scout/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const tradeColumns = `id, ticker, status, entry_price, stop_loss, take_profit_1, take_profit_2,
	risk_per_share, risk_amount, current_price, entry_time, exit_time, exit_reason,
	exit_price, r_multiple, pnl, notes, created_at`

func scanTrade(row pgx.Row) (*models.Trade, error) {
	var t models.Trade
	var exitReason *string
	err := row.Scan(
		&t.ID, &t.Ticker, &t.Status,
		&t.Levels.EntryPrice, &t.Levels.StopLoss, &t.Levels.TakeProfit1, &t.Levels.TakeProfit2,
		&t.Levels.RiskPerShare, &t.RiskAmount, &t.CurrentPrice,
		&t.EntryTime, &t.ExitTime, &exitReason,
		&t.ExitPrice, &t.RMultiple, &t.PnL, &t.Notes, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if exitReason != nil {
		t.ExitReason = models.ExitReason(*exitReason)
	}
	return &t, nil
}

// CreateTradeIfNoActive inserts the trade unless the ticker already has an
// active (PENDING or OPEN) trade. The existence check and the insert run as
// one statement, so two concurrent creates for the same ticker cannot both
// win.
func (r *Repository) CreateTradeIfNoActive(ctx context.Context, trade *models.Trade) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO trades (id, ticker, status, entry_price, stop_loss, take_profit_1, take_profit_2,
			risk_per_share, risk_amount, current_price, notes, created_at)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		WHERE NOT EXISTS (
			SELECT 1 FROM trades WHERE ticker = $2 AND status IN ('PENDING', 'OPEN')
		)
	`, trade.ID, trade.Ticker, trade.Status,
		trade.Levels.EntryPrice, trade.Levels.StopLoss, trade.Levels.TakeProfit1, trade.Levels.TakeProfit2,
		trade.Levels.RiskPerShare, trade.RiskAmount, trade.CurrentPrice, trade.Notes, trade.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to create trade: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// GetTrade returns a single trade by ID, or nil when it does not exist.
func (r *Repository) GetTrade(ctx context.Context, id uuid.UUID) (*models.Trade, error) {
	t, err := scanTrade(r.db.QueryRow(ctx,
		`SELECT `+tradeColumns+` FROM trades WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query trade: %w", err)
	}
	return t, nil
}

// GetTradesByStatus returns all trades in the given status, oldest first.
func (r *Repository) GetTradesByStatus(ctx context.Context, status models.TradeStatus) ([]models.Trade, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+tradeColumns+`
		FROM trades
		WHERE status = $1
		ORDER BY created_at ASC
	`, status)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, *t)
	}
	return trades, rows.Err()
}

// GetRecentTrades returns the most recent trades across all statuses.
func (r *Repository) GetRecentTrades(ctx context.Context, limit int) ([]models.Trade, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+tradeColumns+`
		FROM trades
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, *t)
	}
	return trades, rows.Err()
}

// OpenTrade transitions a PENDING trade to OPEN, recording the fill price.
// The status guard makes the transition single-shot.
func (r *Repository) OpenTrade(ctx context.Context, id uuid.UUID, fillPrice float64, at time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE trades
		SET status = 'OPEN', current_price = $2, entry_time = $3
		WHERE id = $1 AND status = 'PENDING'
	`, id, fillPrice, at)
	if err != nil {
		return fmt.Errorf("failed to open trade: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("trade %s is not pending", id)
	}
	return nil
}

// CloseTrade transitions an OPEN trade to CLOSED with its realized numbers.
// Reports whether a row was affected; closing an already-closed trade is a
// no-op reporting false.
func (r *Repository) CloseTrade(ctx context.Context, id uuid.UUID, exitPrice float64, reason models.ExitReason, rMultiple, pnl float64, at time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE trades
		SET status = 'CLOSED', current_price = $2, exit_price = $2, exit_reason = $3,
			r_multiple = $4, pnl = $5, exit_time = $6
		WHERE id = $1 AND status = 'OPEN'
	`, id, exitPrice, reason, rMultiple, pnl, at)
	if err != nil {
		return false, fmt.Errorf("failed to close trade: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateTradePrice refreshes the last seen price of a trade.
func (r *Repository) UpdateTradePrice(ctx context.Context, id uuid.UUID, price float64) error {
	_, err := r.db.Exec(ctx, `UPDATE trades SET current_price = $2 WHERE id = $1`, id, price)
	if err != nil {
		return fmt.Errorf("failed to update trade price: %w", err)
	}
	return nil
}

// CountActiveTrades returns the number of PENDING and OPEN trades.
func (r *Repository) CountActiveTrades(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM trades WHERE status IN ('PENDING', 'OPEN')`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active trades: %w", err)
	}
	return count, nil
}

// DailyRealizedR sums the R-multiples of trades closed on the given calendar
// day.
func (r *Repository) DailyRealizedR(ctx context.Context, day time.Time) (float64, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var sum float64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(r_multiple), 0)
		FROM trades
		WHERE status = 'CLOSED' AND exit_time >= $1 AND exit_time < $2
	`, dayStart, dayEnd).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum daily realized R: %w", err)
	}
	return sum, nil
}

// TradeSummary aggregates performance over the trailing window of days.
func (r *Repository) TradeSummary(ctx context.Context, days int) (*models.TradeSummary, error) {
	if days <= 0 {
		days = 1
	}
	since := time.Now().AddDate(0, 0, -days)

	summary := &models.TradeSummary{Days: days}
	var wins int
	err := r.db.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'OPEN'),
			COUNT(*) FILTER (WHERE status = 'PENDING'),
			COUNT(*) FILTER (WHERE status = 'CLOSED' AND exit_time >= $1),
			COALESCE(AVG(r_multiple) FILTER (WHERE status = 'CLOSED' AND exit_time >= $1), 0),
			COALESCE(SUM(pnl) FILTER (WHERE status = 'CLOSED' AND exit_time >= $1), 0),
			COUNT(*) FILTER (WHERE status = 'CLOSED' AND exit_time >= $1 AND r_multiple > 0)
		FROM trades
	`, since).Scan(
		&summary.Open, &summary.Pending, &summary.Closed,
		&summary.AvgR, &summary.TotalPnL, &wins,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query trade summary: %w", err)
	}
	if summary.Closed > 0 {
		summary.WinRate = float64(wins) / float64(summary.Closed) * 100
	}

	return summary, nil
}
