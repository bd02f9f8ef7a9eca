package trading

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"signal-scout/models"
	"signal-scout/notify"
)

// memoryStore is an in-memory TradeStore with the same row guards as the
// real repository.
type memoryStore struct {
	mu     sync.Mutex
	trades map[uuid.UUID]*models.Trade

	failCreate bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{trades: make(map[uuid.UUID]*models.Trade)}
}

func (s *memoryStore) CreateTradeIfNoActive(_ context.Context, trade *models.Trade) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate {
		return false, errors.New("store unavailable")
	}
	for _, t := range s.trades {
		if t.Ticker == trade.Ticker && t.IsActive() {
			return false, nil
		}
	}
	cp := *trade
	s.trades[trade.ID] = &cp
	return true, nil
}

func (s *memoryStore) GetTradesByStatus(_ context.Context, status models.TradeStatus) ([]models.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Trade
	for _, t := range s.trades {
		if t.Status == status {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s *memoryStore) OpenTrade(_ context.Context, id uuid.UUID, fillPrice float64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trades[id]
	if !ok || t.Status != models.TradeStatusPending {
		return errors.New("trade not pending")
	}
	t.Status = models.TradeStatusOpen
	t.CurrentPrice = fillPrice
	entryTime := at
	t.EntryTime = &entryTime
	return nil
}

func (s *memoryStore) CloseTrade(_ context.Context, id uuid.UUID, exitPrice float64, reason models.ExitReason, rMultiple, pnl float64, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trades[id]
	if !ok || t.Status != models.TradeStatusOpen {
		return false, nil
	}
	t.Status = models.TradeStatusClosed
	exitTime := at
	t.ExitTime = &exitTime
	t.ExitReason = reason
	t.ExitPrice = &exitPrice
	t.RMultiple = &rMultiple
	t.PnL = &pnl
	return true, nil
}

func (s *memoryStore) UpdateTradePrice(_ context.Context, id uuid.UUID, price float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.trades[id]; ok {
		t.CurrentPrice = price
	}
	return nil
}

func (s *memoryStore) CountActiveTrades(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.trades {
		if t.IsActive() {
			n++
		}
	}
	return n, nil
}

func (s *memoryStore) DailyRealizedR(_ context.Context, day time.Time) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	y, m, d := day.Date()
	sum := 0.0
	for _, t := range s.trades {
		if t.Status != models.TradeStatusClosed || t.ExitTime == nil || t.RMultiple == nil {
			continue
		}
		ty, tm, td := t.ExitTime.Date()
		if ty == y && tm == m && td == d {
			sum += *t.RMultiple
		}
	}
	return sum, nil
}

func (s *memoryStore) get(id uuid.UUID) *models.Trade {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.trades[id]; ok {
		cp := *t
		return &cp
	}
	return nil
}

// fixedPriceProvider serves a settable live price per ticker.
type fixedPriceProvider struct {
	mu     sync.Mutex
	prices map[string]float64
	errs   map[string]error
}

func newFixedPriceProvider() *fixedPriceProvider {
	return &fixedPriceProvider{prices: make(map[string]float64), errs: make(map[string]error)}
}

func (p *fixedPriceProvider) set(ticker string, price float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prices[ticker] = price
}

func (p *fixedPriceProvider) GetBars(_ context.Context, _, _, _ string) ([]models.Bar, error) {
	return nil, errors.New("not implemented")
}

func (p *fixedPriceProvider) GetLatestPrice(_ context.Context, ticker string) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err, ok := p.errs[ticker]; ok {
		return 0, err
	}
	if price, ok := p.prices[ticker]; ok {
		return price, nil
	}
	return 0, errors.New("unknown ticker")
}

// recordingSink captures published events in order.
type recordingSink struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
}

func (s *recordingSink) Publish(_ context.Context, event notify.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) types() []notify.EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]notify.EventType, len(s.events))
	for i, e := range s.events {
		out[i] = e.Type
	}
	return out
}
