// Package mocks provides the mock Yahoo Finance server used in E2E tests.
package mocks

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// MockServer serves the Yahoo chart and quoteSummary endpoints with
// configurable per-ticker responses.
type MockServer struct {
	mu     sync.RWMutex
	server *httptest.Server

	histories    map[string]History
	fundamentals map[string]Fundamentals

	// Error injection
	chartError   bool
	summaryError bool

	// Request tracking for assertions
	requestLog []RequestLog
}

// RequestLog records incoming requests for test assertions.
type RequestLog struct {
	Method string
	Path   string
	Query  string
}

// NewMockServer creates a mock server with default responses: a 120-day
// uptrend for any ticker and neutral fundamentals.
func NewMockServer() *MockServer {
	m := &MockServer{
		histories:    make(map[string]History),
		fundamentals: make(map[string]Fundamentals),
		requestLog:   make([]RequestLog, 0),
	}
	m.server = httptest.NewServer(m)
	return m
}

// URL returns the mock server's base URL.
func (m *MockServer) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockServer) Close() {
	m.server.Close()
}

// SetHistory configures the chart response for a ticker.
func (m *MockServer) SetHistory(ticker string, h History) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.histories[ticker] = h
}

// SetLatestPrice updates only the reported market price for a ticker,
// keeping its bar history.
func (m *MockServer) SetLatestPrice(ticker string, price float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.histories[ticker]
	h.LatestPrice = price
	m.histories[ticker] = h
}

// SetFundamentals configures the quoteSummary response for a ticker.
func (m *MockServer) SetFundamentals(ticker string, f Fundamentals) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fundamentals[ticker] = f
}

// SetChartError makes the chart endpoint fail with a 500.
func (m *MockServer) SetChartError(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chartError = fail
}

// SetSummaryError makes the quoteSummary endpoint fail with a 500.
func (m *MockServer) SetSummaryError(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaryError = fail
}

// GetRequestLog returns all logged requests for assertions.
func (m *MockServer) GetRequestLog() []RequestLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]RequestLog{}, m.requestLog...)
}

// ClearRequestLog clears the request log.
func (m *MockServer) ClearRequestLog() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestLog = m.requestLog[:0]
}

// ServeHTTP routes requests to the chart or quoteSummary handler.
func (m *MockServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.requestLog = append(m.requestLog, RequestLog{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
	})
	m.mu.Unlock()

	switch {
	case strings.HasPrefix(r.URL.Path, "/v8/finance/chart/"):
		m.handleChart(w, r)
	case strings.HasPrefix(r.URL.Path, "/v10/finance/quoteSummary/"):
		m.handleQuoteSummary(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (m *MockServer) handleChart(w http.ResponseWriter, r *http.Request) {
	ticker := strings.TrimPrefix(r.URL.Path, "/v8/finance/chart/")

	m.mu.RLock()
	fail := m.chartError
	h, ok := m.histories[ticker]
	m.mu.RUnlock()

	if fail {
		http.Error(w, "upstream error", http.StatusInternalServerError)
		return
	}
	if !ok {
		h = History{Bars: GenerateUptrendBars(120, 100, 0.5), LatestPrice: 159.5}
	}

	timestamps := make([]int64, len(h.Bars))
	opens := make([]*float64, len(h.Bars))
	highs := make([]*float64, len(h.Bars))
	lows := make([]*float64, len(h.Bars))
	closes := make([]*float64, len(h.Bars))
	volumes := make([]*int64, len(h.Bars))
	for i := range h.Bars {
		b := h.Bars[i]
		timestamps[i] = b.Timestamp
		opens[i] = &b.Open
		highs[i] = &b.High
		lows[i] = &b.Low
		closes[i] = &b.Close
		volumes[i] = &b.Volume
	}

	resp := map[string]interface{}{
		"chart": map[string]interface{}{
			"result": []map[string]interface{}{
				{
					"meta": map[string]interface{}{
						"symbol":             ticker,
						"regularMarketPrice": h.LatestPrice,
					},
					"timestamp": timestamps,
					"indicators": map[string]interface{}{
						"quote": []map[string]interface{}{
							{
								"open":   opens,
								"high":   highs,
								"low":    lows,
								"close":  closes,
								"volume": volumes,
							},
						},
					},
				},
			},
			"error": nil,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (m *MockServer) handleQuoteSummary(w http.ResponseWriter, r *http.Request) {
	ticker := strings.TrimPrefix(r.URL.Path, "/v10/finance/quoteSummary/")

	m.mu.RLock()
	fail := m.summaryError
	f, ok := m.fundamentals[ticker]
	m.mu.RUnlock()

	if fail {
		http.Error(w, "upstream error", http.StatusInternalServerError)
		return
	}
	if !ok {
		f = Fundamentals{RevenueGrowth: 0.05, ProfitMargins: 0.08, TrailingPE: 25, MarketCap: 50_000_000_000}
	}

	resp := map[string]interface{}{
		"quoteSummary": map[string]interface{}{
			"result": []map[string]interface{}{
				{
					"financialData": map[string]interface{}{
						"revenueGrowth": map[string]interface{}{"raw": f.RevenueGrowth},
						"profitMargins": map[string]interface{}{"raw": f.ProfitMargins},
					},
					"summaryDetail": map[string]interface{}{
						"trailingPE": map[string]interface{}{"raw": f.TrailingPE},
						"marketCap":  map[string]interface{}{"raw": f.MarketCap},
					},
				},
			},
			"error": nil,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
