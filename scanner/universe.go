package scanner

import (
	"sort"
	"strings"

	"signal-scout/config"
)

// defaultPopular is the fallback watchlist used when the configuration does
// not supply one.
var defaultPopular = []string{
	"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA",
	"META", "TSLA", "AMD", "NFLX", "CRM",
	"AVGO", "ORCL", "COST", "JPM", "V",
}

// ResolveUniverse maps a universe name to its ticker list. Unknown names are
// treated as a comma-separated ticker list, so callers can pass "AAPL,MSFT"
// directly. The returned slice is deduplicated and upper-cased.
func ResolveUniverse(name string, cfg *config.ScannerConfig) []string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "popular":
		return dedupe(orDefault(cfg.Popular, defaultPopular))
	case "sp500":
		return dedupe(cfg.SP500)
	case "nasdaq100":
		return dedupe(cfg.Nasdaq100)
	case "all":
		all := make([]string, 0, len(cfg.SP500)+len(cfg.Nasdaq100)+len(cfg.Popular))
		all = append(all, cfg.SP500...)
		all = append(all, cfg.Nasdaq100...)
		all = append(all, orDefault(cfg.Popular, defaultPopular)...)
		merged := dedupe(all)
		sort.Strings(merged)
		return merged
	default:
		return dedupe(strings.Split(name, ","))
	}
}

func orDefault(tickers, fallback []string) []string {
	if len(tickers) == 0 {
		return fallback
	}
	return tickers
}

func dedupe(tickers []string) []string {
	seen := make(map[string]struct{}, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
