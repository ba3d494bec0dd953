// Package main is the entry point for the kalshiwatch surveillance engine.
// It fetches the trade tape, order book and metadata for one or more Kalshi
// markets and scores each for signs of informed trading.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/kalshiwatch/engine/internal/config"
	"github.com/kalshiwatch/engine/internal/detector"
	"github.com/kalshiwatch/engine/internal/ingest"
	"github.com/kalshiwatch/engine/internal/metrics"
	"github.com/kalshiwatch/engine/internal/store"
)

// MarketReport is the per-market output record written to stdout.
type MarketReport struct {
	Ticker         string               `json:"ticker"`
	Market         store.Market         `json:"market"`
	Analysis       store.AnalysisResult `json:"analysis"`
	TradesAnalyzed int                  `json:"tradesAnalyzed"`
	Timestamp      string               `json:"timestamp"`
}

func main() {
	tickersFlag := flag.String("tickers", "", "comma-separated market tickers to analyze (default: scan open markets)")
	scanFlag := flag.Int("scan", 0, "number of open markets to scan when no tickers are given (overrides SCAN_LIMIT)")
	liveFlag := flag.Bool("live", false, "collect a live trade tape over WebSocket before analyzing")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	slog.Info("kalshiwatch starting", "version", "1.0.0")
	slog.Info("config_loaded",
		"kalshi_api_url", cfg.KalshiAPIURL,
		"kalshi_ws_url", cfg.KalshiWSURL,
		"api_key", cfg.MaskedAPIKey(),
		"trade_limit", cfg.TradeLimit,
		"orderbook_depth", cfg.OrderbookDepth,
		"min_trades", cfg.MinTrades,
		"surge_window_days", cfg.SurgeWindowDays,
		"worker_count", cfg.WorkerCount,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := ingest.NewClient(cfg.KalshiAPIURL, cfg.KalshiAPIKey, cfg.HTTPTimeout)

	tickers := resolveTickers(ctx, client, cfg, *tickersFlag, *scanFlag)
	if len(tickers) == 0 {
		slog.Error("no markets to analyze")
		os.Exit(1)
	}
	slog.Info("markets_selected", "count", len(tickers))

	// Optionally supplement the fetched tape with live trades.
	liveTape := map[string][]store.Trade{}
	if *liveFlag || cfg.EnableLiveTape {
		liveTape = collectLiveTape(ctx, cfg, tickers)
	}

	analyzer := detector.New(cfg.DetectorParams())
	tracker := metrics.NewScanTracker()

	reports := runScan(ctx, client, analyzer, tracker, cfg, tickers, liveTape)

	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].Analysis.SuspicionScore > reports[j].Analysis.SuspicionScore
	})

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(reports); err != nil {
		slog.Error("failed to encode reports", "error", err)
		os.Exit(1)
	}

	logSummary(tracker.Snapshot())
}

// resolveTickers returns the explicit ticker list or falls back to the
// highest-volume open markets.
func resolveTickers(ctx context.Context, client *ingest.Client, cfg *config.Config, tickersFlag string, scanLimit int) []string {
	if tickersFlag != "" {
		var tickers []string
		for _, t := range strings.Split(tickersFlag, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tickers = append(tickers, t)
			}
		}
		return tickers
	}

	limit := cfg.ScanLimit
	if scanLimit > 0 {
		limit = scanLimit
	}

	slog.Info("fetching_open_markets", "limit", limit)
	markets, err := client.GetOpenMarkets(ctx, limit)
	if err != nil {
		slog.Error("failed to fetch open markets", "error", err)
		return nil
	}

	sort.SliceStable(markets, func(i, j int) bool {
		return markets[i].Volume > markets[j].Volume
	})

	tickers := make([]string, 0, len(markets))
	for _, m := range markets {
		tickers = append(tickers, m.Ticker)
	}
	return tickers
}

// collectLiveTape listens on the trade channel for the configured duration
// and groups the collected trades by ticker.
func collectLiveTape(ctx context.Context, cfg *config.Config, tickers []string) map[string][]store.Trade {
	slog.Info("collecting_live_tape", "duration", cfg.TapeDuration, "tickers", len(tickers))

	listener := ingest.NewTapeListener(cfg.KalshiWSURL, tickers)
	listener.Start(ctx)

	select {
	case <-ctx.Done():
	case <-time.After(cfg.TapeDuration):
	}
	listener.Stop()

	byTicker := make(map[string][]store.Trade)
	for _, t := range listener.Tape() {
		byTicker[t.Ticker] = append(byTicker[t.Ticker], t)
	}
	slog.Info("live_tape_collected", "trades", len(listener.Tape()), "markets", len(byTicker))
	return byTicker
}

// runScan analyzes every ticker through a worker pool. Analyses are
// independent and stateless, so workers share one Analyzer.
func runScan(ctx context.Context, client *ingest.Client, analyzer *detector.Analyzer,
	tracker *metrics.ScanTracker, cfg *config.Config,
	tickers []string, liveTape map[string][]store.Trade) []MarketReport {

	jobs := make(chan string)
	var mu sync.Mutex
	var reports []MarketReport
	var wg sync.WaitGroup

	for i := 0; i < cfg.WorkerCount; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for ticker := range jobs {
				report, err := analyzeMarket(ctx, client, analyzer, cfg, ticker, liveTape[ticker])
				if err != nil {
					slog.Warn("market_analysis_failed", "ticker", ticker, "error", err)
					tracker.RecordFailure()
					continue
				}
				tracker.RecordResult(ticker, report.Analysis)
				slog.Info("market_analyzed",
					"ticker", ticker,
					"score", report.Analysis.SuspicionScore,
					"risk_level", report.Analysis.RiskLevel,
					"trades", report.TradesAnalyzed,
					"signals_triggered", report.Analysis.Metrics.SignalsTriggered,
				)

				mu.Lock()
				reports = append(reports, report)
				mu.Unlock()
			}
		}(i)
	}

	for _, ticker := range tickers {
		select {
		case <-ctx.Done():
			slog.Warn("scan_cancelled")
		case jobs <- ticker:
			continue
		}
		break
	}
	close(jobs)
	wg.Wait()

	return reports
}

// analyzeMarket fetches one market's data and scores it. A missing tape or
// book degrades the analysis rather than failing it; only a missing market
// record is fatal.
func analyzeMarket(ctx context.Context, client *ingest.Client, analyzer *detector.Analyzer,
	cfg *config.Config, ticker string, liveTrades []store.Trade) (MarketReport, error) {

	market, err := client.GetMarket(ctx, ticker)
	if err != nil {
		return MarketReport{}, err
	}

	trades, err := client.GetTrades(ctx, ticker, cfg.TradeLimit)
	if err != nil {
		slog.Warn("trades_fetch_failed", "ticker", ticker, "error", err)
		trades = nil
	}
	trades = append(trades, liveTrades...)

	book, err := client.GetOrderbook(ctx, ticker, cfg.OrderbookDepth)
	if err != nil {
		slog.Warn("orderbook_fetch_failed", "ticker", ticker, "error", err)
		book = store.OrderBook{}
	}

	analysis := analyzer.Analyze(market, trades, book)

	return MarketReport{
		Ticker:         ticker,
		Market:         market,
		Analysis:       analysis,
		TradesAnalyzed: len(trades),
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// logSummary reports the scan totals.
func logSummary(summary metrics.ScanSummary) {
	slog.Info("scan_complete",
		"markets_scanned", summary.MarketsScanned,
		"markets_failed", summary.MarketsFailed,
		"elapsed", summary.Elapsed.Round(time.Millisecond),
	)
	for level, count := range summary.ByRiskLevel {
		slog.Info("risk_level_count", "level", level, "count", count)
	}
	for _, top := range summary.TopMarkets {
		if top.SuspicionScore == 0 {
			continue
		}
		slog.Info("top_market",
			"ticker", top.Ticker,
			"score", top.SuspicionScore,
			"risk_level", top.RiskLevel,
			"confidence", top.Confidence,
		)
	}
}

// setupLogger creates a structured logger with the specified level.
// Format: 2025-01-04 14:32:01 [INFO]  message key=value
func setupLogger(levelStr string) *slog.Logger {
	var level slog.Level
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN", "WARNING":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.Format("2006-01-02 15:04:05"))
				}
			}
			return a
		},
	}

	handler := slog.NewTextHandler(os.Stderr, opts)
	return slog.New(handler)
}
