package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kalshiwatch/engine/internal/store"
)

const (
	// DefaultAPIBaseURL is the Kalshi trade API endpoint.
	DefaultAPIBaseURL = "https://api.elections.kalshi.com/trade-api/v2"
	// DefaultHTTPTimeout bounds each request.
	DefaultHTTPTimeout = 10 * time.Second
	// tradePageSize is the per-request page size when paginating the tape.
	tradePageSize = 100
)

// Client is a read-only Kalshi trade API client for market data.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient creates a Client. Empty baseURL and zero timeout fall back to
// defaults. apiKey may be empty; public market data needs no auth.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIBaseURL
	}
	if timeout == 0 {
		timeout = DefaultHTTPTimeout
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// GetMarket fetches and normalizes one market record.
func (c *Client) GetMarket(ctx context.Context, ticker string) (store.Market, error) {
	var resp struct {
		Market APIMarket `json:"market"`
	}
	if err := c.get(ctx, "/markets/"+url.PathEscape(ticker), nil, &resp); err != nil {
		return store.Market{}, fmt.Errorf("get market %s: %w", ticker, err)
	}
	return NormalizeMarket(resp.Market), nil
}

// GetTrades fetches up to limit trades for a market, following the cursor
// until the limit is reached or the tape is exhausted. Results are
// normalized (prices in [0,1]).
func (c *Client) GetTrades(ctx context.Context, ticker string, limit int) ([]store.Trade, error) {
	if limit <= 0 {
		limit = tradePageSize
	}

	var trades []store.Trade
	cursor := ""
	for len(trades) < limit {
		pageSize := limit - len(trades)
		if pageSize > tradePageSize {
			pageSize = tradePageSize
		}

		params := url.Values{}
		params.Set("ticker", ticker)
		params.Set("limit", strconv.Itoa(pageSize))
		if cursor != "" {
			params.Set("cursor", cursor)
		}

		var resp struct {
			Trades []APITrade `json:"trades"`
			Cursor string     `json:"cursor"`
		}
		if err := c.get(ctx, "/markets/trades", params, &resp); err != nil {
			return nil, fmt.Errorf("get trades %s: %w", ticker, err)
		}

		trades = append(trades, NormalizeTrades(resp.Trades)...)
		if resp.Cursor == "" || len(resp.Trades) == 0 {
			break
		}
		cursor = resp.Cursor
	}
	return trades, nil
}

// GetOrderbook fetches the resting book snapshot for a market, up to depth
// levels per side. Prices stay in cents.
func (c *Client) GetOrderbook(ctx context.Context, ticker string, depth int) (store.OrderBook, error) {
	params := url.Values{}
	if depth > 0 {
		params.Set("depth", strconv.Itoa(depth))
	}

	var resp struct {
		Orderbook APIOrderbook `json:"orderbook"`
	}
	if err := c.get(ctx, "/markets/"+url.PathEscape(ticker)+"/orderbook", params, &resp); err != nil {
		return store.OrderBook{}, fmt.Errorf("get orderbook %s: %w", ticker, err)
	}
	return NormalizeOrderbook(resp.Orderbook), nil
}

// GetOpenMarkets fetches up to limit currently open markets.
func (c *Client) GetOpenMarkets(ctx context.Context, limit int) ([]store.Market, error) {
	params := url.Values{}
	params.Set("status", "open")
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var resp struct {
		Markets []APIMarket `json:"markets"`
	}
	if err := c.get(ctx, "/markets", params, &resp); err != nil {
		return nil, fmt.Errorf("get open markets: %w", err)
	}

	markets := make([]store.Market, 0, len(resp.Markets))
	for _, m := range resp.Markets {
		markets = append(markets, NormalizeMarket(m))
	}
	return markets, nil
}

// get performs a GET against the API and decodes the JSON response.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	return nil
}
