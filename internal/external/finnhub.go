package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"github.com/kjannette/stock-data-proxy/internal/httputil"
)

const finnhubBaseURL = "https://finnhub.io/api/v1"

// FinnhubClient serves real-time quotes and company profiles.
type FinnhubClient struct {
	apiKey     string
	baseURL    string
	httpClient httputil.Doer
	retry      httputil.RetryConfig
	log        io.Writer
}

func NewFinnhubClient(apiKey string, opts Options) *FinnhubClient {
	opts = opts.withDefaults(finnhubBaseURL)
	return &FinnhubClient{
		apiKey:     apiKey,
		baseURL:    opts.BaseURL,
		httpClient: opts.HTTPClient,
		retry:      opts.Retry,
		log:        opts.Log,
	}
}

func (c *FinnhubClient) Name() string { return "Finnhub" }

func (c *FinnhubClient) Configured() bool { return c.apiKey != "" }

// Quote fetches GET /quote for symbol.
func (c *FinnhubClient) Quote(ctx context.Context, symbol string) (json.RawMessage, error) {
	return c.get(ctx, "/quote", symbol)
}

// Profile fetches GET /stock/profile2 for symbol.
func (c *FinnhubClient) Profile(ctx context.Context, symbol string) (json.RawMessage, error) {
	return c.get(ctx, "/stock/profile2", symbol)
}

func (c *FinnhubClient) get(ctx context.Context, path, symbol string) (json.RawMessage, error) {
	if !c.Configured() {
		return nil, ErrAPIKeyMissing
	}
	endpoint := fmt.Sprintf("%s%s?symbol=%s&token=%s",
		c.baseURL, path, url.QueryEscape(symbol), url.QueryEscape(c.apiKey))

	return fetchJSON(ctx, c.httpClient, c.retry, c.log, endpoint, c.apiKey)
}
