package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"github.com/kjannette/stock-data-proxy/internal/httputil"
)

const tiingoBaseURL = "https://api.tiingo.com/tiingo"

// DateRange bounds a daily price query. Both ends are YYYY-MM-DD.
type DateRange struct {
	Start string `json:"startDate"`
	End   string `json:"endDate"`
}

// TiingoClient serves end-of-day price history.
type TiingoClient struct {
	apiKey     string
	baseURL    string
	httpClient httputil.Doer
	retry      httputil.RetryConfig
	log        io.Writer
}

func NewTiingoClient(apiKey string, opts Options) *TiingoClient {
	opts = opts.withDefaults(tiingoBaseURL)
	return &TiingoClient{
		apiKey:     apiKey,
		baseURL:    opts.BaseURL,
		httpClient: opts.HTTPClient,
		retry:      opts.Retry,
		log:        opts.Log,
	}
}

func (c *TiingoClient) Name() string { return "Tiingo" }

func (c *TiingoClient) Configured() bool { return c.apiKey != "" }

// DailyPrices fetches GET /daily/{symbol}/prices for the given range.
func (c *TiingoClient) DailyPrices(ctx context.Context, symbol string, r DateRange) (json.RawMessage, error) {
	if !c.Configured() {
		return nil, ErrAPIKeyMissing
	}
	endpoint := fmt.Sprintf("%s/daily/%s/prices?startDate=%s&endDate=%s&token=%s",
		c.baseURL, url.PathEscape(symbol), url.QueryEscape(r.Start), url.QueryEscape(r.End), url.QueryEscape(c.apiKey))

	return fetchJSON(ctx, c.httpClient, c.retry, c.log, endpoint, c.apiKey)
}
