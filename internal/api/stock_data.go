package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/kjannette/stock-data-proxy/internal/external"
)

const (
	typeQuote   = "quote"
	typeProfile = "profile"
	typeHistory = "history"

	dateLayout         = "2006-01-02"
	defaultHistoryDays = 90
)

// StockSource serves quotes and company profiles.
type StockSource interface {
	Name() string
	Configured() bool
	Quote(ctx context.Context, symbol string) (json.RawMessage, error)
	Profile(ctx context.Context, symbol string) (json.RawMessage, error)
}

// HistorySource serves daily price history.
type HistorySource interface {
	Name() string
	Configured() bool
	DailyPrices(ctx context.Context, symbol string, r external.DateRange) (json.RawMessage, error)
}

type HandlerOptions struct {
	CORSOrigin string
	Log        io.Writer
	Now        func() time.Time
}

type query struct {
	symbol    string
	startDate string
	endDate   string
}

type route struct {
	provider   string
	configured func() bool
	fetch      func(ctx context.Context, q query) (json.RawMessage, error)
}

// Handler proxies one GET to the upstream selected by the request type.
type Handler struct {
	routes    map[string]route
	fixedType string
	subject   string
	tag       string
	log       io.Writer
	next      http.Handler
}

// NewStockDataHandler dispatches on the "type" query parameter.
func NewStockDataHandler(stocks StockSource, history HistorySource, opts HandlerOptions) *Handler {
	return newHandler(opts, "", "stock", "STOCK-DATA", stockRoutes(stocks), historyRoutes(history, opts.Now))
}

// NewHistoryHandler always serves daily price history and ignores "type".
func NewHistoryHandler(history HistorySource, opts HandlerOptions) *Handler {
	return newHandler(opts, typeHistory, "historical", "HISTORY", historyRoutes(history, opts.Now))
}

func newHandler(opts HandlerOptions, fixedType, subject, tag string, tables ...map[string]route) *Handler {
	h := &Handler{
		routes:    make(map[string]route),
		fixedType: fixedType,
		subject:   subject,
		tag:       tag,
		log:       opts.Log,
	}
	if h.log == nil {
		h.log = os.Stdout
	}
	for _, t := range tables {
		for typ, rt := range t {
			h.routes[typ] = rt
		}
	}
	h.next = corsMiddleware(http.HandlerFunc(h.serve), opts.CORSOrigin)
	return h
}

func stockRoutes(stocks StockSource) map[string]route {
	if stocks == nil {
		return nil
	}
	return map[string]route{
		typeQuote: {
			provider:   stocks.Name(),
			configured: stocks.Configured,
			fetch: func(ctx context.Context, q query) (json.RawMessage, error) {
				return stocks.Quote(ctx, q.symbol)
			},
		},
		typeProfile: {
			provider:   stocks.Name(),
			configured: stocks.Configured,
			fetch: func(ctx context.Context, q query) (json.RawMessage, error) {
				return stocks.Profile(ctx, q.symbol)
			},
		},
	}
}

func historyRoutes(history HistorySource, now func() time.Time) map[string]route {
	if history == nil {
		return nil
	}
	if now == nil {
		now = time.Now
	}
	return map[string]route{
		typeHistory: {
			provider:   history.Name(),
			configured: history.Configured,
			fetch: func(ctx context.Context, q query) (json.RawMessage, error) {
				return history.DailyPrices(ctx, q.symbol, resolveDateRange(q.startDate, q.endDate, now()))
			},
		},
	}
}

// resolveDateRange fills a missing end with today and a missing start with
// today minus defaultHistoryDays, both in UTC.
func resolveDateRange(startDate, endDate string, now time.Time) external.DateRange {
	today := now.UTC()
	r := external.DateRange{Start: startDate, End: endDate}
	if r.End == "" {
		r.End = today.Format(dateLayout)
	}
	if r.Start == "" {
		r.Start = today.AddDate(0, 0, -defaultHistoryDays).Format(dateLayout)
	}
	return r
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.next.ServeHTTP(w, r)
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request) {
	data, err := h.handle(r)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (h *Handler) handle(r *http.Request) (json.RawMessage, error) {
	if r.Method != http.MethodGet {
		return nil, &Error{Kind: MethodError, Msg: "Method not allowed"}
	}

	params := r.URL.Query()
	q := query{
		symbol:    params.Get("symbol"),
		startDate: params.Get("startDate"),
		endDate:   params.Get("endDate"),
	}
	if q.symbol == "" {
		return nil, &Error{Kind: ClientError, Msg: "Symbol is required"}
	}

	typ := h.fixedType
	if typ == "" {
		typ = params.Get("type")
	}
	rt, ok := h.routes[typ]
	if !ok {
		return nil, &Error{Kind: ClientError, Msg: "Invalid type. Use: quote, profile, or history"}
	}

	if !rt.configured() {
		return nil, missingKey(rt.provider)
	}

	data, err := rt.fetch(r.Context(), q)
	if err != nil {
		if errors.Is(err, external.ErrAPIKeyMissing) {
			return nil, missingKey(rt.provider)
		}
		return nil, &Error{Kind: UpstreamError, Msg: fmt.Sprintf("Failed to fetch %s data", h.subject), Err: err}
	}
	return data, nil
}

func missingKey(provider string) *Error {
	return &Error{Kind: ConfigError, Msg: provider + " API key not configured"}
}

// writeFailure is the only place error responses are written.
func (h *Handler) writeFailure(w http.ResponseWriter, err error) {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		apiErr = &Error{Kind: UpstreamError, Msg: fmt.Sprintf("Failed to fetch %s data", h.subject), Err: err}
	}
	if apiErr.Kind == UpstreamError {
		fmt.Fprintf(h.log, "[%s] Error fetching %s data: %v\n", h.tag, h.subject, apiErr.Err)
	}
	writeJSON(w, apiErr.Kind.StatusCode(), apiErr.body())
}
