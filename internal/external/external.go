package external

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/kjannette/stock-data-proxy/internal/httputil"
)

//go:generate mockgen -package=external_test -destination=mock_doer_test.go github.com/kjannette/stock-data-proxy/internal/httputil Doer

// ErrAPIKeyMissing is returned before any request is built when the
// client has no credential.
var ErrAPIKeyMissing = errors.New("api key not configured")

// Options configures an upstream client. Zero values select the public
// base URL, a default http.Client, a single attempt and stdout for retry logs.
type Options struct {
	BaseURL    string
	HTTPClient httputil.Doer
	Retry      httputil.RetryConfig
	Log        io.Writer
}

func (o Options) withDefaults(baseURL string) Options {
	if o.BaseURL == "" {
		o.BaseURL = baseURL
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{}
	}
	if o.Retry.MaxAttempts <= 0 {
		o.Retry = httputil.SingleAttempt
	}
	if o.Log == nil {
		o.Log = os.Stdout
	}
	return o
}

// fetchJSON issues a GET to endpoint and returns the body once it has been
// checked to be a single JSON value.
func fetchJSON(ctx context.Context, client httputil.Doer, retry httputil.RetryConfig, log io.Writer, endpoint, apiKey string) (json.RawMessage, error) {
	retry.Logf = func(format string, args ...any) {
		fmt.Fprint(log, redactString(fmt.Sprintf(format, args...), apiKey))
	}
	resp, err := httputil.Do(ctx, client, retry, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	})
	if err != nil {
		return nil, redact(err, apiKey)
	}
	defer resp.Body.Close()

	if !httputil.IsSuccess(resp.StatusCode) {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &httputil.StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	dec := json.NewDecoder(resp.Body)
	var data json.RawMessage
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errors.New("decode: unexpected data after JSON value")
	}
	return data, nil
}

// redactedError hides the API key that transport errors echo back through
// the request URL.
type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

func redact(err error, apiKey string) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	clean := redactString(msg, apiKey)
	if clean == msg {
		return err
	}
	return &redactedError{msg: clean, err: err}
}

func redactString(s, apiKey string) string {
	if apiKey == "" {
		return s
	}
	s = strings.ReplaceAll(s, url.QueryEscape(apiKey), "REDACTED")
	return strings.ReplaceAll(s, apiKey, "REDACTED")
}
