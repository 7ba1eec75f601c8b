package httputil_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/kjannette/stock-data-proxy/internal/httputil"
	"github.com/kjannette/stock-data-proxy/internal/testutil"
)

var fastRetry = httputil.RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

func get(target string) func() (*http.Request, error) {
	return func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, target, nil)
	}
}

func response(status int, body string) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body))}
}

func TestDo_SuccessFirstAttempt(t *testing.T) {
	upstream := testutil.NewUpstream(t, http.StatusOK, `{"ok":true}`)

	resp, err := httputil.Do(context.Background(), http.DefaultClient, fastRetry, get(upstream.URL))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, upstream.Hits())
}

func TestDo_RetriesOnServerError(t *testing.T) {
	ctrl := gomock.NewController(t)
	doer := NewMockDoer(ctrl)

	gomock.InOrder(
		doer.EXPECT().Do(gomock.Any()).Return(response(http.StatusServiceUnavailable, "busy"), nil),
		doer.EXPECT().Do(gomock.Any()).Return(response(http.StatusServiceUnavailable, "busy"), nil),
		doer.EXPECT().Do(gomock.Any()).Return(response(http.StatusOK, `{"ok":true}`), nil),
	)

	var logged []string
	cfg := fastRetry
	cfg.Logf = func(format string, args ...any) { logged = append(logged, format) }

	resp, err := httputil.Do(context.Background(), doer, cfg, get("http://upstream.test/quote"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, logged, 2)
}

func TestDo_AllAttemptsFail(t *testing.T) {
	upstream := testutil.NewUpstream(t, http.StatusInternalServerError, "boom")

	cfg := fastRetry
	cfg.Logf = func(string, ...any) {}

	_, err := httputil.Do(context.Background(), http.DefaultClient, cfg, get(upstream.URL))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 3 attempts failed")
	assert.Equal(t, 3, upstream.Hits())

	var statusErr *httputil.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Equal(t, "boom", statusErr.Body)
}

func TestDo_NoRetryOnClientError(t *testing.T) {
	upstream := testutil.NewUpstream(t, http.StatusBadRequest, `{"error":"bad symbol"}`)

	resp, err := httputil.Do(context.Background(), http.DefaultClient, fastRetry, get(upstream.URL))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 1, upstream.Hits())
}

func TestDo_RespectsContextCancellation(t *testing.T) {
	ctrl := gomock.NewController(t)
	doer := NewMockDoer(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	doer.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			cancel()
			return response(http.StatusServiceUnavailable, "busy"), nil
		}).
		Times(1)

	cfg := httputil.RetryConfig{MaxAttempts: 5, BaseDelay: 10 * time.Second, MaxDelay: 10 * time.Second, Logf: func(string, ...any) {}}

	start := time.Now()
	_, err := httputil.Do(ctx, doer, cfg, get("http://upstream.test/quote"))
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestDo_SingleAttemptReturnsStatusErrorUnwrapped(t *testing.T) {
	upstream := testutil.NewUpstream(t, http.StatusBadGateway, "bad gateway")

	_, err := httputil.Do(context.Background(), http.DefaultClient, httputil.SingleAttempt, get(upstream.URL))
	require.EqualError(t, err, "API responded with status: 502")
	assert.Equal(t, 1, upstream.Hits())
}

func TestDo_SingleAttemptNetworkError(t *testing.T) {
	ctrl := gomock.NewController(t)
	doer := NewMockDoer(ctrl)

	refused := errors.New("connection refused")
	doer.EXPECT().Do(gomock.Any()).Return(nil, refused).Times(1)

	_, err := httputil.Do(context.Background(), doer, httputil.SingleAttempt, get("http://upstream.test/quote"))
	require.ErrorIs(t, err, refused)
	assert.Equal(t, "connection refused", err.Error())
}

func TestDo_RetryLogOmitsQuery(t *testing.T) {
	ctrl := gomock.NewController(t)
	doer := NewMockDoer(ctrl)

	gomock.InOrder(
		doer.EXPECT().
			Do(gomock.Any()).
			DoAndReturn(func(req *http.Request) (*http.Response, error) {
				return nil, &url.Error{Op: "Get", URL: req.URL.String(), Err: errors.New("connection refused")}
			}),
		doer.EXPECT().Do(gomock.Any()).Return(response(http.StatusOK, `{}`), nil),
	)

	var log strings.Builder
	cfg := httputil.RetryConfig{
		MaxAttempts: 2,
		BaseDelay:   time.Millisecond,
		MaxDelay:    time.Millisecond,
		Logf: func(format string, args ...any) {
			fmt.Fprintf(&log, format, args...)
		},
	}

	resp, err := httputil.Do(context.Background(), doer, cfg, get("http://upstream.test/quote?symbol=AAPL&token=abc123"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Contains(t, log.String(), "[RETRY] Attempt 1/2 failed")
	assert.Contains(t, log.String(), "http://upstream.test/quote")
	assert.NotContains(t, log.String(), "abc123")
}

func TestDo_BuildRequestError(t *testing.T) {
	ctrl := gomock.NewController(t)
	doer := NewMockDoer(ctrl)

	_, err := httputil.Do(context.Background(), doer, fastRetry, func() (*http.Request, error) {
		return nil, errors.New("bad url")
	})
	require.EqualError(t, err, "build request: bad url")
}

func TestIsSuccess(t *testing.T) {
	cases := []struct {
		code int
		want bool
	}{
		{199, false},
		{200, true},
		{204, true},
		{299, true},
		{300, false},
		{404, false},
		{500, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, httputil.IsSuccess(tc.code), "code %d", tc.code)
	}
}
