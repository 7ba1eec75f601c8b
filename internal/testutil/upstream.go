package testutil

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"sync"
	"testing"

	"github.com/joho/godotenv"
)

// Upstream is a fake provider API that answers every request with a fixed
// status and body and records the URLs it was asked for.
type Upstream struct {
	*httptest.Server

	mu   sync.Mutex
	urls []url.URL
}

// NewUpstream starts a fake provider. It is closed when the test ends.
func NewUpstream(t *testing.T, status int, body string) *Upstream {
	t.Helper()

	u := &Upstream{}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		u.urls = append(u.urls, *r.URL)
		u.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(u.Close)
	return u
}

func (u *Upstream) Hits() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.urls)
}

// LastURL returns the most recent request URL, or nil if none arrived.
func (u *Upstream) LastURL() *url.URL {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.urls) == 0 {
		return nil
	}
	last := u.urls[len(u.urls)-1]
	return &last
}

// RequireEnv loads ../../.env and skips the test when key is unset.
func RequireEnv(t *testing.T, key string) string {
	t.Helper()

	_ = godotenv.Load("../../.env")

	v := os.Getenv(key)
	if v == "" {
		t.Skipf("%s not set, skipping", key)
	}
	return v
}
