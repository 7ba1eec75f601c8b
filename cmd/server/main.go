package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kjannette/stock-data-proxy/internal/api"
	"github.com/kjannette/stock-data-proxy/internal/config"
	"github.com/kjannette/stock-data-proxy/internal/external"
	"github.com/kjannette/stock-data-proxy/internal/httputil"
)

const banner = `
╔══════════════════════════════════════╗
║        Stock Data Proxy v1.0         ║
║     Finnhub quotes · Tiingo history  ║
╚══════════════════════════════════════╝
`

func main() {
	fmt.Print(banner)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	cfg.Print(os.Stdout)

	// Upstream clients share one transport
	httpClient := &http.Client{Timeout: cfg.UpstreamTimeout()}
	retry := httputil.RetryConfig{
		MaxAttempts: cfg.UpstreamMaxAttempts,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    5 * time.Second,
	}

	finnhub := external.NewFinnhubClient(cfg.FinnhubAPIKey, external.Options{
		BaseURL:    cfg.FinnhubBaseURL,
		HTTPClient: httpClient,
		Retry:      retry,
	})
	tiingo := external.NewTiingoClient(cfg.TiingoAPIKey, external.Options{
		BaseURL:    cfg.TiingoBaseURL,
		HTTPClient: httpClient,
		Retry:      retry,
	})

	// Graceful shutdown context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := api.NewServer(finnhub, tiingo, cfg.Port, cfg.CORSAllowOrigin)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "[API] Server error: %v\n", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	fmt.Println("\nShutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "[API] Shutdown error: %v\n", err)
	}
	fmt.Println("[API] Server closed")
	fmt.Println("Shutdown complete")
}
