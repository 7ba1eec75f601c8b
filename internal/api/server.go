package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
)

type Server struct {
	stocks     StockSource
	history    HistorySource
	router     *mux.Router
	httpServer *http.Server
	log        io.Writer
}

func NewServer(stocks StockSource, history HistorySource, port int, corsOrigin string) *Server {
	s := &Server{
		stocks:  stocks,
		history: history,
		log:     os.Stdout,
	}

	opts := HandlerOptions{CORSOrigin: corsOrigin, Log: s.log}

	r := mux.NewRouter()

	// Proxy routes (method checks happen inside the handlers)
	r.Handle("/api/stock-data", NewStockDataHandler(stocks, history, opts))
	r.Handle("/api/historical-data", NewHistoryHandler(history, opts))

	// Health check
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	s.router = r
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	fmt.Fprintf(s.log, "[API] Stock data proxy started on http://localhost%s\n", s.httpServer.Addr)
	fmt.Fprintf(s.log, "[API] Quotes/profiles: http://localhost%s/api/stock-data?symbol=AAPL&type=quote\n", s.httpServer.Addr)
	fmt.Fprintf(s.log, "[API] History: http://localhost%s/api/historical-data?symbol=AAPL\n", s.httpServer.Addr)
	fmt.Fprintf(s.log, "[API] Health check: http://localhost%s/health\n", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// --- middleware ---

func corsMiddleware(next http.Handler, allowOrigin string) http.Handler {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- response helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}
