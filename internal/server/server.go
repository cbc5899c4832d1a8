// Package server exposes a small introspection surface for long-running
// evaluations: connected meters, collected records and Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kestrelml/gantry/pkg/instrument"
	"github.com/kestrelml/gantry/pkg/record/memory"
)

// meterInfo is the wire form of one connected subscriber.
type meterInfo struct {
	Name  string   `json:"name"`
	Paths []string `json:"paths"`
}

// NewHandler builds the introspection router. records may be nil when no
// in-memory recorder is configured; gatherer may be nil to omit /metrics.
func NewHandler(hub *instrument.Hub, records *memory.Recorder, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/meters", func(w http.ResponseWriter, req *http.Request) {
		subs := hub.Subscribers()
		out := make([]meterInfo, 0, len(subs))
		for _, sub := range subs {
			info := meterInfo{Name: sub.Name()}
			for _, p := range sub.Paths() {
				info.Paths = append(info.Paths, p.String())
			}
			out = append(out, info)
		}
		writeJSON(w, out)
	})

	r.Get("/records", func(w http.ResponseWriter, req *http.Request) {
		if records == nil {
			http.Error(w, "no in-memory recorder configured", http.StatusNotFound)
			return
		}
		writeJSON(w, records.Records())
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encoding error", http.StatusInternalServerError)
	}
}

// Serve runs the handler until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{Addr: addr, Handler: handler}

	errc := make(chan error, 1)
	go func() {
		logger.Info("introspection server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errc:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
