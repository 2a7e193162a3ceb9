// Package service exposes the process-level health and metrics endpoints.
package service

import (
	"context"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Service is the HTTP sidecar serving /healthz and /metrics.
type Service struct {
	addr   string
	server *http.Server
}

func New(addr string) *Service {
	return &Service{addr: addr}
}

// Start begins serving in the background. Listen errors are logged, not
// fatal; the orchestrated run does not depend on the sidecar.
func (s *Service) Start(ctx context.Context) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("Service endpoints listening", "addr", s.addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Service server error", "error", err)
		}
	}()
}

// Shutdown drains the server, bounded by a short timeout.
func (s *Service) Shutdown() {
	if s.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		log.Error("Service shutdown error", "error", err)
	}
}
