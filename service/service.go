// Package service exposes the batch's Prometheus metrics over HTTP for CI
// environments that scrape long-running suites. Disabled unless an address is
// configured.
package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ethereum-optimism/infra/op-golden/metrics"
)

type Service struct {
	Metrics *MetricsServer
}

func New() *Service {
	return &Service{
		Metrics: &MetricsServer{},
	}
}

func (s *Service) Start(ctx context.Context, addr string) {
	go func() {
		log.Info("starting metrics server", "addr", addr)
		if err := s.Metrics.Start(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("error starting metrics server", "err", err)
			metrics.RecordError("metrics_server")
		}
	}()
}

func (s *Service) Shutdown() {
	_ = s.Metrics.Shutdown()
	log.Info("metrics stopped")
}

type MetricsServer struct {
	ctx    context.Context
	server *http.Server
}

func (m *MetricsServer) Start(ctx context.Context, addr string) error {
	hdlr := http.NewServeMux()
	hdlr.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Handler: hdlr,
		Addr:    addr,
	}
	m.server = server
	m.ctx = ctx
	return m.server.ListenAndServe()
}

func (m *MetricsServer) Shutdown() error {
	if m.server == nil {
		return nil
	}
	return m.server.Shutdown(m.ctx)
}
