// Package handler exposes process health over REST and the standard gRPC health protocol.
package handler

import (
	"context"
	"time"

	"go.uber.org/zap"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"thatsmartsite/backend/internal/health"
)

// Service is the gRPC service name reported alongside the overall ("") status.
const Service = "thatsmartsite.Backend"

// GRPC keeps a grpc health server in step with the Checker.
type GRPC struct {
	checker *health.Checker
	server  *grpchealth.Server
	log     *zap.Logger
}

// NewGRPC returns a GRPC whose statuses start as NOT_SERVING until the first Sync.
func NewGRPC(checker *health.Checker, log *zap.Logger) *GRPC {
	if log == nil {
		log = zap.NewNop()
	}
	s := grpchealth.NewServer()
	s.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	s.SetServingStatus(Service, healthpb.HealthCheckResponse_NOT_SERVING)
	return &GRPC{checker: checker, server: s, log: log}
}

// Server is the registrable health service.
func (g *GRPC) Server() healthpb.HealthServer { return g.server }

// Sync runs the readiness probe once and publishes the result.
func (g *GRPC) Sync(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if reason, _ := g.checker.Ready(ctx); reason != "" {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		g.log.Debug("grpc health not serving", zap.String("reason", reason))
	}
	g.server.SetServingStatus("", status)
	g.server.SetServingStatus(Service, status)
	return status
}

// Run calls Sync every interval until ctx is done, then marks everything NOT_SERVING.
func (g *GRPC) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	g.Sync(ctx)
	for {
		select {
		case <-ctx.Done():
			g.server.Shutdown()
			return
		case <-t.C:
			g.Sync(ctx)
		}
	}
}
