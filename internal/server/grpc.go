// Package server assembles the REST router and the gRPC health server.
package server

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// GRPCOptions configures NewGRPCServer.
type GRPCOptions struct {
	Logger *zap.Logger
	// Tracing adds the otelgrpc stats handler.
	Tracing bool
}

// NewGRPCServer returns a gRPC server exposing only grpc.health.v1.Health backed by hs.
func NewGRPCServer(hs healthpb.HealthServer, opts GRPCOptions) *grpc.Server {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	serverOpts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(RecoveryUnary(log), LoggingUnary(log)),
	}
	if opts.Tracing {
		serverOpts = append(serverOpts, grpc.StatsHandler(otelgrpc.NewServerHandler()))
	}
	s := grpc.NewServer(serverOpts...)
	RegisterServices(s, hs)
	return s
}

// RegisterServices registers the health service with s.
func RegisterServices(s grpc.ServiceRegistrar, hs healthpb.HealthServer) {
	healthpb.RegisterHealthServer(s, hs)
}

// RecoveryUnary turns a handler panic into codes.Internal.
func RecoveryUnary(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		defer func() {
			if p := recover(); p != nil {
				log.Error("grpc: panic recovered", zap.String("method", info.FullMethod), zap.String("panic", fmt.Sprint(p)))
				err = status.Error(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}

// LoggingUnary logs failed RPCs at Warn and the rest at Debug.
func LoggingUnary(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("duration", time.Since(start)),
		}
		if err != nil {
			log.Warn("gRPC request", fields...)
		} else {
			log.Debug("gRPC request", fields...)
		}
		return resp, err
	}
}
