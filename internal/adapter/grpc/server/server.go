package server

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/seu-repo/workforce-voice/internal/adapter/grpc/interceptors"
)

// ServiceVoice is the health service name reported for the voice pipeline.
const ServiceVoice = "voice"

// ReadinessFunc reports whether the pipeline can answer requests.
type ReadinessFunc func(ctx context.Context) bool

type GRPCServer struct {
	server *grpc.Server
	health *health.Server
	log    *zap.Logger
}

func NewGRPCServer(log *zap.Logger, opts ...grpc.ServerOption) *GRPCServer {
	opts = append([]grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			interceptors.UnaryLoggingInterceptor(log),
			interceptors.UnaryMetricsInterceptor(),
		),
		grpc.ChainStreamInterceptor(
			interceptors.StreamLoggingInterceptor(log),
			interceptors.StreamMetricsInterceptor(),
		),
	}, opts...)
	s := grpc.NewServer(opts...)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceVoice, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(s, hs)

	// grpcurl and friends.
	reflection.Register(s)

	return &GRPCServer{
		server: s,
		health: hs,
		log:    log,
	}
}

// SetServing updates the voice service status.
func (s *GRPCServer) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(ServiceVoice, st)
}

// WatchReadiness re-evaluates ready every interval until ctx ends.
func (s *GRPCServer) WatchReadiness(ctx context.Context, interval time.Duration, ready ReadinessFunc) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	last := ready(ctx)
	s.SetServing(last)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if now := ready(ctx); now != last {
				s.log.Info("Voice service readiness changed", zap.Bool("serving", now))
				s.SetServing(now)
				last = now
			}
		}
	}
}

func (s *GRPCServer) Serve(lis net.Listener) error {
	return s.server.Serve(lis)
}

func (s *GRPCServer) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
