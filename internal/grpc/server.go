package grpc

import (
	"context"
	"log"
	"net"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"chat-backend/internal/observability"
)

// ServiceName is the health service key reported alongside the overall status.
const ServiceName = "chat.Backend"

// Pinger checks a dependency.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Server exposes the standard gRPC health protocol and keeps it in step with
// database readiness.
type Server struct {
	srv      *grpclib.Server
	health   *health.Server
	db       Pinger
	interval time.Duration
}

// NewServer builds the gRPC server. db may be nil, in which case the service
// always reports SERVING.
func NewServer(db Pinger, interval time.Duration) *Server {
	srv := grpclib.NewServer(
		grpclib.StatsHandler(otelgrpc.NewServerHandler()),
		grpclib.UnaryInterceptor(observability.GRPCServerMetricsUnaryInterceptor()),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Server{srv: srv, health: hs, db: db, interval: interval}
}

// Refresh pings the database once and updates the reported status.
func (s *Server) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if s.db != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := s.db.PingContext(pingCtx)
		cancel()
		if err != nil {
			log.Printf("grpc health: database ping failed: %v", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
	return status
}

// Serve accepts connections on lis and refreshes health until ctx ends.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.Refresh(ctx)
	go s.watch(ctx)
	return s.srv.Serve(lis)
}

func (s *Server) watch(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}

// Shutdown marks the service as not serving and drains in-flight calls.
func (s *Server) Shutdown() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}
