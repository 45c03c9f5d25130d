package grpcserver

import (
	"context"
	"log"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is reported through grpc.health.v1 next to the overall ("") status.
const ServiceName = "sfbs.booking"

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Server is the internal gRPC endpoint: health checks backed by the
// database plus reflection for grpcurl.
type Server struct {
	srv      *grpc.Server
	health   *health.Server
	db       Pinger
	interval time.Duration
}

func New(db Pinger, interval time.Duration, opts ...grpc.ServerOption) *Server {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	s := &Server{
		srv:      grpc.NewServer(opts...),
		health:   health.NewServer(),
		db:       db,
		interval: interval,
	}
	healthpb.RegisterHealthServer(s.srv, s.health)
	reflection.Register(s.srv)

	// до первой проверки считаем, что не готовы
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// GRPC exposes the underlying server for additional registrations.
func (s *Server) GRPC() *grpc.Server { return s.srv }

// Watch probes the database every interval until ctx is done.
func (s *Server) Watch(ctx context.Context) {
	s.Check(ctx)
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Check(ctx)
		}
	}
}

// Check pings the database once and updates the serving status.
func (s *Server) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := s.db.PingContext(ctx); err != nil {
		log.Printf("[grpc] db ping: %v", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
	return status
}

func (s *Server) Serve(lis net.Listener) error {
	log.Printf("[grpc] listening on %s", lis.Addr())
	return s.srv.Serve(lis)
}

func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}
