package grpcx

import (
	"context"
	"log/slog"
	"net"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// NewServer builds a gRPC server with tracing, request ids and access logging wired in.
func NewServer(logger *slog.Logger, extra ...grpc.ServerOption) *grpc.Server {
	opts := []grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			UnaryServerRequestIDInterceptor(),
			UnaryServerLoggingInterceptor(logger),
		),
	}
	opts = append(opts, extra...)
	return grpc.NewServer(opts...)
}

// HealthReporter keeps the standard grpc.health.v1 status of a service in
// sync with a readiness probe.
type HealthReporter struct {
	server  *health.Server
	service string
	probe   func(context.Context) bool
	every   time.Duration
	logger  *slog.Logger
}

func RegisterHealth(srv *grpc.Server, service string, probe func(context.Context) bool, every time.Duration, logger *slog.Logger) *HealthReporter {
	if every <= 0 {
		every = 10 * time.Second
	}
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus(service, healthpb.HealthCheckResponse_NOT_SERVING)
	return &HealthReporter{server: hs, service: service, probe: probe, every: every, logger: logger}
}

// Run polls the probe until ctx is done, then marks everything NOT_SERVING.
func (h *HealthReporter) Run(ctx context.Context) {
	ticker := time.NewTicker(h.every)
	defer ticker.Stop()

	last := healthpb.HealthCheckResponse_UNKNOWN
	for {
		next := healthpb.HealthCheckResponse_NOT_SERVING
		if h.probe == nil || h.probe(ctx) {
			next = healthpb.HealthCheckResponse_SERVING
		}
		if next != last {
			h.server.SetServingStatus(h.service, next)
			h.server.SetServingStatus("", next)
			h.logger.Info("grpc health status changed", "service", h.service, "status", next.String())
			last = next
		}

		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return
		case <-ticker.C:
		}
	}
}

// Serve listens on addr and serves until ctx is done.
func Serve(ctx context.Context, srv *grpc.Server, addr string, logger *slog.Logger) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		srv.GracefulStop()
	}()
	logger.Info("grpc server starting", "addr", addr)
	return srv.Serve(lis)
}
