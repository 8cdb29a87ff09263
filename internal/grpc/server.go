package igrpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"squad-service/internal/apperr"
)

// ServiceName is the health-check service name reported alongside the
// overall server status.
const ServiceName = "squad.Service"

const probeInterval = 10 * time.Second

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// StartGRPCServer serves the gRPC health service on addr. Health follows the
// database: NOT_SERVING while db pings fail.
func StartGRPCServer(ctx context.Context, addr string, db Pinger) (*grpc.Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	srv := NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	go watchHealth(ctx, hs, db, probeInterval)

	go func() {
		<-ctx.Done()
		hs.Shutdown()
		srv.GracefulStop()
	}()

	go func() {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			slog.Error("gRPC server error", "error", err)
		}
	}()

	return srv, nil
}

// NewServer returns a gRPC server with the error-mapping interceptor
// installed.
func NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(UnaryErrorInterceptor))
	return grpc.NewServer(opts...)
}

// UnaryErrorInterceptor converts typed errors into gRPC statuses carrying an
// ErrorInfo reason and turns handler panics into Internal.
func UnaryErrorInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("gRPC handler panicked", "method", info.FullMethod, "panic", fmt.Sprint(r))
			resp, err = nil, status.Error(codes.Internal, "internal error")
		}
	}()

	resp, err = handler(ctx, req)
	if err == nil {
		return resp, nil
	}
	if _, ok := status.FromError(err); ok {
		return resp, err
	}
	return resp, apperr.GRPCStatus(err).Err()
}

func watchHealth(ctx context.Context, hs *health.Server, db Pinger, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		probeHealth(ctx, hs, db)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func probeHealth(ctx context.Context, hs *health.Server, db Pinger) {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	state := healthpb.HealthCheckResponse_SERVING
	if err := db.PingContext(pingCtx); err != nil {
		slog.Warn("database ping failed", "error", err)
		state = healthpb.HealthCheckResponse_NOT_SERVING
	}
	hs.SetServingStatus("", state)
	hs.SetServingStatus(ServiceName, state)
}
