package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"github.com/oggyb/crush-connector/internal/config"
	"github.com/oggyb/crush-connector/internal/logger"
)

// NewGRPCServer builds a gRPC server with request logging and registers all
// provided services.
func NewGRPCServer(registrars ...Registrar) *grpc.Server {
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(LoggingInterceptor(logger.L())))

	// register all services
	for _, r := range registrars {
		r.Register(grpcServer)
	}

	// enable reflection so grpcurl can list services
	reflection.Register(grpcServer)
	return grpcServer
}

// StartGRPCServer boots a gRPC server and serves until ctx is done.
func StartGRPCServer(ctx context.Context, cfg *config.Config, registrars ...Registrar) error {
	addr := fmt.Sprintf("%s:%s", cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	grpcServer := NewGRPCServer(registrars...)
	go func() {
		<-ctx.Done()
		grpcServer.GracefulStop()
	}()

	return grpcServer.Serve(lis)
}

// LoggingInterceptor logs every unary call with its duration and outcome.
func LoggingInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if err != nil {
			log.Warn("rpc failed", "method", info.FullMethod, "duration", time.Since(start), "err", err)
			return resp, err
		}
		log.Debug("rpc ok", "method", info.FullMethod, "duration", time.Since(start))
		return resp, nil
	}
}
