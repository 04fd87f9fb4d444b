// Package grpc serves the standard gRPC health protocol so orchestrators can
// probe the chat service without going through the HTTP API.
package grpc

import (
	"context"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dmitrijs2005/medchat/internal/logging"
)

// ChatServiceName is the health entry that follows model availability.
const ChatServiceName = "medchat.Chat"

type HealthServer struct {
	address string
	logger  logging.Logger
	health  *health.Server
}

func NewHealthServer(a string, l logging.Logger, chatAvailable bool) *HealthServer {
	s := &HealthServer{
		address: a,
		logger:  l.With("module", "grpc_health"),
		health:  health.NewServer(),
	}
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.SetChatAvailable(chatAvailable)
	return s
}

// SetChatAvailable flips the medchat.Chat entry between SERVING and NOT_SERVING.
func (s *HealthServer) SetChatAvailable(ok bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(ChatServiceName, st)
}

func (s *HealthServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	healthpb.RegisterHealthServer(srv, s.health)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC health server...")
		// watchers get NOT_SERVING before the connection drops
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC health server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
