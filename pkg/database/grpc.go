package database

import (
	"fmt"
	"net"

	"gig_chat_service/pkg/logger"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthServer grpc health endpoint for orchestrators
type HealthServer struct {
	server *grpc.Server
	health *health.Server
	lis    net.Listener
}

// StartHealthServer serve grpc.health.v1 on addr, status starts NOT_SERVING
func StartHealthServer(addr string) (*HealthServer, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen grpc health[%s]: %w", addr, err)
	}

	s := grpc.NewServer()
	h := health.NewServer()
	h.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(s, h)

	go func() {
		if err := s.Serve(lis); err != nil {
			logger.Log.Error("grpc health server stopped", zap.Error(err))
		}
	}()

	return &HealthServer{server: s, health: h, lis: lis}, nil
}

// Addr listening address
func (h *HealthServer) Addr() string {
	return h.lis.Addr().String()
}

// SetServing flip the overall status
func (h *HealthServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus("", status)
}

// Stop shutdown the server
func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.server.GracefulStop()
}
