package server

import (
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/jonwraymond/chatops/health"
)

// GRPCHealth mirrors overall health into a grpc.health.v1 server. It is a
// health.StatusSink.
type GRPCHealth struct {
	server  *grpchealth.Server
	service string
}

var _ health.StatusSink = (*GRPCHealth)(nil)

// NewGRPCServer creates a gRPC server with the health service registered.
// Both service and "" report NOT_SERVING until the first evaluation.
func NewGRPCServer(service string, opts ...grpc.ServerOption) (*grpc.Server, *GRPCHealth) {
	srv := grpc.NewServer(opts...)
	hs := grpchealth.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	g := &GRPCHealth{server: hs, service: service}
	g.SetHealthy(false)
	return srv, g
}

// SetHealthy updates the serving status of the service and of "".
func (g *GRPCHealth) SetHealthy(healthy bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if healthy {
		status = healthpb.HealthCheckResponse_SERVING
	}
	g.server.SetServingStatus(g.service, status)
	g.server.SetServingStatus("", status)
}

// Shutdown marks every service NOT_SERVING ahead of a graceful stop.
func (g *GRPCHealth) Shutdown() {
	g.server.Shutdown()
}
