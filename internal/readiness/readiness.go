// Package readiness serves the standard grpc health protocol. The overall
// status is SERVING only while a character catalog is loaded.
package readiness

import (
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/xtding233/potential-simulator/internal/catalog"
)

// Service name reported alongside the overall ("") status.
const Service = "potential-simulator"

type Reporter struct {
	health *health.Server
	log    *zap.Logger
}

// NewReporter creates a reporter that starts NOT_SERVING until a catalog is ready.
func NewReporter(log *zap.Logger) *Reporter {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Reporter{health: health.NewServer(), log: log}
	r.Set(false)
	return r
}

// Track mirrors holder readiness now and after every successful reload.
func (r *Reporter) Track(h *catalog.Holder) {
	r.Set(h.Ready())
	h.OnChange(func(catalog.Catalog) { r.Set(true) })
}

// Set updates the serving status.
func (r *Reporter) Set(ready bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ready {
		status = healthpb.HealthCheckResponse_SERVING
	}
	r.health.SetServingStatus("", status)
	r.health.SetServingStatus(Service, status)
}

// Health exposes the underlying health server.
func (r *Reporter) Health() healthpb.HealthServer {
	return r.health
}

// Serve registers the health service on a new grpc server and serves lis until Stop.
func (r *Reporter) Serve(lis net.Listener) *grpc.Server {
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, r.health)
	go func() {
		if err := srv.Serve(lis); err != nil {
			r.log.Error("grpc health server stopped", zap.Error(err))
		}
	}()
	r.log.Info("grpc health server listening", zap.String("addr", lis.Addr().String()))
	return srv
}

// Shutdown marks every service NOT_SERVING ahead of stopping.
func (r *Reporter) Shutdown() {
	r.health.Shutdown()
}
