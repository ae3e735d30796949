package handler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/pesio-ai/be-procurement/internal/common/middleware"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// GRPCHandler serves the standard gRPC health protocol for the service,
// driven by periodic database pings.
type GRPCHandler struct {
	health      *health.Server
	serviceName string
	db          Pinger
	interval    time.Duration
	logger      zerolog.Logger
}

// NewGRPCHandler creates a new gRPC handler
func NewGRPCHandler(serviceName string, db Pinger, interval time.Duration, logger zerolog.Logger) *GRPCHandler {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &GRPCHandler{
		health:      health.NewServer(),
		serviceName: serviceName,
		db:          db,
		interval:    interval,
		logger:      logger.With().Str("handler", "grpc").Logger(),
	}
}

// NewServer builds a gRPC server with health and reflection registered.
func (h *GRPCHandler) NewServer() *grpc.Server {
	srv := grpc.NewServer(grpc.UnaryInterceptor(h.logUnary))
	healthpb.RegisterHealthServer(srv, h.health)
	reflection.Register(srv)
	return srv
}

// Check pings the database once and publishes the result for both the
// overall server and the named service.
func (h *GRPCHandler) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	st := healthpb.HealthCheckResponse_SERVING
	if err := h.db.Ping(ctx); err != nil {
		h.logger.Warn().Err(err).Msg("Database ping failed")
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.health.SetServingStatus("", st)
	h.health.SetServingStatus(h.serviceName, st)
	return st
}

// Run checks health every interval until ctx is done, then marks the server
// as shutting down.
func (h *GRPCHandler) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.probe(ctx)
	for {
		select {
		case <-ctx.Done():
			h.health.Shutdown()
			return
		case <-ticker.C:
			h.probe(ctx)
		}
	}
}

func (h *GRPCHandler) probe(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, h.interval/2)
	defer cancel()
	h.Check(pingCtx)
}

// logUnary logs each unary call with its request ID, taken from incoming
// metadata when the caller sent one.
func (h *GRPCHandler) logUnary(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	ev := h.logger.Debug()
	if err != nil {
		ev = h.logger.Warn().Err(err)
	}
	ev.Str("method", info.FullMethod).
		Str("request_id", incomingRequestID(ctx)).
		Str("code", status.Code(err).String()).
		Dur("duration", time.Since(start)).
		Msg("gRPC call")
	return resp, err
}

func incomingRequestID(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if v := md.Get(middleware.RequestIDHeader); len(v) > 0 {
		return v[0]
	}
	return ""
}
