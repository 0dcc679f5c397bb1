// Package grpc serves token introspection for internal services: a login
// method and a WhoAmI method that resolves a bearer token to its user.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/thoughtboard/internal/logging"
	"github.com/dmitrijs2005/thoughtboard/internal/server/models"
	"github.com/dmitrijs2005/thoughtboard/internal/server/services"
	"github.com/dmitrijs2005/thoughtboard/internal/server/throttle"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// UserService is the subset of services.UserService used over gRPC.
type UserService interface {
	Login(ctx context.Context, username, password string) (*services.TokenPair, error)
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

type GRPCServer struct {
	address  string
	users    UserService
	limiter  throttle.Limiter
	recorder services.LoginRecorder
	logger   logging.Logger
}

// Option configures a GRPCServer.
type Option func(*GRPCServer)

// WithLoginRecorder sets the sink for logins rejected by the limiter. Other
// outcomes are recorded by the user service.
func WithLoginRecorder(r services.LoginRecorder) Option {
	return func(s *GRPCServer) {
		if r != nil {
			s.recorder = r
		}
	}
}

type nopRecorder struct{}

func (nopRecorder) RecordLogin(string) {}

// NewGRPCServer builds a server listening on address. A nil limiter disables
// login throttling.
func NewGRPCServer(address string, l logging.Logger, us UserService, limiter throttle.Limiter, opts ...Option) *GRPCServer {
	if l == nil {
		l = logging.NopLogger{}
	}
	s := &GRPCServer{
		address:  address,
		logger:   l.With("module", "grpc_server"),
		users:    us,
		limiter:  limiter,
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *GRPCServer) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}

// Serve accepts connections on lis until ctx is cancelled, then stops
// gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))

	srv.RegisterService(&AuthServiceDesc, s)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	go func() {
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping gRPC server...")
		hs.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	return srv.Serve(lis)
}
