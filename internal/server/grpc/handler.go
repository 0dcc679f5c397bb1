package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/thoughtboard/internal/common"
	"github.com/dmitrijs2005/thoughtboard/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func (s *GRPCServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	username := req.GetFields()["username"].GetStringValue()
	password := req.GetFields()["password"].GetStringValue()
	if username == "" || password == "" {
		return nil, status.Error(codes.InvalidArgument, "username and password are required")
	}

	if s.limiter != nil {
		allowed, _, err := s.limiter.Allow(ctx, username)
		if err != nil {
			s.logger.Warn(ctx, "login limiter unavailable", "error", err)
		} else if !allowed {
			s.recorder.RecordLogin(services.LoginThrottled)
			return nil, status.Error(codes.ResourceExhausted, "too many failed login attempts")
		}
	}

	pair, err := s.users.Login(ctx, username, password)
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) && s.limiter != nil {
			if ferr := s.limiter.Fail(ctx, username); ferr != nil {
				s.logger.Warn(ctx, "login limiter unavailable", "error", ferr)
			}
		}
		return nil, toStatus(err)
	}

	if s.limiter != nil {
		if rerr := s.limiter.Reset(ctx, username); rerr != nil {
			s.logger.Warn(ctx, "login limiter unavailable", "error", rerr)
		}
	}

	return structpb.NewStruct(map[string]any{
		"access_token": pair.AccessToken,
		"token_type":   pair.TokenType,
	})
}

func (s *GRPCServer) WhoAmI(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	user, ok := userFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}
	return wrapperspb.String(user.Username), nil
}

// toStatus maps service errors to gRPC status errors without leaking causes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, "invalid credentials")
	case common.IsTokenError(err):
		return status.Error(codes.Unauthenticated, "could not validate credentials")
	case errors.Is(err, common.ErrUnavailable):
		return status.Error(codes.Unavailable, "service temporarily unavailable")
	case errors.Is(err, common.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
