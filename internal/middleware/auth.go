package middleware

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"booking-requests-api/internal/auth"
	"booking-requests-api/internal/model"
	"booking-requests-api/internal/rpc"
)

type ctxKey string

const identityKey ctxKey = "identity"

// Identity is the authenticated caller.
type Identity struct {
	UserID string
	Role   model.Role
}

func (i Identity) IsAdmin() bool { return i.Role == model.RoleAdmin }

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok && id.UserID != ""
}

// skip auth for these
var open = map[string]bool{
	rpc.MethodRegister: true,
	rpc.MethodLogin:    true,
	rpc.MethodRefresh:  true,
}

// Authenticate checks an Authorization header value ("Bearer <jwt>").
func Authenticate(header, secret string) (Identity, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if raw == "" {
		return Identity{}, status.Error(codes.Unauthenticated, "no token")
	}
	claims, err := auth.ParseToken(raw, secret)
	if err != nil {
		return Identity{}, status.Error(codes.Unauthenticated, "bad token")
	}
	return Identity{UserID: claims.UserID, Role: claims.Role}, nil
}

func fromMetadata(ctx context.Context, secret string) (context.Context, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing metadata")
	}
	// token from Authorization: Bearer <jwt>
	header := ""
	if vals := md.Get("authorization"); len(vals) > 0 {
		header = vals[0]
	}
	id, err := Authenticate(header, secret)
	if err != nil {
		return nil, err
	}
	return WithIdentity(ctx, id), nil
}

func Auth(secret string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if open[info.FullMethod] {
			return next(ctx, req)
		}
		ctx, err := fromMetadata(ctx, secret)
		if err != nil {
			return nil, err
		}
		return next(ctx, req)
	}
}

func StreamAuth(secret string) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, next grpc.StreamHandler) error {
		ctx, err := fromMetadata(ss.Context(), secret)
		if err != nil {
			return err
		}
		return next(srv, &wrappedStream{ServerStream: ss, ctx: ctx})
	}
}

type wrappedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedStream) Context() context.Context { return w.ctx }
