package middleware

import (
	"context"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RPCRecorder receives one observation per finished call.
type RPCRecorder interface {
	RecordRPC(method, code string, d time.Duration)
}

// Logging logs every unary call and turns panics into Internal errors.
// It also feeds rec when rec is not nil.
func Logging(log *zap.Logger, rec RPCRecorder) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (resp any, err error) {
		start := time.Now()
		defer func() {
			if p := recover(); p != nil {
				log.Error("panic in handler",
					zap.String("method", info.FullMethod),
					zap.Any("panic", p),
					zap.ByteString("stack", debug.Stack()))
				err = status.Error(codes.Internal, "internal error")
			}
			observe(log, rec, info.FullMethod, start, err)
		}()
		return next(ctx, req)
	}
}

func StreamLogging(log *zap.Logger, rec RPCRecorder) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, next grpc.StreamHandler) (err error) {
		start := time.Now()
		defer func() {
			if p := recover(); p != nil {
				log.Error("panic in stream",
					zap.String("method", info.FullMethod),
					zap.Any("panic", p),
					zap.ByteString("stack", debug.Stack()))
				err = status.Error(codes.Internal, "internal error")
			}
			observe(log, rec, info.FullMethod, start, err)
		}()
		return next(srv, ss)
	}
}

func observe(log *zap.Logger, rec RPCRecorder, method string, start time.Time, err error) {
	d := time.Since(start)
	code := status.Code(err)
	if rec != nil {
		rec.RecordRPC(method, code.String(), d)
	}
	fields := []zap.Field{
		zap.String("method", method),
		zap.String("code", code.String()),
		zap.Duration("duration", d),
	}
	switch code {
	case codes.OK, codes.Canceled:
		log.Debug("rpc", fields...)
	case codes.Internal, codes.Unknown, codes.DataLoss:
		log.Error("rpc", append(fields, zap.Error(err))...)
	default:
		log.Info("rpc", append(fields, zap.String("msg", status.Convert(err).Message()))...)
	}
}
