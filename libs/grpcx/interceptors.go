package grpcx

import (
	"context"
	"log/slog"
	"time"

	"github.com/fait-coop/scheduling/libs/requestid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// UnaryServerRequestIDInterceptor adopts the caller's x-request-id metadata
// and echoes the effective id in the response header.
func UnaryServerRequestIDInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		var incoming string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get(requestid.MetadataKey); len(vals) > 0 {
				incoming = vals[0]
			}
		}
		id := requestid.Ensure(incoming)
		_ = grpc.SetHeader(ctx, metadata.Pairs(requestid.MetadataKey, id))
		return handler(requestid.NewContext(ctx, id), req)
	}
}

// UnaryServerLoggingInterceptor logs every call at debug; health probes are
// frequent and uninteresting at info.
func UnaryServerLoggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		level := slog.LevelDebug
		if code == codes.Internal || code == codes.Unknown {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, "grpc request",
			"request_id", requestid.FromContext(ctx),
			"method", info.FullMethod,
			"code", code.String(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return resp, err
	}
}
