package grpc

import (
	"context"
	"runtime/debug"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"go-commerce/pkg/errors"
	"go-commerce/pkg/logger"
)

const (
	// TraceIDMetadataKey is the metadata key for trace ID
	TraceIDMetadataKey = "x-trace-id"

	tracerName = "go-commerce/pkg/grpc"
)

// UnaryServerInterceptor tags the call with a trace id and a span, bounds it
// by timeout, recovers panics and converts returned errors to gRPC statuses.
// Rejections caused by the caller are logged at warn, everything else at error.
func UnaryServerInterceptor(log *logger.Logger, timeout time.Duration) grpc.UnaryServerInterceptor {
	tracer := otel.Tracer(tracerName)

	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp interface{}, err error) {
		start := time.Now()

		traceID := extractTraceID(ctx)
		if traceID == "" {
			traceID = uuid.New().String()
		}
		ctx = logger.WithTraceIDContext(ctx, traceID)

		ctx, span := tracer.Start(ctx, info.FullMethod,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("trace.id", traceID)))
		defer span.End()

		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		defer func() {
			if r := recover(); r != nil {
				log.WithContext(ctx).Error("grpc handler panic",
					zap.String("method", info.FullMethod),
					zap.Any("panic", r),
					zap.String("stack", string(debug.Stack())),
				)
				resp, err = nil, status.Error(codes.Internal, "internal error")
			}
		}()

		resp, err = handler(ctx, req)

		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.Duration("duration", time.Since(start)),
		}
		if err == nil {
			log.WithContext(ctx).Info("grpc request completed", fields...)
			return resp, nil
		}

		converted := errors.GRPCStatus(err)
		code := status.Code(converted)
		fields = append(fields, zap.String("grpc_code", code.String()), zap.Error(err))
		if callerFault(code) {
			log.WithContext(ctx).Warn("grpc request rejected", fields...)
		} else {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, code.String())
			log.WithContext(ctx).Error("grpc request failed", fields...)
		}
		return nil, converted
	}
}

// UnaryClientInterceptor propagates the trace id, bounds every call by
// timeout and converts failures to *errors.AppError. Read-only methods
// (named Get*) are retried with backoff while the server is unavailable.
func UnaryClientInterceptor(timeout time.Duration) grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply interface{},
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		if traceID := logger.GetTraceID(ctx); traceID != "" {
			ctx = metadata.AppendToOutgoingContext(ctx, TraceIDMetadataKey, traceID)
		}

		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		call := func() error {
			return invoker(ctx, method, req, reply, cc, opts...)
		}

		var err error
		if readOnly(method) {
			policy := backoff.NewExponentialBackOff()
			policy.InitialInterval = 50 * time.Millisecond
			policy.MaxInterval = 500 * time.Millisecond
			err = backoff.Retry(func() error {
				err := call()
				if status.Code(err) == codes.Unavailable {
					return err
				}
				if err != nil {
					return backoff.Permanent(err)
				}
				return nil
			}, backoff.WithContext(backoff.WithMaxRetries(policy, 3), ctx))
		} else {
			err = call()
		}
		if err != nil {
			return errors.FromGRPCStatus(err)
		}
		return nil
	}
}

// callerFault reports codes that describe a bad request rather than a failure
func callerFault(code codes.Code) bool {
	switch code {
	case codes.InvalidArgument, codes.NotFound, codes.AlreadyExists,
		codes.FailedPrecondition, codes.Unauthenticated, codes.PermissionDenied:
		return true
	}
	return false
}

// readOnly reports whether fullMethod ("/pkg.Service/Method") is a Get call
func readOnly(fullMethod string) bool {
	name := fullMethod[strings.LastIndex(fullMethod, "/")+1:]
	return strings.HasPrefix(name, "Get")
}

func extractTraceID(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}

	values := md.Get(TraceIDMetadataKey)
	if len(values) > 0 {
		return values[0]
	}
	return ""
}
