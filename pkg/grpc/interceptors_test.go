package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"go-commerce/pkg/errors"
	"go-commerce/pkg/logger"
)

var serverInfo = &grpc.UnaryServerInfo{FullMethod: "/orders.v1.OrderService/GetOrder"}

func TestUnaryServerInterceptor_TraceID(t *testing.T) {
	interceptor := UnaryServerInterceptor(logger.New("test", "error"), time.Second)
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(TraceIDMetadataKey, "trace-7"))

	var seen string
	_, err := interceptor(ctx, nil, serverInfo, func(ctx context.Context, req interface{}) (interface{}, error) {
		seen = logger.GetTraceID(ctx)
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "trace-7", seen)
}

func TestUnaryServerInterceptor_Errors(t *testing.T) {
	interceptor := UnaryServerInterceptor(logger.New("test", "error"), time.Second)

	tests := []struct {
		name    string
		handler grpc.UnaryHandler
		want    codes.Code
	}{
		{
			name: "domain rejection",
			handler: func(ctx context.Context, req interface{}) (interface{}, error) {
				return nil, errors.New(errors.CodeDispatchPrecondition, "payment required", nil)
			},
			want: codes.FailedPrecondition,
		},
		{
			name: "panic",
			handler: func(ctx context.Context, req interface{}) (interface{}, error) {
				panic("boom")
			},
			want: codes.Internal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := interceptor(context.Background(), nil, serverInfo, tt.handler)

			assert.Nil(t, resp)
			assert.Equal(t, tt.want, status.Code(err))
		})
	}
}

func TestUnaryClientInterceptor(t *testing.T) {
	interceptor := UnaryClientInterceptor(time.Second)

	t.Run("retries unavailable reads", func(t *testing.T) {
		calls := 0
		invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
			calls++
			if calls < 3 {
				return status.Error(codes.Unavailable, "connection refused")
			}
			return nil
		}

		err := interceptor(context.Background(), "/catalog.v1.CatalogService/GetProduct", nil, nil, nil, invoker)

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("does not retry writes", func(t *testing.T) {
		calls := 0
		invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
			calls++
			return status.Error(codes.Unavailable, "connection refused")
		}

		err := interceptor(context.Background(), "/orders.v1.OrderService/CancelOrder", nil, nil, nil, invoker)

		assert.Equal(t, 1, calls)
		assert.True(t, errors.Is(err, errors.CodeInternal))
	})

	t.Run("propagates trace id and maps status", func(t *testing.T) {
		var outgoing metadata.MD
		invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
			outgoing, _ = metadata.FromOutgoingContext(ctx)
			return status.Error(codes.NotFound, "order with id 'ord_1' not found")
		}
		ctx := logger.WithTraceIDContext(context.Background(), "trace-3")

		err := interceptor(ctx, "/orders.v1.OrderService/GetOrder", nil, nil, nil, invoker)

		assert.Equal(t, []string{"trace-3"}, outgoing.Get(TraceIDMetadataKey))
		assert.True(t, errors.Is(err, errors.CodeNotFound))
	})
}
