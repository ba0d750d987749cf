package grpc

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Services exchange plain Go structs carried as google.protobuf.Struct on the
// wire. The JSON tags of the Go types are the field names of the message.

// Encode converts v into a Struct message. Struct numbers are doubles, so
// integers survive exactly only within ±2^53; money and quantities above that
// are rounded.
func Encode(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	msg := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, msg); err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return msg, nil
}

// Decode fills v from a Struct message
func Decode(msg *structpb.Struct, v interface{}) error {
	raw, err := protojson.Marshal(msg)
	if err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	return nil
}

// UnaryMethod builds a grpc.MethodDesc for a handler on Go types. fullMethod
// is the "/package.Service/Method" path passed to interceptors.
func UnaryMethod[S any, Req any, Resp any](name, fullMethod string, call func(srv S, ctx context.Context, req *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := &structpb.Struct{}
			if err := dec(in); err != nil {
				return nil, err
			}
			handle := func(ctx context.Context, msg interface{}) (interface{}, error) {
				req := new(Req)
				if err := Decode(msg.(*structpb.Struct), req); err != nil {
					return nil, status.Error(codes.InvalidArgument, err.Error())
				}
				resp, err := call(srv.(S), ctx, req)
				if err != nil {
					return nil, err
				}
				return Encode(resp)
			}
			if interceptor == nil {
				return handle(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, handle)
		},
	}
}

// Invoke calls a unary method declared with UnaryMethod
func Invoke[Req any, Resp any](ctx context.Context, cc grpc.ClientConnInterface, fullMethod string, req *Req, opts ...grpc.CallOption) (*Resp, error) {
	in, err := Encode(req)
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := cc.Invoke(ctx, fullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	resp := new(Resp)
	if err := Decode(out, resp); err != nil {
		return nil, err
	}
	return resp, nil
}
