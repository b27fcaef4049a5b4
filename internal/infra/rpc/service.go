// Package rpc is the gRPC transport between orb clients and object adapters.
//
// The service is registered by hand with google.protobuf.Struct messages, so
// no generated code is needed:
//
//	orb.v1.Invocation/Invoke(Struct{adapter, object_id, operation, args}) -> Struct{kind, result}
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName      = "orb.v1.Invocation"
	FullMethodInvoke = "/" + ServiceName + "/Invoke"
)

// invocationServer is the server API of the Invocation service.
type invocationServer interface {
	Invoke(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

func invokeHandler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(invocationServer).Invoke(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: FullMethodInvoke,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(invocationServer).Invoke(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// ServiceDesc describes the Invocation service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*invocationServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Invoke",
			Handler:    invokeHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "orb/v1/invocation.proto",
}
