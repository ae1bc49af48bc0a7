// Package grpcapi exposes a registry over gRPC.
//
// The service is codegen-free: requests and responses are protobuf
// well-known wrapper types, and structured payloads travel as JSON inside
// BytesValue.
package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "timelockidx.registry.v1.Registry"

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// RegistryServer is the server API for the Registry service.
//
// Command payloads (BytesValue) are JSON-encoded ScheduleRequest,
// ScheduleBatchRequest, CancelRequest, ExecuteRequest or ExecuteBatchRequest.
// Read responses (BytesValue) are JSON OperationRecord / BatchRecord values or
// arrays of them.
type RegistryServer interface {
	Schedule(context.Context, *wrapperspb.BytesValue) (*wrapperspb.StringValue, error)
	ScheduleBatch(context.Context, *wrapperspb.BytesValue) (*wrapperspb.StringValue, error)
	Cancel(context.Context, *wrapperspb.BytesValue) (*emptypb.Empty, error)
	Execute(context.Context, *wrapperspb.BytesValue) (*emptypb.Empty, error)
	ExecuteBatch(context.Context, *wrapperspb.BytesValue) (*emptypb.Empty, error)
	OperationCount(context.Context, *emptypb.Empty) (*wrapperspb.Int64Value, error)
	BatchCount(context.Context, *emptypb.Empty) (*wrapperspb.Int64Value, error)
	Operations(context.Context, *emptypb.Empty) (*wrapperspb.BytesValue, error)
	Batches(context.Context, *emptypb.Empty) (*wrapperspb.BytesValue, error)
	OperationAt(context.Context, *wrapperspb.Int64Value) (*wrapperspb.BytesValue, error)
	BatchAt(context.Context, *wrapperspb.Int64Value) (*wrapperspb.BytesValue, error)
	Operation(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
	Batch(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
}

// UnimplementedRegistryServer can be embedded to have forward compatible implementations.
type UnimplementedRegistryServer struct{}

func unimplemented(method string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", method)
}

func (UnimplementedRegistryServer) Schedule(context.Context, *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	return nil, unimplemented("Schedule")
}
func (UnimplementedRegistryServer) ScheduleBatch(context.Context, *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	return nil, unimplemented("ScheduleBatch")
}
func (UnimplementedRegistryServer) Cancel(context.Context, *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	return nil, unimplemented("Cancel")
}
func (UnimplementedRegistryServer) Execute(context.Context, *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	return nil, unimplemented("Execute")
}
func (UnimplementedRegistryServer) ExecuteBatch(context.Context, *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	return nil, unimplemented("ExecuteBatch")
}
func (UnimplementedRegistryServer) OperationCount(context.Context, *emptypb.Empty) (*wrapperspb.Int64Value, error) {
	return nil, unimplemented("OperationCount")
}
func (UnimplementedRegistryServer) BatchCount(context.Context, *emptypb.Empty) (*wrapperspb.Int64Value, error) {
	return nil, unimplemented("BatchCount")
}
func (UnimplementedRegistryServer) Operations(context.Context, *emptypb.Empty) (*wrapperspb.BytesValue, error) {
	return nil, unimplemented("Operations")
}
func (UnimplementedRegistryServer) Batches(context.Context, *emptypb.Empty) (*wrapperspb.BytesValue, error) {
	return nil, unimplemented("Batches")
}
func (UnimplementedRegistryServer) OperationAt(context.Context, *wrapperspb.Int64Value) (*wrapperspb.BytesValue, error) {
	return nil, unimplemented("OperationAt")
}
func (UnimplementedRegistryServer) BatchAt(context.Context, *wrapperspb.Int64Value) (*wrapperspb.BytesValue, error) {
	return nil, unimplemented("BatchAt")
}
func (UnimplementedRegistryServer) Operation(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	return nil, unimplemented("Operation")
}
func (UnimplementedRegistryServer) Batch(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	return nil, unimplemented("Batch")
}

// RegisterRegistryServer registers the Registry service on a gRPC server.
func RegisterRegistryServer(s grpc.ServiceRegistrar, srv RegistryServer) {
	s.RegisterService(&Registry_ServiceDesc, srv)
}

// unary builds a method handler that decodes a fresh In and dispatches to
// call, running any configured interceptor around it.
func unary[In any, Out any](name string, call func(RegistryServer, context.Context, *In) (Out, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(In)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(RegistryServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(RegistryServer), ctx, req.(*In))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Registry_ServiceDesc is the grpc.ServiceDesc for the Registry service.
var Registry_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RegistryServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Schedule", Handler: unary("Schedule", RegistryServer.Schedule)},
		{MethodName: "ScheduleBatch", Handler: unary("ScheduleBatch", RegistryServer.ScheduleBatch)},
		{MethodName: "Cancel", Handler: unary("Cancel", RegistryServer.Cancel)},
		{MethodName: "Execute", Handler: unary("Execute", RegistryServer.Execute)},
		{MethodName: "ExecuteBatch", Handler: unary("ExecuteBatch", RegistryServer.ExecuteBatch)},
		{MethodName: "OperationCount", Handler: unary("OperationCount", RegistryServer.OperationCount)},
		{MethodName: "BatchCount", Handler: unary("BatchCount", RegistryServer.BatchCount)},
		{MethodName: "Operations", Handler: unary("Operations", RegistryServer.Operations)},
		{MethodName: "Batches", Handler: unary("Batches", RegistryServer.Batches)},
		{MethodName: "OperationAt", Handler: unary("OperationAt", RegistryServer.OperationAt)},
		{MethodName: "BatchAt", Handler: unary("BatchAt", RegistryServer.BatchAt)},
		{MethodName: "Operation", Handler: unary("Operation", RegistryServer.Operation)},
		{MethodName: "Batch", Handler: unary("Batch", RegistryServer.Batch)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "registry.proto",
}

// RegistryClient is the client API for the Registry service.
type RegistryClient interface {
	Schedule(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	ScheduleBatch(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	Cancel(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
	Execute(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
	ExecuteBatch(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
	OperationCount(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.Int64Value, error)
	BatchCount(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.Int64Value, error)
	Operations(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	Batches(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	OperationAt(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	BatchAt(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	Operation(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	Batch(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
}

type registryClient struct{ cc grpc.ClientConnInterface }

// NewRegistryClient wraps cc.
func NewRegistryClient(cc grpc.ClientConnInterface) RegistryClient { return &registryClient{cc: cc} }

func invoke[Out any](ctx context.Context, cc grpc.ClientConnInterface, name string, in any, opts []grpc.CallOption) (*Out, error) {
	out := new(Out)
	if err := cc.Invoke(ctx, fullMethod(name), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *registryClient) Schedule(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	return invoke[wrapperspb.StringValue](ctx, c.cc, "Schedule", in, opts)
}

func (c *registryClient) ScheduleBatch(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	return invoke[wrapperspb.StringValue](ctx, c.cc, "ScheduleBatch", in, opts)
}

func (c *registryClient) Cancel(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, "Cancel", in, opts)
}

func (c *registryClient) Execute(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, "Execute", in, opts)
}

func (c *registryClient) ExecuteBatch(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, "ExecuteBatch", in, opts)
}

func (c *registryClient) OperationCount(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.Int64Value, error) {
	return invoke[wrapperspb.Int64Value](ctx, c.cc, "OperationCount", in, opts)
}

func (c *registryClient) BatchCount(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.Int64Value, error) {
	return invoke[wrapperspb.Int64Value](ctx, c.cc, "BatchCount", in, opts)
}

func (c *registryClient) Operations(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	return invoke[wrapperspb.BytesValue](ctx, c.cc, "Operations", in, opts)
}

func (c *registryClient) Batches(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	return invoke[wrapperspb.BytesValue](ctx, c.cc, "Batches", in, opts)
}

func (c *registryClient) OperationAt(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	return invoke[wrapperspb.BytesValue](ctx, c.cc, "OperationAt", in, opts)
}

func (c *registryClient) BatchAt(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	return invoke[wrapperspb.BytesValue](ctx, c.cc, "BatchAt", in, opts)
}

func (c *registryClient) Operation(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	return invoke[wrapperspb.BytesValue](ctx, c.cc, "Operation", in, opts)
}

func (c *registryClient) Batch(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	return invoke[wrapperspb.BytesValue](ctx, c.cc, "Batch", in, opts)
}
