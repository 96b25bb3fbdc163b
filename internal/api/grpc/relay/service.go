package relay

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "magicmount.relay.v1.DeviceRelay"

// Full method names.
const (
	GetPropertyMethod = "/" + ServiceName + "/GetProperty"
	RemoveFileMethod  = "/" + ServiceName + "/RemoveFile"
	PushFileMethod    = "/" + ServiceName + "/PushFile"
	ChmodMethod       = "/" + ServiceName + "/Chmod"
)

// DevicePathMetadataKey carries the destination of a PushFile call.
const DevicePathMetadataKey = "device-path"

// MaxMessageSize is the gRPC message limit of both relay ends.
const MaxMessageSize = 64 << 20

// MaxPayloadSize bounds a pushed file, leaving room for the BytesValue tag and length prefix.
const MaxPayloadSize = MaxMessageSize - 1024

// Struct field names used by RemoveFile and Chmod requests.
const (
	FieldPath     = "path"
	FieldEscalate = "escalate"
	FieldMode     = "mode"
)

// DeviceRelayServer is the server API of the DeviceRelay service.
type DeviceRelayServer interface {
	GetProperty(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
	RemoveFile(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error)
	PushFile(ctx context.Context, req *wrapperspb.BytesValue) (*emptypb.Empty, error)
	Chmod(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error)
}

// ServiceDesc describes the DeviceRelay service for grpc.Server.RegisterService.
//
//nolint:gochecknoglobals // grpc.ServiceDesc values are package level by convention.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DeviceRelayServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetProperty", Handler: getPropertyHandler},
		{MethodName: "RemoveFile", Handler: removeFileHandler},
		{MethodName: "PushFile", Handler: pushFileHandler},
		{MethodName: "Chmod", Handler: chmodHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "magicmount/relay/v1/relay.proto",
}

// RegisterDeviceRelayServer registers srv on s.
func RegisterDeviceRelayServer(s grpc.ServiceRegistrar, srv DeviceRelayServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func getPropertyHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(DeviceRelayServer).GetProperty(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetPropertyMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DeviceRelayServer).GetProperty(ctx, req.(*wrapperspb.StringValue))
	}

	return interceptor(ctx, in, info, handler)
}

func removeFileHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(DeviceRelayServer).RemoveFile(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: RemoveFileMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DeviceRelayServer).RemoveFile(ctx, req.(*structpb.Struct))
	}

	return interceptor(ctx, in, info, handler)
}

func pushFileHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(DeviceRelayServer).PushFile(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: PushFileMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DeviceRelayServer).PushFile(ctx, req.(*wrapperspb.BytesValue))
	}

	return interceptor(ctx, in, info, handler)
}

func chmodHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(DeviceRelayServer).Chmod(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ChmodMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DeviceRelayServer).Chmod(ctx, req.(*structpb.Struct))
	}

	return interceptor(ctx, in, info, handler)
}

// DeviceRelayClient is the client API of the DeviceRelay service.
type DeviceRelayClient interface {
	GetProperty(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	RemoveFile(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error)
	PushFile(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
	Chmod(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error)
}

type deviceRelayClient struct {
	cc grpc.ClientConnInterface
}

// NewDeviceRelayClient returns a client using cc.
//
//nolint:ireturn // Mirrors the generated client constructors.
func NewDeviceRelayClient(cc grpc.ClientConnInterface) DeviceRelayClient {
	return &deviceRelayClient{cc: cc}
}

func (c *deviceRelayClient) GetProperty(
	ctx context.Context,
	in *wrapperspb.StringValue,
	opts ...grpc.CallOption,
) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, GetPropertyMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *deviceRelayClient) RemoveFile(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, RemoveFileMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *deviceRelayClient) PushFile(
	ctx context.Context,
	in *wrapperspb.BytesValue,
	opts ...grpc.CallOption,
) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, PushFileMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *deviceRelayClient) Chmod(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, ChmodMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}
