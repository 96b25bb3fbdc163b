package relay

import (
	"context"
	"os"
	"path"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/magic-mount/releaser/internal/device"
	"github.com/magic-mount/releaser/internal/logger"
)

// Server implements the DeviceRelay gRPC API on top of a local channel.
type Server struct {
	// channel is the device attached to this host.
	channel device.Channel
	// spoolDir receives pushed files before they are forwarded to the device.
	spoolDir string
}

var _ DeviceRelayServer = (*Server)(nil)

// NewServer wires the provided channel into a gRPC handler.
// Pushed files are spooled in spoolDir, or the system temporary directory when empty.
func NewServer(channel device.Channel, spoolDir string) *Server {
	return &Server{
		channel:  channel,
		spoolDir: spoolDir,
	}
}

// GetProperty returns a device property.
func (s *Server) GetProperty(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "property key is required")
	}

	value, err := s.channel.GetProperty(ctx, req.GetValue())
	if err != nil {
		return nil, status.Errorf(codes.Unavailable, "device unreachable: %v", err)
	}

	return wrapperspb.String(value), nil
}

// RemoveFile deletes a device file.
func (s *Server) RemoveFile(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	devicePath, err := requirePath(req)
	if err != nil {
		return nil, err
	}

	escalate := req.GetFields()[FieldEscalate].GetBoolValue()

	if err = s.channel.RemoveFile(ctx, devicePath, escalate); err != nil {
		return nil, status.Errorf(codes.FailedPrecondition, "remove %s: %v", devicePath, err)
	}

	return new(emptypb.Empty), nil
}

// PushFile spools the payload and pushes it to the device path named in the request metadata.
func (s *Server) PushFile(ctx context.Context, req *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	md, _ := metadata.FromIncomingContext(ctx)

	values := md.Get(DevicePathMetadataKey)
	if len(values) == 0 || !path.IsAbs(values[0]) {
		return nil, status.Errorf(codes.InvalidArgument, "absolute %s metadata is required", DevicePathMetadataKey)
	}

	devicePath := values[0]

	spool, err := os.CreateTemp(s.spoolDir, "mm-relay-*")
	if err != nil {
		return nil, status.Errorf(codes.Internal, "spool payload: %v", err)
	}

	defer func() {
		_ = os.Remove(spool.Name())
	}()

	_, err = spool.Write(req.GetValue())
	if closeErr := spool.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		return nil, status.Errorf(codes.Internal, "spool payload: %v", err)
	}

	if err = s.channel.PushFile(ctx, spool.Name(), devicePath); err != nil {
		return nil, status.Errorf(codes.Aborted, "push %s: %v", devicePath, err)
	}

	return new(emptypb.Empty), nil
}

// Chmod changes the mode of a device file.
func (s *Server) Chmod(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	devicePath, err := requirePath(req)
	if err != nil {
		return nil, err
	}

	mode := req.GetFields()[FieldMode].GetNumberValue()
	if mode <= 0 || mode > float64(os.ModePerm) {
		return nil, status.Error(codes.InvalidArgument, "mode must be a permission value")
	}

	if err = s.channel.Chmod(ctx, devicePath, os.FileMode(mode)); err != nil {
		return nil, status.Errorf(codes.Aborted, "chmod %s: %v", devicePath, err)
	}

	return new(emptypb.Empty), nil
}

// requirePath extracts an absolute device path from a request struct.
func requirePath(req *structpb.Struct) (string, error) {
	devicePath := req.GetFields()[FieldPath].GetStringValue()
	if devicePath == "" || !path.IsAbs(devicePath) {
		return "", status.Error(codes.InvalidArgument, "absolute path is required")
	}

	return devicePath, nil
}

// LoggingInterceptor logs each call with its duration and status code.
func LoggingInterceptor(base context.Context) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		started := time.Now()
		resp, err := handler(ctx, req)

		kvs := []any{"method", path.Base(info.FullMethod), "code", status.Code(err), "duration", time.Since(started)}

		if err != nil {
			logger.WarnKV(base, "Relay call failed", append(kvs, "error", status.Convert(err).Message())...)
		} else {
			logger.DebugKV(base, "Relay call", kvs...)
		}

		return resp, err
	}
}
