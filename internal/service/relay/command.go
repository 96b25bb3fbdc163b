package relay

import (
	"context"
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"

	api "github.com/magic-mount/releaser/internal/api/grpc/relay"
	"github.com/magic-mount/releaser/internal/config"
	"github.com/magic-mount/releaser/internal/device"
	"github.com/magic-mount/releaser/internal/logger"
	"github.com/magic-mount/releaser/internal/service/common"
)

// Options controls the relay process.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress overrides the configured listen address.
	ListenAddress string
	// SpoolDir receives pushed files before they reach the device; the system temp dir when empty.
	SpoolDir string
}

// ErrRelayLoop is returned when the relay would forward to another relay.
var ErrRelayLoop = errors.New("the relay needs a local device transport")

// Run serves the configured device channel and blocks until ctx is canceled.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "relay")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if settings.Device.Transport == config.TransportRelay {
		return ErrRelayLoop
	}

	listenAddress := settings.Relay.Listen
	if opts.ListenAddress != "" {
		listenAddress = opts.ListenAddress
	}

	channel, closeChannel, err := common.NewChannel(ctx, settings)
	if err != nil {
		return err
	}

	defer func() {
		_ = closeChannel()
	}()

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	logger.InfoKV(ctx, "Device relay listening",
		"listen_address", lis.Addr().String(),
		"transport", settings.Device.Transport,
	)

	return Serve(ctx, lis, channel, opts.SpoolDir)
}

// Serve runs the relay on lis until ctx is canceled.
func Serve(ctx context.Context, lis net.Listener, channel device.Channel, spoolDir string) error {
	grpcServer := grpc.NewServer(
		grpc.MaxRecvMsgSize(api.MaxMessageSize),
		grpc.UnaryInterceptor(api.LoggingInterceptor(ctx)),
	)
	api.RegisterDeviceRelayServer(grpcServer, api.NewServer(channel, spoolDir))

	// The shutdown goroutine also exits when Serve fails on its own.
	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Done channel is closed after GracefulStop finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-serveCtx.Done()
		logger.Info(ctx, "Shutting down device relay")
		grpcServer.GracefulStop()
		close(done)
	}()

	if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		cancel()
		<-done

		return fmt.Errorf("serve gRPC: %w", err)
	}

	<-done
	logger.Info(ctx, "Device relay stopped")

	return nil
}
