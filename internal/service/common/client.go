//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/magic-mount/releaser/internal/api/grpc/relay"
	"github.com/magic-mount/releaser/internal/config"
	"github.com/magic-mount/releaser/internal/device"
)

// Client is a device channel served by a remote device relay.
type Client struct {
	// conn is the underlying gRPC connection to the relay.
	conn *grpc.ClientConn
	// api is the DeviceRelay client interface.
	api relay.DeviceRelayClient

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
}

var _ device.Channel = (*Client)(nil)

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for relay calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")
	// errPayloadTooLarge is returned when a pushed file exceeds the relay message limit.
	errPayloadTooLarge = errors.New("file exceeds relay message size")
)

// Dial establishes a gRPC connection to a device relay.
// Note: this uses insecure transport credentials; run the relay on a trusted network.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.MaxCallSendMsgSize(relay.MaxMessageSize)),
	)
	if err != nil {
		return nil, fmt.Errorf("dial device relay: %w", err)
	}

	client := &Client{
		conn:        conn,
		api:         relay.NewDeviceRelayClient(conn),
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// GetProperty reads a device property through the relay.
func (c *Client) GetProperty(ctx context.Context, key string) (string, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.GetProperty(callCtx, wrapperspb.String(key))
	if err != nil {
		return "", fmt.Errorf("get property %s: %w", key, err)
	}

	return resp.GetValue(), nil
}

// RemoveFile removes a device file through the relay.
func (c *Client) RemoveFile(ctx context.Context, path string, escalate bool) error {
	req, err := structpb.NewStruct(map[string]any{
		relay.FieldPath:     path,
		relay.FieldEscalate: escalate,
	})
	if err != nil {
		return fmt.Errorf("build remove request: %w", err)
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if _, err = c.api.RemoveFile(callCtx, req); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}

	return nil
}

// PushFile uploads a host file to the device path.
func (c *Client) PushFile(ctx context.Context, localPath, devicePath string) error {
	info, err := os.Stat(localPath)
	if err != nil {
		return fmt.Errorf("stat %s: %w", localPath, err)
	}

	if info.Size() > relay.MaxPayloadSize {
		return fmt.Errorf("%s (%d bytes): %w", localPath, info.Size(), errPayloadTooLarge)
	}

	contents, err := os.ReadFile(filepath.Clean(localPath))
	if err != nil {
		return fmt.Errorf("read %s: %w", localPath, err)
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	callCtx = metadata.AppendToOutgoingContext(callCtx, relay.DevicePathMetadataKey, devicePath)

	if _, err = c.api.PushFile(callCtx, wrapperspb.Bytes(contents)); err != nil {
		return fmt.Errorf("push %s: %w", devicePath, err)
	}

	return nil
}

// Chmod changes the mode of a device file through the relay.
func (c *Client) Chmod(ctx context.Context, path string, mode os.FileMode) error {
	req, err := structpb.NewStruct(map[string]any{
		relay.FieldPath: path,
		relay.FieldMode: float64(mode.Perm()),
	})
	if err != nil {
		return fmt.Errorf("build chmod request: %w", err)
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if _, err = c.api.Chmod(callCtx, req); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}

	return nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
