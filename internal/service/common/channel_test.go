//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/magic-mount/releaser/internal/config"
	"github.com/magic-mount/releaser/internal/device"
)

// TestNewChannel_Transports verifies each transport yields the matching channel.
func TestNewChannel_Transports(t *testing.T) {
	t.Parallel()

	cfg := config.Default()

	channel, closeFn, err := NewChannel(context.Background(), cfg)
	require.NoError(t, err)
	require.IsType(t, &device.ADB{}, channel)
	require.NoError(t, closeFn())

	cfg.Device.Transport = config.TransportDir
	cfg.Device.Root = t.TempDir()

	channel, closeFn, err = NewChannel(context.Background(), cfg)
	require.NoError(t, err)
	require.IsType(t, &device.Dir{}, channel)
	require.NoError(t, closeFn())

	cfg.Device.Transport = config.TransportRelay
	cfg.Device.RelayAddress = "127.0.0.1:50061"

	channel, closeFn, err = NewChannel(context.Background(), cfg)
	require.NoError(t, err)
	require.IsType(t, &Client{}, channel)
	require.NoError(t, closeFn())

	cfg.Device.Transport = "usb"

	_, _, err = NewChannel(context.Background(), cfg)
	require.Error(t, err)
}
