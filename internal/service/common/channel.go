//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"fmt"

	"github.com/magic-mount/releaser/internal/config"
	"github.com/magic-mount/releaser/internal/device"
	"github.com/magic-mount/releaser/internal/logger"
)

// CloseFunc releases resources held by a channel.
type CloseFunc func() error

func noopClose() error { return nil }

// NewChannel opens the device channel selected by the settings.
//
//nolint:ireturn // Callers only need the channel operations.
func NewChannel(ctx context.Context, cfg *config.Config) (device.Channel, CloseFunc, error) {
	settings := cfg.Device

	logger.DebugKV(ctx, "Opening device channel", "transport", settings.Transport)

	switch settings.Transport {
	case config.TransportADB:
		return &device.ADB{Path: settings.ADBPath, Serial: settings.Serial}, noopClose, nil
	case config.TransportDir:
		return &device.Dir{Root: settings.Root, Properties: settings.Properties}, noopClose, nil
	case config.TransportRelay:
		client, err := Dial(ctx, settings.RelayAddress, WithCallTimeout(settings.Timeout))
		if err != nil {
			return nil, nil, err
		}

		return client, client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown device transport %q", settings.Transport)
	}
}
