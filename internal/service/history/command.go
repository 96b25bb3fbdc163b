package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/magic-mount/releaser/internal/logger"
	"github.com/magic-mount/releaser/internal/service/common"
	"github.com/magic-mount/releaser/internal/service/installer"
)

// Options contains inputs for the history command.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// Limit caps the number of listed entries; zero lists everything.
	Limit int
	// ReportID shows one recorded deployment report instead of the list.
	ReportID string
	// Format selects the report rendering: text or yaml.
	Format string
	// Output receives the listing; os.Stdout when nil.
	Output io.Writer
}

// ErrHistoryDisabled is returned when the settings turn the history off.
var ErrHistoryDisabled = errors.New("release history is disabled")

// Run lists the history or shows one deployment report.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "history")

	w, err := common.OpenWorkspace(ctx, opts.ConfigPath)
	if err != nil {
		return err
	}

	defer func() {
		_ = w.Close()
	}()

	if w.History == nil {
		return ErrHistoryDisabled
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	if opts.ReportID != "" {
		report, err := w.History.Deployment(ctx, opts.ReportID)
		if err != nil {
			return err
		}

		return installer.Render(out, report, opts.Format)
	}

	entries, err := w.History.List(ctx, opts.Limit)
	if err != nil {
		return err
	}

	logger.DebugKV(ctx, "History loaded", "entries", len(entries))

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0) //nolint:mnd // Column padding.
	fmt.Fprintln(tw, "TIME\tKIND\tVARIANT\tSTATUS\tACTOR\tID\tDETAIL")

	for _, e := range entries {
		status := "ok"
		if !e.Success {
			status = "failed"
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.At.Local().Format(time.DateTime), e.Kind, e.Variant, status, e.Actor, e.ID, e.Detail)
	}

	return tw.Flush()
}
