package installer

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/magic-mount/releaser/internal/domain/release"
)

// Report formats.
const (
	FormatText = "text"
	FormatYAML = "yaml"
)

// errUnknownFormat is returned for an unsupported report format.
var errUnknownFormat = errors.New("unknown report format")

// ValidateFormat accepts the empty string as text.
func ValidateFormat(format string) error {
	switch format {
	case "", FormatText, FormatYAML:
		return nil
	default:
		return fmt.Errorf("%q: %w", format, errUnknownFormat)
	}
}

// Render writes the report in the requested format.
func Render(w io.Writer, report *release.DeploymentReport, format string) error {
	switch format {
	case "", FormatText:
		return renderText(w, report)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2) //nolint:mnd // Two-space YAML indentation.

		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}

		return enc.Close()
	default:
		return fmt.Errorf("%q: %w", format, errUnknownFormat)
	}
}

func renderText(w io.Writer, report *release.DeploymentReport) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Deployment %s (variant %s)\n", report.ID, report.Variant)
	fmt.Fprintf(&b, "Device: primary %s, abilist %s\n",
		report.Profile.PrimaryABI, strings.Join(report.Profile.SupportedABIs, ","))

	if report.CleanupError != "" {
		fmt.Fprintf(&b, "Cleanup: failed (%s)\n", report.CleanupError)
	} else {
		b.WriteString("Cleanup: ok\n")
	}

	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0) //nolint:mnd // Column padding.

	for _, result := range report.Results {
		detail := result.DevicePath

		if result.Primary {
			detail += " (primary)"
		}

		if result.Reason != "" {
			detail = strings.TrimSpace(detail + " " + result.Reason)
		}

		fmt.Fprintf(tw, "  %s\t%s\t%s\n", result.Entry, result.Outcome, detail)
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	b.WriteString(report.Summary())
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())

	return err
}
