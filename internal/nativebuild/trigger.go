package nativebuild

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/magic-mount/releaser/internal/domain/release"
	"github.com/magic-mount/releaser/internal/logger"
)

// archPlaceholder marks a command template that must run once per architecture.
const archPlaceholder = "{arch}"

// Invocation is one expanded toolchain command.
type Invocation struct {
	// Arch is set when the command targets a single architecture.
	Arch release.Architecture
	// Args is the expanded argv.
	Args []string
}

// Executor runs one invocation, streaming output lines to out.
type Executor func(ctx context.Context, dir string, args []string, out io.Writer) error

// Trigger runs the toolchain command template.
type Trigger struct {
	// Command is the argv template.
	Command []string
	// Dir is the working directory of the command.
	Dir string
	// Layout resolves the {obj_dir} and {symbols_dir} placeholders.
	Layout release.Layout
	// Verbose forwards toolchain output even when debug logging is off.
	Verbose bool
	// Exec runs invocations; ExecCommand when nil.
	Exec Executor
}

// Plan expands the template for variant. A template referencing {arch}
// yields one invocation per architecture in the given order, otherwise one.
func (t *Trigger) Plan(variant release.BuildVariant, archs []release.Architecture) []Invocation {
	if len(t.Command) == 0 {
		return nil
	}

	perArch := false

	for _, arg := range t.Command {
		if strings.Contains(arg, archPlaceholder) {
			perArch = true

			break
		}
	}

	if !perArch {
		return []Invocation{{Args: t.expand(variant, "")}}
	}

	plan := make([]Invocation, 0, len(archs))
	for _, a := range archs {
		plan = append(plan, Invocation{Arch: a, Args: t.expand(variant, a)})
	}

	return plan
}

// Build runs the toolchain for variant and blocks until it completes.
// A failing invocation stops the build and wraps release.ErrBuildFailed.
func (t *Trigger) Build(ctx context.Context, variant release.BuildVariant, archs []release.Architecture) error {
	ctx = logger.WithKV(ctx, "variant", variant.Lower())

	plan := t.Plan(variant, archs)
	if len(plan) == 0 {
		logger.Info(ctx, "No build command configured, expecting toolchain outputs to exist")

		return nil
	}

	execute := t.Exec
	if execute == nil {
		execute = ExecCommand
	}

	for _, invocation := range plan {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", release.ErrBuildFailed, err)
		}

		logger.InfoKV(ctx, "Running native build", "arch", invocation.Arch, "command", strings.Join(invocation.Args, " "))

		out := t.outputWriter(ctx, invocation.Arch)
		err := execute(ctx, t.Dir, invocation.Args, out)
		_ = out.Close()

		if err != nil {
			if invocation.Arch != "" {
				return fmt.Errorf("%w: %s %s: %w", release.ErrBuildFailed, variant.Name, invocation.Arch, err)
			}

			return fmt.Errorf("%w: %s: %w", release.ErrBuildFailed, variant.Name, err)
		}
	}

	logger.InfoKV(ctx, "Native build completed", "invocations", len(plan))

	return nil
}

func (t *Trigger) expand(variant release.BuildVariant, arch release.Architecture) []string {
	replacer := strings.NewReplacer(
		"{variant}", variant.Lower(),
		"{Variant}", variant.Capitalized(),
		"{build_type}", variant.SymbolsType(),
		"{debug}", strconv.FormatBool(variant.IsDebug),
		"{obj_dir}", t.Layout.ObjDir(variant),
		"{symbols_dir}", t.Layout.VariantSymbolsDir(variant),
		archPlaceholder, arch.String(),
	)

	args := make([]string, len(t.Command))
	for i, arg := range t.Command {
		args[i] = replacer.Replace(arg)
	}

	return args
}

// outputWriter returns a writer that logs each toolchain line at debug level.
func (t *Trigger) outputWriter(ctx context.Context, arch release.Architecture) io.WriteCloser {
	l := logger.FromContext(ctx).Named("toolchain")
	if arch != "" {
		l = l.With("arch", arch)
	}

	if t.Verbose {
		l = l.Desugar().WithOptions(logger.WithLevel(zapcore.DebugLevel)).Sugar()
	}

	return newLineLogger(l)
}

// lineLogger forwards complete lines written to it to a logger.
type lineLogger struct {
	pw   *io.PipeWriter
	done sync.WaitGroup
}

func newLineLogger(l *zap.SugaredLogger) *lineLogger {
	pr, pw := io.Pipe()
	w := &lineLogger{pw: pw}

	w.done.Add(1)

	go func() {
		defer w.done.Done()

		scanner := bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			l.Debug(scanner.Text())
		}

		_, _ = io.Copy(io.Discard, pr)
	}()

	return w
}

// Write implements io.Writer.
func (w *lineLogger) Write(p []byte) (int, error) {
	return w.pw.Write(p)
}

// Close flushes pending lines.
func (w *lineLogger) Close() error {
	err := w.pw.Close()
	w.done.Wait()

	return err
}

// ExecCommand runs args with os/exec, sending stdout and stderr to out.
func ExecCommand(ctx context.Context, dir string, args []string, out io.Writer) error {
	if len(args) == 0 {
		return nil
	}

	//nolint:gosec // The toolchain command comes from the project's own configuration.
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = dir
	cmd.Stdout = out
	cmd.Stderr = out

	return cmd.Run()
}
