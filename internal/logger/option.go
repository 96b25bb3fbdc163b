package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// levelOverrideCore replaces the level check of the core it wraps.
// Records that pass are still written by the wrapped core.
type levelOverrideCore struct {
	zapcore.Core

	// minimum is the lowest level written, regardless of the global level.
	minimum zapcore.Level
}

// Enabled ignores the wrapped core's level and compares against minimum only.
func (c *levelOverrideCore) Enabled(l zapcore.Level) bool {
	return c.minimum.Enabled(l)
}

// Check registers this core for the entry when its level reaches minimum.
//
//nolint:gocritic // AddCore requires ent to be passed by value.
func (c *levelOverrideCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(ent.Level) {
		return ce
	}

	return ce.AddCore(ent, c)
}

// With keeps the override on derived loggers, e.g. the per-arch toolchain logger.
//
//nolint:ireturn,nolintlint // Returning zapcore.Core is intended for zap integration.
func (c *levelOverrideCore) With(fields []zapcore.Field) zapcore.Core {
	return &levelOverrideCore{
		Core:    c.Core.With(fields),
		minimum: c.minimum,
	}
}

// WithLevel makes a derived logger write records from lvl upwards even when
// the global level is higher. Verbose native builds use it to surface
// toolchain output logged at debug level.
//
//nolint:ireturn,nolintlint // Returning zap.Option is intended for zap integration.
func WithLevel(lvl zapcore.Level) zap.Option {
	return zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return &levelOverrideCore{Core: core, minimum: lvl}
	})
}
