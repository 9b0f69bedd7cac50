package simlog

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config contains logging configuration.
type Config struct {
	Level         string // debug | info | warn | error
	FilePath      string // empty disables file logging
	MaxSizeMB     int
	MaxFiles      int
	WriteToStderr bool
}

// DefaultConfig returns sensible defaults for file logging.
func DefaultConfig(filePath string) Config {
	return Config{
		Level:         "info",
		FilePath:      filePath,
		MaxSizeMB:     10,
		MaxFiles:      5,
		WriteToStderr: true,
	}
}

// DiagnosticConfig controls the verbosity of request/skill/field-mapping
// tracing, mirroring spec §6.5's DiagnosticLogging configuration keys.
type DiagnosticConfig struct {
	Enabled                   bool
	LogDocumentDetails        bool
	LogSkillExecution         bool
	LogSkillInputPayloads     bool
	LogSkillOutputPayloads    bool
	LogEnrichedDocumentState  bool
	LogFieldMappings          bool
	MaxStringLogLength        int
	IncludeTimings            bool
}

// DefaultDiagnosticConfig returns a conservative, low-noise default.
func DefaultDiagnosticConfig() DiagnosticConfig {
	return DiagnosticConfig{
		Enabled:            true,
		LogSkillExecution:  true,
		MaxStringLogLength: 256,
		IncludeTimings:     true,
	}
}

// Truncate trims s to MaxStringLogLength for safe log emission.
func (d DiagnosticConfig) Truncate(s string) string {
	if d.MaxStringLogLength <= 0 || len(s) <= d.MaxStringLogLength {
		return s
	}
	return s[:d.MaxStringLogLength] + "...(truncated)"
}

// Setup initializes file-based structured logging and returns the logger
// plus a cleanup function that flushes and closes the underlying file.
func Setup(cfg Config) (*slog.Logger, func(), error) {
	if cfg.FilePath == "" {
		handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(cfg.Level)})
		return slog.New(handler), func() {}, nil
	}

	writer, err := NewRotatingWriter(cfg.FilePath, cfg.MaxSizeMB, cfg.MaxFiles)
	if err != nil {
		return nil, nil, err
	}

	var output io.Writer = writer
	if cfg.WriteToStderr {
		output = io.MultiWriter(writer, os.Stderr)
	}

	handler := slog.NewJSONHandler(output, &slog.HandlerOptions{Level: parseLevel(cfg.Level)})
	logger := slog.New(handler)

	cleanup := func() {
		_ = writer.Sync()
		_ = writer.Close()
	}

	return logger, cleanup, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
