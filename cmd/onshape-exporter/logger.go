package main

import (
	"fmt"
	"strings"

	onshapeexporter "github.com/kataras/onshape-exporter"
	"github.com/kataras/onshape-exporter/pkg/console"

	"go.uber.org/zap"
)

// newLogger returns the colored console logger, or a zap JSON logger when
// format is "json". The returned func flushes buffered entries.
func newLogger(format string) (onshapeexporter.Logger, func(), error) {
	switch strings.ToLower(format) {
	case "", "console":
		return &cliLogger{}, func() {}, nil
	case "json":
		zl, err := zap.NewProduction()
		if err != nil {
			return nil, nil, fmt.Errorf("create json logger: %w", err)
		}
		return &zapLogger{log: zl.Sugar().With("service", "onshape-exporter")}, func() { _ = zl.Sync() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown log format %q (must be console or json)", format)
	}
}

var (
	_ onshapeexporter.Logger = (*cliLogger)(nil)
	_ onshapeexporter.Logger = (*zapLogger)(nil)
)

// cliLogger implements onshapeexporter.Logger with severity-tagged colored terminal output.
type cliLogger struct{}

func (l *cliLogger) print(s console.Severity, format string, args ...any) {
	fmt.Printf(s.Tag()+format+"\n", args...)
}

func (l *cliLogger) Infof(format string, args ...any)     { l.print(console.Info, format, args...) }
func (l *cliLogger) Warnf(format string, args ...any)     { l.print(console.Warning, format, args...) }
func (l *cliLogger) Errorf(format string, args ...any)    { l.print(console.Error, format, args...) }
func (l *cliLogger) Successf(format string, args ...any)  { l.print(console.Succeed, format, args...) }
func (l *cliLogger) Progressf(format string, args ...any) { l.print(console.Progress, format, args...) }

// zapLogger implements onshapeexporter.Logger on top of a zap sugared logger.
// Success and progress lines are info entries tagged with an "event" field.
type zapLogger struct {
	log *zap.SugaredLogger
}

func (l *zapLogger) Infof(format string, args ...any)  { l.log.Infof(format, args...) }
func (l *zapLogger) Warnf(format string, args ...any)  { l.log.Warnf(format, args...) }
func (l *zapLogger) Errorf(format string, args ...any) { l.log.Errorf(format, args...) }

func (l *zapLogger) Successf(format string, args ...any) {
	l.log.With("event", "succeed").Infof(format, args...)
}

func (l *zapLogger) Progressf(format string, args ...any) {
	l.log.With("event", "progress").Infof(format, args...)
}
