package main

import (
	"context"

	"github.com/goliatone/go-logger/glog"

	guardrail "github.com/goliatone/go-guardrail"
)

// glogAdapter bridges go-logger to the guardrail Logger contract.
type glogAdapter struct {
	logger glog.Logger
}

func newLogger(verbose bool) guardrail.Logger {
	level := "info"
	if verbose {
		level = "debug"
	}
	return glogAdapter{logger: glog.NewLogger(glog.WithLevel(level))}
}

func (l glogAdapter) Trace(msg string, args ...any) { l.logger.Trace(msg, args...) }
func (l glogAdapter) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l glogAdapter) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l glogAdapter) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l glogAdapter) Error(msg string, args ...any) { l.logger.Error(msg, args...) }
func (l glogAdapter) Fatal(msg string, args ...any) { l.logger.Fatal(msg, args...) }

func (l glogAdapter) WithContext(ctx context.Context) guardrail.Logger {
	if l.logger == nil {
		return guardrail.NewFmtLogger(nil).WithContext(ctx)
	}
	return glogAdapter{logger: l.logger.WithContext(ctx)}
}

func (l glogAdapter) WithFields(fields map[string]any) guardrail.Logger {
	if fl, ok := l.logger.(glog.FieldsLogger); ok {
		return glogAdapter{logger: fl.WithFields(fields)}
	}
	return l
}
