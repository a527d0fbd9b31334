package backend

import (
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// zapLeveled adapts a sugared logger to retryablehttp.LeveledLogger.
// Per-attempt chatter goes to DEBUG; retries and give-ups to WARN.
type zapLeveled struct{ l *zap.SugaredLogger }

var _ retryablehttp.LeveledLogger = zapLeveled{}

func (z zapLeveled) Error(msg string, kv ...interface{}) { z.l.Errorw(msg, kv...) }
func (z zapLeveled) Info(msg string, kv ...interface{})  { z.l.Debugw(msg, kv...) }
func (z zapLeveled) Debug(msg string, kv ...interface{}) { z.l.Debugw(msg, kv...) }
func (z zapLeveled) Warn(msg string, kv ...interface{})  { z.l.Warnw(msg, kv...) }
