package logger

import "go.uber.org/zap"

// CronLogger adapts Logger to the cron.Logger interface.
type CronLogger struct {
	sugar *zap.SugaredLogger
}

func NewCronLogger(l *Logger) *CronLogger {
	return &CronLogger{sugar: l.Logger.Named("cron").Sugar()}
}

func (c *CronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.sugar.Debugw(msg, keysAndValues...)
}

func (c *CronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
