package pipeline

import "firestige.xyz/microburst/internal/log"

// nopLogger discards everything.
type nopLogger struct{}

func (*nopLogger) Print(args ...interface{})                 {}
func (*nopLogger) Printf(format string, args ...interface{}) {}
func (*nopLogger) Trace(args ...interface{})                 {}
func (*nopLogger) Tracef(format string, args ...interface{}) {}
func (*nopLogger) Debug(args ...interface{})                 {}
func (*nopLogger) Debugf(format string, args ...interface{}) {}
func (*nopLogger) Info(args ...interface{})                  {}
func (*nopLogger) Infof(format string, args ...interface{})  {}
func (*nopLogger) Warn(args ...interface{})                  {}
func (*nopLogger) Warnf(format string, args ...interface{})  {}
func (*nopLogger) Error(args ...interface{})                 {}
func (*nopLogger) Errorf(format string, args ...interface{}) {}
func (*nopLogger) Fatal(args ...interface{})                 {}
func (*nopLogger) Fatalf(format string, args ...interface{}) {}

func (l *nopLogger) WithField(field string, value interface{}) log.Logger { return l }
func (l *nopLogger) WithFields(fields map[string]interface{}) log.Logger  { return l }
func (l *nopLogger) WithError(err error) log.Logger                       { return l }

func (*nopLogger) IsTraceEnabled() bool { return false }
func (*nopLogger) IsDebugEnabled() bool { return false }
func (*nopLogger) IsInfoEnabled() bool  { return false }
