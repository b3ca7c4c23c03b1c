package badgerfx

import (
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

var _ badger.Logger = (*zapLogger)(nil)

// zapLogger bridges badger's printf-style logger onto zap. Badger's INFO
// output is startup/compaction chatter, so it lands at debug level.
type zapLogger struct {
	logger *zap.Logger
}

func newLogger(l *zap.Logger) *zapLogger {
	return &zapLogger{
		logger: l,
	}
}

func (l *zapLogger) Debugf(format string, a ...any) {
	l.logger.Debug(render(format, a...))
}

func (l *zapLogger) Infof(format string, a ...any) {
	l.logger.Debug(render(format, a...))
}

func (l *zapLogger) Warningf(format string, a ...any) {
	l.logger.Warn(render(format, a...))
}

func (l *zapLogger) Errorf(format string, a ...any) {
	l.logger.Error(render(format, a...))
}

func render(format string, a ...any) string {
	return strings.TrimRight(fmt.Sprintf(format, a...), "\n")
}
