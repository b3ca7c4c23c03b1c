package badgerfx

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// SeekEnd sorts past every key under a prefix; appending it to a prefix
// and iterating in reverse yields newest-first for UnixNano-suffixed keys.
const SeekEnd = byte(0xFF)

func New(config Config, logger *zapLogger) (*badger.DB, error) {
	opts := config.Build().
		WithLogger(logger)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	return db, nil
}

// runGC reclaims value log space on a fixed cadence until done is closed.
// Badger never garbage-collects on its own.
func runGC(db *badger.DB, interval time.Duration, logger *zap.Logger, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			err := db.RunValueLogGC(0.5)
			if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				logger.Warn("value log gc failed", zap.Error(err))
			}
		}
	}
}
