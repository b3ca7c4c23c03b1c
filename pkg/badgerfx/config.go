package badgerfx

import (
	"time"

	"github.com/dgraph-io/badger/v4"
)

type Config struct {
	// Path to the BadgerDB data directory. Ignored when InMemory is set.
	Dir string
	// InMemory keeps the whole store in RAM. Nothing survives a restart.
	InMemory bool
	// How often the value log garbage collector runs. Zero disables it.
	GCInterval time.Duration
}

func (c Config) Build() badger.Options {
	if c.InMemory {
		return badger.DefaultOptions("").WithInMemory(true)
	}

	return badger.DefaultOptions(c.Dir)
}
