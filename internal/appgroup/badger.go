// ABOUTME: Badger-backed Store reachable from several processes
// ABOUTME: The database is opened per operation and a held directory lock is retried with backoff
package appgroup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgraph-io/badger/v3"
	"github.com/harper/stash/internal/util"
)

// Lock retry defaults: roughly five seconds of waiting in total
const (
	defaultLockRetries   = 8
	defaultLockBaseDelay = 10 * time.Millisecond
)

// errLocked marks a failed open because another process holds the directory
var errLocked = errors.New("shared namespace is locked by another process")

// BadgerStore keeps the shared namespace in a badger directory. Badger allows
// one open handle per directory, so every operation opens and closes it.
type BadgerStore struct {
	dir    string
	retry  util.RetryPolicy
	logger *log.Logger
	// serializes operations within this process
	mu sync.Mutex
}

// NewBadgerStore creates the directory if needed and returns a store over it
func NewBadgerStore(dir string) (*BadgerStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create shared directory: %w", err)
	}
	return &BadgerStore{
		dir: dir,
		retry: util.RetryPolicy{
			MaxRetries: defaultLockRetries,
			BaseDelay:  defaultLockBaseDelay,
			Retryable:  func(err error) bool { return errors.Is(err, errLocked) },
		},
		logger: log.WithPrefix("appgroup"),
	}, nil
}

// Dir returns the badger directory
func (b *BadgerStore) Dir() string {
	return b.dir
}

// Get reads key in a read-only transaction
func (b *BadgerStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := b.with(ctx, func(db *badger.DB) error {
		return db.View(func(txn *badger.Txn) error {
			item, err := txn.Get([]byte(key))
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			value, err = item.ValueCopy(nil)
			return err
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return value, nil
}

// Set writes key in a single transaction
func (b *BadgerStore) Set(ctx context.Context, key string, value []byte) error {
	err := b.with(ctx, func(db *badger.DB) error {
		return db.Update(func(txn *badger.Txn) error {
			return txn.Set([]byte(key), value)
		})
	})
	if err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// Delete removes key
func (b *BadgerStore) Delete(ctx context.Context, key string) error {
	err := b.with(ctx, func(db *badger.DB) error {
		return db.Update(func(txn *badger.Txn) error {
			return txn.Delete([]byte(key))
		})
	})
	if err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

// Update reads and rewrites key inside one badger transaction while the
// directory lock is held, so no other process can interleave.
func (b *BadgerStore) Update(ctx context.Context, key string, fn func(old []byte) ([]byte, error)) error {
	err := b.with(ctx, func(db *badger.DB) error {
		return db.Update(func(txn *badger.Txn) error {
			var old []byte
			item, err := txn.Get([]byte(key))
			switch {
			case errors.Is(err, badger.ErrKeyNotFound):
			case err != nil:
				return err
			default:
				if old, err = item.ValueCopy(nil); err != nil {
					return err
				}
			}

			next, err := fn(old)
			if err != nil {
				return err
			}
			if next == nil {
				return txn.Delete([]byte(key))
			}
			return txn.Set([]byte(key), next)
		})
	})
	if err != nil {
		return fmt.Errorf("failed to update key %s: %w", key, err)
	}
	return nil
}

// Close is a no-op; the database is never held open between operations
func (b *BadgerStore) Close() error {
	return nil
}

// with opens the database, runs fn, and closes it again
func (b *BadgerStore) with(ctx context.Context, fn func(db *badger.DB) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var db *badger.DB
	err := b.retry.Do(ctx, func(attempt int) error {
		var err error
		db, err = badger.Open(b.options())
		if err != nil && strings.Contains(err.Error(), "Cannot acquire directory lock") {
			b.logger.Debug("shared namespace busy, retrying", "attempt", attempt+1)
			return fmt.Errorf("%w: %v", errLocked, err)
		}
		return err
	})
	if err != nil {
		return err
	}

	fnErr := fn(db)
	if err := db.Close(); err != nil && fnErr == nil {
		return fmt.Errorf("failed to close shared namespace: %w", err)
	}
	return fnErr
}

func (b *BadgerStore) options() badger.Options {
	return badger.DefaultOptions(b.dir).
		WithLogger(badgerLogger{b.logger}).
		WithLoggingLevel(badger.WARNING).
		WithMemTableSize(4 << 20).
		WithValueLogFileSize(16 << 20).
		WithNumVersionsToKeep(1)
}

// badgerLogger routes badger's internal logging through charmbracelet/log
type badgerLogger struct {
	l *log.Logger
}

func (b badgerLogger) Errorf(format string, args ...interface{}) {
	b.l.Errorf(strings.TrimSpace(format), args...)
}

func (b badgerLogger) Warningf(format string, args ...interface{}) {
	b.l.Warnf(strings.TrimSpace(format), args...)
}

func (b badgerLogger) Infof(format string, args ...interface{}) {
	b.l.Debugf(strings.TrimSpace(format), args...)
}

func (b badgerLogger) Debugf(format string, args ...interface{}) {
	b.l.Debugf(strings.TrimSpace(format), args...)
}
