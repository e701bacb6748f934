// Package cache provides a Badger-backed display cache.
//
// Nothing in here is authoritative. Balances are cached copies of the
// ledger fold and are invalidated on every ledger write; view counts are
// buffered increments that a background job flushes into SQLite.
package cache

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	balancePrefix = "balance:"
	viewPrefix    = "view:"

	// Stale balances age out even without an explicit invalidation.
	balanceTTL = 5 * time.Minute
)

// Cache wraps a Badger database instance.
type Cache struct {
	db     *badger.DB
	logger *slog.Logger
}

// Open creates a new cache at the given path.
func Open(path string, logger *slog.Logger) (*Cache, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable Badger's internal logging
	opts.CompactL0OnClose = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	if logger != nil {
		logger.Info("Cache opened", "path", path)
	}

	return &Cache{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// GetBalance returns the cached balance for a member, if present.
func (c *Cache) GetBalance(memberID string) (int64, bool) {
	var balance int64
	found := false

	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(balancePrefix + memberID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			v, err := strconv.ParseInt(string(val), 10, 64)
			if err != nil {
				return err
			}
			balance = v
			found = true
			return nil
		})
	})
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) && c.logger != nil {
		c.logger.Warn("Balance cache read failed", "member_id", memberID, "error", err)
	}

	return balance, found
}

// SetBalance caches a member's derived balance.
func (c *Cache) SetBalance(memberID string, balance int64) {
	err := c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(
			[]byte(balancePrefix+memberID),
			[]byte(strconv.FormatInt(balance, 10)),
		).WithTTL(balanceTTL)
		return txn.SetEntry(entry)
	})
	if err != nil && c.logger != nil {
		c.logger.Warn("Balance cache write failed", "member_id", memberID, "error", err)
	}
}

// InvalidateBalance drops a member's cached balance. Call after every
// ledger write touching the member.
func (c *Cache) InvalidateBalance(memberID string) {
	err := c.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(balancePrefix + memberID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
	if err != nil && c.logger != nil {
		c.logger.Warn("Balance cache invalidation failed", "member_id", memberID, "error", err)
	}
}

// IncView buffers one view of an item.
func (c *Cache) IncView(itemID string) {
	key := []byte(viewPrefix + itemID)

	err := c.db.Update(func(txn *badger.Txn) error {
		var current int64
		item, err := txn.Get(key)
		if err == nil {
			if verr := item.Value(func(val []byte) error {
				current, err = strconv.ParseInt(string(val), 10, 64)
				return err
			}); verr != nil {
				return verr
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, []byte(strconv.FormatInt(current+1, 10)))
	})
	if err != nil && c.logger != nil {
		c.logger.Warn("View counter increment failed", "item_id", itemID, "error", err)
	}
}

// DrainViews returns all buffered view counts and clears them.
func (c *Cache) DrainViews() (map[string]int64, error) {
	counts := make(map[string]int64)

	err := c.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(viewPrefix)
		var toDelete [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := item.KeyCopy(nil)
			if err := item.Value(func(val []byte) error {
				v, err := strconv.ParseInt(string(val), 10, 64)
				if err != nil {
					return err
				}
				counts[string(key[len(prefix):])] = v
				return nil
			}); err != nil {
				return err
			}
			toDelete = append(toDelete, key)
		}

		for _, key := range toDelete {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return counts, nil
}
