// Package graphcache is a derived, disposable acceleration structure over
// commit headers (parents + timestamp), used by graph queries so ancestry
// and LCA walks over large histories don't have to re-parse full commit
// bodies — which may carry an arbitrarily large file set — on every hop.
//
// It is never a second source of truth: every value it returns is exactly
// what the canonical object store would produce for that commit, and a
// cache that fails to open (corrupt on-disk state, permissions) is logged
// and bypassed rather than treated as fatal — every method degrades to an
// unconditional miss.
package graphcache

import (
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
)

// Header is the minimum needed to walk the commit graph: a commit's parents
// and timestamp, without its (potentially large) file set.
type Header struct {
	Parents   []string `json:"parents"`
	Timestamp string   `json:"timestamp"`
}

// compressionThreshold is the smallest encoded payload worth paying zstd's
// frame overhead for. Most headers (one or two parent ids plus a timestamp)
// land well under this, so they're stored as-is.
const compressionThreshold = 256

const (
	flagRaw        byte = 0
	flagCompressed byte = 1
)

// Cache fronts a Badger-backed header store with an in-process LRU. It is
// safe to use a *Cache that failed to open its Badger database: every
// method then behaves as a permanent cache miss.
type Cache struct {
	db     *badger.DB
	lru    *lru.Cache[string, Header]
	enc    *zstd.Encoder
	dec    *zstd.Decoder
	logger *zap.Logger
}

// Open opens (creating if absent) the graph cache at dir. It never returns
// an error to the caller: any failure to open Badger or the zstd codec is
// logged and the returned Cache runs in disabled mode (no LRU either),
// matching the "graph queries must work identically without the cache"
// guarantee. A failure to create the LRU alone is logged and the Cache runs
// on Badger without the in-process layer.
func Open(dir string, lruSize int, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Cache{logger: logger}

	if lruSize <= 0 {
		lruSize = 1
	}
	l, err := lru.New[string, Header](lruSize)
	if err != nil {
		logger.Warn("graph cache: failed to create LRU, running without it", zap.Error(err))
		l = nil
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		logger.Warn("graph cache: failed to create zstd encoder, disabling durable cache", zap.Error(err))
		return c
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		logger.Warn("graph cache: failed to create zstd decoder, disabling durable cache", zap.Error(err))
		enc.Close()
		return c
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		logger.Warn("graph cache: failed to open cache database, falling back to direct reads", zap.Error(err))
		enc.Close()
		dec.Close()
		return c
	}

	c.db = db
	c.lru = l
	c.enc = enc
	c.dec = dec
	return c
}

// Get returns the cached header for id, if any.
func (c *Cache) Get(id string) (Header, bool) {
	if c.lru != nil {
		if h, ok := c.lru.Get(id); ok {
			return h, true
		}
	}
	if c.db == nil {
		return Header{}, false
	}

	var h Header
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) == 0 {
				return fmt.Errorf("empty cache entry")
			}
			plain := val[1:]
			if val[0] == flagCompressed {
				decoded, err := c.dec.DecodeAll(plain, nil)
				if err != nil {
					return err
				}
				plain = decoded
			}
			return json.Unmarshal(plain, &h)
		})
	})
	if err != nil {
		if err != badger.ErrKeyNotFound {
			c.logger.Debug("graph cache: read miss due to error", zap.String("commit", id), zap.Error(err))
		}
		return Header{}, false
	}

	if c.lru != nil {
		c.lru.Add(id, h)
	}
	return h, true
}

// Put records id's header, best-effort: failures are logged, never
// propagated, since the cache is purely advisory.
func (c *Cache) Put(id string, h Header) {
	if c.lru != nil {
		c.lru.Add(id, h)
	}
	if c.db == nil {
		return
	}

	plain, err := json.Marshal(h)
	if err != nil {
		c.logger.Debug("graph cache: failed to marshal header", zap.String("commit", id), zap.Error(err))
		return
	}

	var stored []byte
	if len(plain) < compressionThreshold {
		stored = append([]byte{flagRaw}, plain...)
	} else {
		compressed := c.enc.EncodeAll(plain, make([]byte, 0, len(plain)))
		stored = append([]byte{flagCompressed}, compressed...)
	}

	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(id), stored)
	})
	if err != nil {
		c.logger.Debug("graph cache: failed to persist header", zap.String("commit", id), zap.Error(err))
	}
}

// Close releases the underlying Badger database and codecs, if any were
// opened.
func (c *Cache) Close() error {
	if c.enc != nil {
		c.enc.Close()
	}
	if c.dec != nil {
		c.dec.Close()
	}
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
