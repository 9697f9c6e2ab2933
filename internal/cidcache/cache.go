// Package cidcache remembers identifiers computed for files so unchanged
// files are not rehashed. It stores identifiers only, never file contents.
package cidcache

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/WanderningMaster/merklecid/cid"
	"github.com/fxamacker/cbor/v2"
	"github.com/syndtr/goleveldb/leveldb"
	lutil "github.com/syndtr/goleveldb/leveldb/util"
	"lukechampine.com/blake3"
)

// entry is the stored CBOR value for one path. Size and ModTime pin the stat
// signature the identifier was computed against; either one drifting
// invalidates the entry.
type entry struct {
	Size    int64  `cbor:"size"`
	ModTime int64  `cbor:"mtime"` // unix nanoseconds
	Cid     []byte `cbor:"cid"`   // binary encoding
}

type Cache struct {
	db *leveldb.DB
}

// Open opens the cache database under baseDir, creating it as needed.
func Open(baseDir string) (*Cache, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, err
	}
	db, err := leveldb.OpenFile(filepath.Join(baseDir, "index"), nil)
	if err != nil {
		return nil, err
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error { return c.db.Close() }

// fileKey hashes the path into a fixed-width key under the 'f' keyspace.
// Hashing keeps keys uniform for arbitrarily long paths, and BLAKE3 keeps
// them visually distinct from content digests in debugging dumps.
func fileKey(path string) []byte {
	sum := blake3.Sum256([]byte(path))
	k := make([]byte, 1+len(sum))
	k[0] = 'f'
	copy(k[1:], sum[:])
	return k
}

// Lookup returns the identifier previously stored for path, but only when
// the given size and modification time match the stored signature. Any
// mismatch, missing entry, or undecodable entry is a miss, never an error.
func (c *Cache) Lookup(ctx context.Context, path string, size int64, modTime time.Time) (cid.Cid, bool) {
	if ctx.Err() != nil {
		return cid.Cid{}, false
	}
	raw, err := c.db.Get(fileKey(path), nil)
	if err != nil {
		return cid.Cid{}, false
	}
	var e entry
	if err := cbor.Unmarshal(raw, &e); err != nil {
		return cid.Cid{}, false
	}
	if e.Size != size || e.ModTime != modTime.UnixNano() {
		return cid.Cid{}, false
	}
	id, err := cid.Decode(e.Cid)
	if err != nil {
		return cid.Cid{}, false
	}
	return id, true
}

// Store records the identifier computed for path at the given stat
// signature, replacing any previous entry for the path.
func (c *Cache) Store(ctx context.Context, path string, size int64, modTime time.Time, id cid.Cid) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := cbor.Marshal(entry{
		Size:    size,
		ModTime: modTime.UnixNano(),
		Cid:     id.Bytes(),
	})
	if err != nil {
		return err
	}
	return c.db.Put(fileKey(path), raw, nil)
}

// Purge drops every cached entry and returns how many were removed.
func (c *Cache) Purge(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	it := c.db.NewIterator(lutil.BytesPrefix([]byte{'f'}), nil)
	defer it.Release()
	var removed int
	for it.Next() {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		key := append([]byte(nil), it.Key()...)
		if err := c.db.Delete(key, nil); err != nil {
			return removed, err
		}
		removed++
	}
	if err := it.Error(); err != nil {
		return removed, err
	}
	return removed, nil
}
