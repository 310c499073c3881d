package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"stitch/internal/diag"
	"stitch/internal/match"
	"stitch/internal/trace"
)

// Current schema version - increment when Payload format changes.
const cacheSchemaVersion uint16 = 2

// Digest is a fixed 256-bit key (compatible with source.File.Hash).
type Digest [32]byte

// CacheKey fingerprints everything that determines a file's instrumentation
// result: source content, AST dump bytes, the selector configuration, and
// the hook name. Any change produces a different key.
func CacheKey(sourceHash Digest, astDump []byte, cfg match.Config, hook string) Digest {
	h := sha256.New()
	_, _ = h.Write(sourceHash[:])
	astHash := sha256.Sum256(astDump)
	_, _ = h.Write(astHash[:])
	fmt.Fprintf(h, "%v|%v|%v|%v|%v|%v|%s",
		cfg.IfConditions, cfg.LoopConditions, cfg.Assignments,
		cfg.Guards, cfg.IgnoreTrivial, cfg.Observation, hook)
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// Payload is the cached per-file instrumentation result. Diagnostics ride
// along so a cache hit reports the same skips and overlaps the original run
// did.
type Payload struct {
	Schema uint16

	Records      []trace.Record
	Output       []byte
	Instrumented int
	Skipped      int
	Diags        []diag.Diagnostic
}

// DiskCache stores instrumentation results by key on disk.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// OpenDiskCache initializes and returns a disk cache at the standard location.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// OpenDiskCacheAt opens a cache rooted at an explicit directory. Tests use
// this to stay out of the user's cache.
func OpenDiskCacheAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key Digest) string {
	hexKey := hex.EncodeToString(key[:])
	return filepath.Join(c.dir, "files", hexKey+".mp")
}

// Put serializes and writes a payload to the disk cache.
func (c *DiskCache) Put(key Digest, payload *Payload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	payload.Schema = cacheSchemaVersion

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return err
	}
	// Atomic replace.
	return os.Rename(f.Name(), p)
}

// Get reads a payload from the disk cache. A missing entry or one written
// with a different schema version is a miss, not an error.
func (c *DiskCache) Get(key Digest, out *Payload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, err
	}
	if out.Schema != cacheSchemaVersion {
		return false, nil
	}
	return true, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return os.RemoveAll(old)
}
