// Package cache is the incremental skip cache: per-package digests of
// every analyzed source file, stored under the XDG cache dir. A package
// whose digest matches the cached entry and whose generated artifacts
// still exist is skipped on the next run.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// Increment when the payload format changes.
const schemaVersion uint16 = 1

// Digest is a sha256 content hash.
type Digest [sha256.Size]byte

// Payload is one cached package entry.
type Payload struct {
	Schema uint16

	// PkgPath identifies the package; InputHash folds every analyzed
	// source file's digest in sorted path order.
	PkgPath   string
	InputHash Digest

	// Artifacts are the generated file names the entry vouches for,
	// relative to the package directory.
	Artifacts []string

	// HadErrors records a package that produced error diagnostics, so
	// a cache hit can short-circuit to the same failure.
	HadErrors bool
}

// Cache is a disk-backed digest cache. The nil cache is a valid no-op.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// Open initializes the cache at the standard location
// ($XDG_CACHE_HOME/rxgen, falling back to ~/.cache/rxgen).
func Open() (*Cache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return OpenAt(filepath.Join(base, "rxgen"))
}

// OpenAt initializes the cache rooted at dir.
func OpenAt(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) pathFor(pkgPath string) string {
	sum := sha256.Sum256([]byte(pkgPath))
	return filepath.Join(c.dir, "pkgs", hex.EncodeToString(sum[:])+".mp")
}

// Put serializes and atomically writes a package entry.
func (c *Cache) Put(p *Payload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p.Schema = schemaVersion
	path := c.pathFor(p.PkgPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(path), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if err := msgpack.NewEncoder(f).Encode(p); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// Get reads a package entry. The boolean reports a usable hit; schema
// mismatches and corrupt entries read as misses.
func (c *Cache) Get(pkgPath string, out *Payload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := os.ReadFile(c.pathFor(pkgPath))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := msgpack.Unmarshal(data, out); err != nil {
		return false, nil
	}
	if out.Schema != schemaVersion {
		return false, nil
	}
	return true, nil
}

// HashFiles folds the contents of paths into one input digest,
// order-independent: paths are hashed in sorted order.
func HashFiles(paths []string) (Digest, error) {
	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.Strings(sorted)

	h := sha256.New()
	for _, p := range sorted {
		f, err := os.Open(p)
		if err != nil {
			return Digest{}, err
		}
		io.WriteString(h, p)
		_, err = io.Copy(h, f)
		f.Close()
		if err != nil {
			return Digest{}, err
		}
	}
	var d Digest
	copy(d[:], h.Sum(nil))
	return d, nil
}

// Fresh reports whether the cached entry matches the current input
// digest and all recorded artifacts still exist under dir.
func (p *Payload) Fresh(input Digest, dir string) bool {
	if p.InputHash != input {
		return false
	}
	for _, a := range p.Artifacts {
		if _, err := os.Stat(filepath.Join(dir, a)); err != nil {
			return false
		}
	}
	return true
}
