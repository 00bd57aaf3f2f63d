// Package textextract implements the attachment text-extraction cache of
// spec §4.3.3: a SHA-256 content-addressed filesystem cache in front of
// an external Text Extractor (spec §6).
//
// Grounded on db/rdf4j.go's file-handling idiom (os.ReadFile/os.WriteFile,
// explicit error wrapping) applied to a cache directory instead of an RDF
// import/export file, with github.com/dustin/go-humanize for the
// size-exceeded log line.
package textextract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/mu-semtech/delta-indexer/internal/errs"
)

// emptyMarker is the on-disk sentinel written for a cache miss that the
// extractor resolved to no text (a nil result), so a repeat miss is a
// filesystem read instead of another extractor invocation.
const emptyMarker = "\x00empty\x00"

// Extractor is the external Text Extractor contract (spec §6):
// extract(path, bytes) -> string|null. A nil *string result represents a
// null extraction with no error.
type Extractor interface {
	Extract(ctx context.Context, path string, data []byte) (*string, error)
}

// Cache is the filesystem-backed extraction cache.
type Cache struct {
	BaseDir     string
	Extractor   Extractor
	MaxFileSize int64
	Logger      *logrus.Entry
}

// NewCache builds a Cache rooted at baseDir.
func NewCache(baseDir string, extractor Extractor, maxFileSize int64, logger *logrus.Entry) *Cache {
	return &Cache{BaseDir: baseDir, Extractor: extractor, MaxFileSize: maxFileSize, Logger: logger}
}

// Get resolves the cached (or freshly extracted) text for the file at
// path, returning nil content on any I/O error, size-limit violation, or
// extractor error — those are logged, never propagated, per spec §4.3.3
// and §7 (ExtractorError "log; emit null content").
func (c *Cache) Get(ctx context.Context, path string) *string {
	info, err := os.Stat(path)
	if err != nil {
		c.logf("stat attachment %s: %v", path, err)
		return nil
	}
	if info.Size() > c.MaxFileSize {
		c.logf("attachment %s (%s) exceeds maximum file size (%s), skipping extraction",
			path, humanize.Bytes(uint64(info.Size())), humanize.Bytes(uint64(c.MaxFileSize)))
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		c.logf("read attachment %s: %v", path, err)
		return nil
	}

	key := sha256.Sum256(data)
	cachePath := filepath.Join(c.BaseDir, hex.EncodeToString(key[:]))

	if cached, ok := c.readCache(cachePath); ok {
		return cached
	}

	text, err := c.Extractor.Extract(ctx, path, data)
	if err != nil {
		c.logf("extract %s: %v", path, errs.NewExtractorError(path, err))
		return nil
	}

	c.writeCache(cachePath, text)
	return text
}

// readCache reports (content, true) on a cache hit, and (nil, true) when
// the hit is the empty marker; (nil, false) on a cache miss.
func (c *Cache) readCache(cachePath string) (*string, bool) {
	raw, err := os.ReadFile(cachePath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			c.logf("read cache entry %s: %v", cachePath, err)
		}
		return nil, false
	}
	if string(raw) == emptyMarker {
		return nil, true
	}
	text := string(raw)
	return &text, true
}

func (c *Cache) writeCache(cachePath string, text *string) {
	if err := os.MkdirAll(c.BaseDir, 0o755); err != nil {
		c.logf("create cache dir %s: %v", c.BaseDir, err)
		return
	}

	content := emptyMarker
	if text != nil {
		content = *text
	}
	if err := os.WriteFile(cachePath, []byte(content), 0o644); err != nil {
		c.logf("write cache entry %s: %v", cachePath, err)
	}
}

func (c *Cache) logf(format string, args ...interface{}) {
	if c.Logger == nil {
		return
	}
	c.Logger.Warnf(format, args...)
}
