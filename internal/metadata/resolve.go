package metadata

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	foundationerrors "git.home.luguber.info/inful/zensite/internal/foundation/errors"
)

const (
	// FileName is the per-directory metadata file.
	FileName = "metadata.txt"
	// MaxDepth is the deepest directory chain Resolve will walk.
	MaxDepth = 20
)

var (
	ErrTooManyRecursions = errors.New("too many recursions")
	ErrNotAncestor       = errors.New("toplevel is not a parent dir to directory")
)

// Resolve merges the metadata files from toplevel down to dir. toplevel must
// be dir itself or one of its ancestors. When dir names a file its containing
// directory is used.
func Resolve(cache *Cache, dir, toplevel string) (*Metadata, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryNotFound, "directory does not exist").
			Fatal().
			WithContext("dir", dir).
			Build()
	}
	topInfo, err := os.Stat(toplevel)
	if err != nil || !topInfo.IsDir() {
		b := foundationerrors.ConfigError("toplevel directory does not exist").WithContext("toplevel", toplevel)
		if err != nil {
			b = b.WithCause(err)
		}
		return nil, b.Build()
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "resolve directory").Fatal().Build()
	}
	absTop, err := filepath.Abs(toplevel)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "resolve toplevel").Fatal().Build()
	}
	if !info.IsDir() {
		absDir = filepath.Dir(absDir)
	}
	if !isWithin(absTop, absDir) {
		return nil, foundationerrors.ConfigError("invalid metadata boundary").
			WithCause(ErrNotAncestor).
			WithContext("dir", absDir).
			WithContext("toplevel", absTop).
			Build()
	}

	md := New()
	if err := loadFromDirectory(cache, md, absDir, absTop, 1); err != nil {
		return nil, err
	}
	return md, nil
}

// loadFromDirectory visits the parent first so that nearer directories
// override farther ones.
func loadFromDirectory(cache *Cache, md *Metadata, dir, toplevel string, depth int) error {
	if depth > MaxDepth {
		return foundationerrors.MetadataError("metadata cascade too deep").
			WithCause(ErrTooManyRecursions).
			WithContext("dir", dir).
			WithContext("max_depth", MaxDepth).
			Build()
	}

	parent := filepath.Dir(dir)
	if dir != toplevel && parent != dir && dir != "." {
		if err := loadFromDirectory(cache, md, parent, toplevel, depth+1); err != nil {
			return err
		}
	}

	file := filepath.Join(dir, FileName)
	info, err := os.Stat(file)
	if err != nil || !info.Mode().IsRegular() {
		return nil
	}
	entries, err := cache.Load(file)
	if err != nil {
		return err
	}
	md.Merge(entries)
	return nil
}

func isWithin(top, dir string) bool {
	rel, err := filepath.Rel(top, dir)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
