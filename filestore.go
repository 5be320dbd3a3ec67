package reminis

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
)

// DefaultCacheDir is the cache root used when no option overrides it.
const DefaultCacheDir = "reminis_cache"

const (
	metaSuffix  = ".meta.cache"
	valueSuffix = ".cache"
)

// FileStore is the default Store: one metadata artifact and one value
// artifact per proc under a single cache root, named from the proc name with
// fixed suffixes. The filesystem is abstracted behind afero, so the same
// implementation serves the OS filesystem and in-memory test filesystems.
//
// Writes go through a temp file and a rename, so a crash mid-write leaves
// the previous artifact intact rather than a truncated one.
type FileStore struct {
	fs   afero.Fs
	root string
}

// NewFileStore creates a store rooted at dir on the given filesystem.
func NewFileStore(fsys afero.Fs, dir string) *FileStore {
	return &FileStore{fs: fsys, root: dir}
}

func (s *FileStore) metaPath(name string) string {
	return filepath.Join(s.root, name+metaSuffix)
}

func (s *FileStore) valuePath(name string) string {
	return filepath.Join(s.root, name+valueSuffix)
}

// SaveMetadata writes the proc's metadata record.
func (s *FileStore) SaveMetadata(name string, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	return s.writeFile(s.metaPath(name), data)
}

// LoadMetadata reads the proc's metadata record, returning (nil, nil) when
// none exists. A record that exists but cannot be read or decoded is an
// error, not a miss.
func (s *FileStore) LoadMetadata(name string) (*Record, error) {
	data, err := afero.ReadFile(s.fs, s.metaPath(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading metadata: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding metadata: %w", err)
	}
	return &rec, nil
}

// SaveValue writes the proc's computed value.
func (s *FileStore) SaveValue(name string, v cty.Value) error {
	w, err := encodeValue(v)
	if err != nil {
		return fmt.Errorf("encoding value: %w", err)
	}
	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("encoding value: %w", err)
	}
	return s.writeFile(s.valuePath(name), data)
}

// LoadValue reads the proc's cached value, reporting ok=false when no value
// artifact exists.
func (s *FileStore) LoadValue(name string) (cty.Value, bool, error) {
	data, err := afero.ReadFile(s.fs, s.valuePath(name))
	if errors.Is(err, os.ErrNotExist) {
		return cty.NilVal, false, nil
	}
	if err != nil {
		return cty.NilVal, false, fmt.Errorf("reading value: %w", err)
	}
	var w valueWire
	if err := json.Unmarshal(data, &w); err != nil {
		return cty.NilVal, false, fmt.Errorf("decoding value: %w", err)
	}
	v, err := decodeValue(w)
	if err != nil {
		return cty.NilVal, false, fmt.Errorf("decoding value: %w", err)
	}
	return v, true, nil
}

// writeFile writes data atomically: temp file in the cache root, then a
// rename onto the final path.
func (s *FileStore) writeFile(path string, data []byte) error {
	if err := s.fs.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("creating cache root: %w", err)
	}
	tmp, err := afero.TempFile(s.fs, s.root, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := s.fs.Rename(tmpName, path); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("committing %s: %w", filepath.Base(path), err)
	}
	return nil
}
