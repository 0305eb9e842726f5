// Package filestore keeps uploaded documents on local disk, zstd-compressed.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"billing/internal/core/apperror"
)

const compressedExt = ".zst"

// Store writes files under a root directory. Paths it returns are relative
// to the root and use forward slashes.
type Store struct {
	root  string
	level zstd.EncoderLevel
}

// New creates the root directory when missing.
func New(root string, dirs ...string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve file root: %w", err)
	}
	for _, d := range append([]string{""}, dirs...) {
		if err := os.MkdirAll(filepath.Join(abs, d), 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", filepath.Join(abs, d), err)
		}
	}
	return &Store{root: abs, level: zstd.SpeedDefault}, nil
}

// Save compresses r into dir/name.zst. written counts uncompressed bytes read from r.
func (s *Store) Save(ctx context.Context, dir, name string, r io.Reader) (string, int64, error) {
	rel := filepath.ToSlash(filepath.Join(dir, filepath.Base(name))) + compressedExt
	full, err := s.resolve(rel)
	if err != nil {
		return "", 0, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", 0, fmt.Errorf("create dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return "", 0, fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}

	enc, err := zstd.NewWriter(tmp, zstd.WithEncoderLevel(s.level))
	if err != nil {
		cleanup()
		return "", 0, fmt.Errorf("create zstd encoder: %w", err)
	}
	written, err := io.Copy(enc, contextReader{ctx: ctx, r: r})
	if err != nil {
		_ = enc.Close()
		cleanup()
		return "", 0, fmt.Errorf("write file: %w", err)
	}
	if err := enc.Close(); err != nil {
		cleanup()
		return "", 0, fmt.Errorf("flush zstd: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", 0, fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		_ = os.Remove(tmp.Name())
		return "", 0, fmt.Errorf("move file into place: %w", err)
	}
	return rel, written, nil
}

// Open returns a reader over the decompressed contents of path.
func (s *Store) Open(_ context.Context, path string) (io.ReadCloser, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperror.NewNotFound("bill file", path)
		}
		return nil, fmt.Errorf("open file: %w", err)
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &decodingReader{dec: dec, file: f}, nil
}

// Remove deletes path. A missing file is not an error.
func (s *Store) Remove(_ context.Context, path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

// resolve maps a relative path into the root and rejects escapes.
func (s *Store) resolve(rel string) (string, error) {
	full := filepath.Join(s.root, filepath.FromSlash(rel))
	if full != s.root && !strings.HasPrefix(full, s.root+string(filepath.Separator)) {
		return "", apperror.NewValidation("path escapes file root").WithDetail("path", rel)
	}
	return full, nil
}

type decodingReader struct {
	dec  *zstd.Decoder
	file *os.File
}

func (d *decodingReader) Read(p []byte) (int, error) { return d.dec.Read(p) }

func (d *decodingReader) Close() error {
	d.dec.Close()
	return d.file.Close()
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
