package blobstore

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FS is a filesystem-backed Store. Objects for bucket B at key K live at
// <root>/B/K; slashes in keys map to directories.
type FS struct {
	root string
}

// NewFS constructs a filesystem store rooted at dir.
func NewFS(dir string) (*FS, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("blobstore root dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blobstore root: %w", err)
	}
	return &FS{root: dir}, nil
}

func (s *FS) objectPath(bucket, key string) (string, error) {
	if strings.TrimSpace(bucket) == "" {
		return "", fmt.Errorf("bucket is required")
	}
	cleaned := filepath.Clean("/" + filepath.FromSlash(key))
	if cleaned == "/" {
		return "", fmt.Errorf("key is required")
	}
	return filepath.Join(s.root, bucket, cleaned), nil
}

// Get implements Store.
func (s *FS) Get(_ context.Context, bucket, key string) ([]byte, error) {
	p, err := s.objectPath(bucket, key)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read object %s/%s: %w", bucket, key, err)
	}
	return b, nil
}

// Put implements Store.
func (s *FS) Put(_ context.Context, bucket, key string, data []byte) error {
	p, err := s.objectPath(bucket, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("write object %s/%s: %w", bucket, key, err)
	}
	return nil
}

// List implements Store.
func (s *FS) List(_ context.Context, bucket, prefix string, maxKeys int) ([]string, error) {
	bucketDir := filepath.Join(s.root, bucket)
	if _, err := os.Stat(bucketDir); os.IsNotExist(err) {
		return nil, nil
	}

	var keys []string
	err := filepath.WalkDir(bucketDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(bucketDir, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s/%s: %w", bucket, prefix, err)
	}
	sort.Strings(keys)
	if maxKeys > 0 && len(keys) > maxKeys {
		keys = keys[:maxKeys]
	}
	return keys, nil
}
