package blobstore

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Memory is an in-memory Store for tests and local dry runs.
type Memory struct {
	mu      sync.Mutex
	objects map[string][]byte
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{objects: make(map[string][]byte)}
}

func (m *Memory) fullKey(bucket, key string) string {
	return bucket + "/" + key
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, bucket, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[m.fullKey(bucket, key)]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// Put implements Store.
func (m *Memory) Put(_ context.Context, bucket, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := make([]byte, len(data))
	copy(b, data)
	m.objects[m.fullKey(bucket, key)] = b
	return nil
}

// List implements Store.
func (m *Memory) List(_ context.Context, bucket, prefix string, maxKeys int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	full := m.fullKey(bucket, prefix)
	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, full) {
			keys = append(keys, strings.TrimPrefix(k, bucket+"/"))
		}
	}
	sort.Strings(keys)
	if maxKeys > 0 && len(keys) > maxKeys {
		keys = keys[:maxKeys]
	}
	return keys, nil
}
