package dedup

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/redis/go-redis/v9"
)

type MemoryStore struct {
	mu      sync.Mutex
	cursors map[string]Cursor
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cursors: map[string]Cursor{}}
}

func (s *MemoryStore) Load(_ context.Context, key string) (Cursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursors[key], nil
}

func (s *MemoryStore) Save(_ context.Context, key string, c Cursor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursors[key] = c
	return nil
}

// FileStore keeps every cursor in one JSON document, replaced atomically on save.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) readAll() (map[string]Cursor, error) {
	all := map[string]Cursor{}
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return all, nil
	}
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return all, nil
	}
	if err := json.Unmarshal(b, &all); err != nil {
		return nil, err
	}
	return all, nil
}

func (s *FileStore) Load(_ context.Context, key string) (Cursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.readAll()
	if err != nil {
		return Cursor{}, err
	}
	return all[key], nil
}

func (s *FileStore) Save(_ context.Context, key string, c Cursor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.readAll()
	if err != nil {
		return err
	}
	all[key] = c
	b, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// RedisStore keeps the cursor timestamp as a plain string value with no expiry.
type RedisStore struct {
	Client *redis.Client
}

func NewRedisStore(opt *redis.Options) *RedisStore {
	return &RedisStore{Client: redis.NewClient(opt)}
}

func (s *RedisStore) Load(ctx context.Context, key string) (Cursor, error) {
	v, err := s.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return Cursor{}, nil
	}
	if err != nil {
		return Cursor{}, err
	}
	return Cursor{Timestamp: v, Set: true}, nil
}

func (s *RedisStore) Save(ctx context.Context, key string, c Cursor) error {
	if !c.Set {
		return s.Client.Del(ctx, key).Err()
	}
	return s.Client.Set(ctx, key, c.Timestamp, 0).Err()
}

func (s *RedisStore) Close() error {
	return s.Client.Close()
}
