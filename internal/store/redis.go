package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps both slots in Redis under fixed keys. Values are
// JSON so a layout change only needs the key prefix version bumped.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed slot store.
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client), nil
}

// NewRedisStoreWithClient creates a store from an existing Redis client.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: fmt.Sprintf("interview:v%d:", schemaVersion),
	}
}

func (s *RedisStore) resultKey() string {
	return s.prefix + "result:" + SlotKey
}

func (s *RedisStore) fileKey() string {
	return s.prefix + "file:" + SlotKey
}

// Init is a no-op for Redis; keys are created on first write.
func (s *RedisStore) Init(ctx context.Context) error {
	return nil
}

func (s *RedisStore) SaveResult(ctx context.Context, result AnalysisResult) error {
	encoded, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := s.client.Set(ctx, s.resultKey(), encoded, 0).Err(); err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

func (s *RedisStore) GetResult(ctx context.Context) (AnalysisResult, bool, error) {
	encoded, err := s.client.Get(ctx, s.resultKey()).Result()
	if err == redis.Nil {
		return AnalysisResult{}, false, nil
	}
	if err != nil {
		return AnalysisResult{}, false, fmt.Errorf("read result: %w", err)
	}
	var result AnalysisResult
	if err := json.Unmarshal([]byte(encoded), &result); err != nil {
		return AnalysisResult{}, false, fmt.Errorf("unmarshal result: %w", err)
	}
	return result, true, nil
}

func (s *RedisStore) SaveFile(ctx context.Context, payload, name string) error {
	encoded, err := json.Marshal(StoredFile{Payload: payload, Name: name})
	if err != nil {
		return fmt.Errorf("marshal file: %w", err)
	}
	if err := s.client.Set(ctx, s.fileKey(), encoded, 0).Err(); err != nil {
		return fmt.Errorf("save file: %w", err)
	}
	return nil
}

func (s *RedisStore) GetFile(ctx context.Context) (StoredFile, bool, error) {
	encoded, err := s.client.Get(ctx, s.fileKey()).Result()
	if err == redis.Nil {
		return StoredFile{}, false, nil
	}
	if err != nil {
		return StoredFile{}, false, fmt.Errorf("read file: %w", err)
	}
	var file StoredFile
	if err := json.Unmarshal([]byte(encoded), &file); err != nil {
		return StoredFile{}, false, fmt.Errorf("unmarshal file: %w", err)
	}
	return file, true, nil
}

// Clear erases both slots in a single DEL.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.resultKey(), s.fileKey()).Err(); err != nil {
		return fmt.Errorf("clear slots: %w", err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
