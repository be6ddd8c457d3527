package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	minioResultObject = "current-result.json"
	minioFileObject   = "current-file"
	minioNameMetaKey  = "File-Name"
)

// MinioStore keeps both slots as objects in one bucket. The file slot
// stores payload and display name together: the name rides in object
// user metadata so a single PutObject writes the unit atomically.
type MinioStore struct {
	client   *minio.Client
	bucket   string
	initOnce sync.Once
	initErr  error
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func NewMinioStore(cfg MinioConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinioStore{client: client, bucket: cfg.Bucket}, nil
}

// Init creates the bucket if absent. Gated by sync.Once.
func (s *MinioStore) Init(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.initErr = fmt.Errorf("check bucket: %w", err)
			return
		}
		if exists {
			return
		}
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			// Another process may have won the race.
			if exists, checkErr := s.client.BucketExists(ctx, s.bucket); checkErr == nil && exists {
				return
			}
			s.initErr = fmt.Errorf("create bucket: %w", err)
		}
	})
	return s.initErr
}

func (s *MinioStore) SaveResult(ctx context.Context, result AnalysisResult) error {
	encoded, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	_, err = s.client.PutObject(ctx, s.bucket, minioResultObject, bytes.NewReader(encoded), int64(len(encoded)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

func (s *MinioStore) GetResult(ctx context.Context) (AnalysisResult, bool, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, minioResultObject, minio.GetObjectOptions{})
	if err != nil {
		return AnalysisResult{}, false, fmt.Errorf("read result: %w", err)
	}
	defer obj.Close()

	encoded, err := io.ReadAll(obj)
	if err != nil {
		if isMinioNotFound(err) {
			return AnalysisResult{}, false, nil
		}
		return AnalysisResult{}, false, fmt.Errorf("read result: %w", err)
	}
	var result AnalysisResult
	if err := json.Unmarshal(encoded, &result); err != nil {
		return AnalysisResult{}, false, fmt.Errorf("unmarshal result: %w", err)
	}
	return result, true, nil
}

func (s *MinioStore) SaveFile(ctx context.Context, payload, name string) error {
	_, err := s.client.PutObject(ctx, s.bucket, minioFileObject, strings.NewReader(payload), int64(len(payload)), minio.PutObjectOptions{
		ContentType:  "text/plain",
		UserMetadata: map[string]string{minioNameMetaKey: name},
	})
	if err != nil {
		return fmt.Errorf("save file: %w", err)
	}
	return nil
}

func (s *MinioStore) GetFile(ctx context.Context) (StoredFile, bool, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, minioFileObject, minio.GetObjectOptions{})
	if err != nil {
		return StoredFile{}, false, fmt.Errorf("read file: %w", err)
	}
	defer obj.Close()

	payload, err := io.ReadAll(obj)
	if err != nil {
		if isMinioNotFound(err) {
			return StoredFile{}, false, nil
		}
		return StoredFile{}, false, fmt.Errorf("read file: %w", err)
	}
	stat, err := obj.Stat()
	if err != nil {
		return StoredFile{}, false, fmt.Errorf("stat file: %w", err)
	}
	return StoredFile{
		Payload: string(payload),
		Name:    stat.UserMetadata[minioNameMetaKey],
	}, true, nil
}

// Clear removes both objects. Object stores have no cross-object
// transaction; both removes are attempted and the first failure is
// reported to the caller.
func (s *MinioStore) Clear(ctx context.Context) error {
	var firstErr error
	for _, object := range []string{minioResultObject, minioFileObject} {
		if err := s.client.RemoveObject(ctx, s.bucket, object, minio.RemoveObjectOptions{}); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("clear %s: %w", object, err)
		}
	}
	return firstErr
}

func (s *MinioStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := s.client.BucketExists(ctx, s.bucket); err != nil {
		return fmt.Errorf("ping minio: %w", err)
	}
	return nil
}

func (s *MinioStore) Close() error {
	return nil
}

func isMinioNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket"
}
