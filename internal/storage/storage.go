// Package storage keeps recording audio and compressed analyzer payloads in
// S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrNotConfigured is returned when no endpoint is set.
var ErrNotConfigured = errors.New("object storage not configured")

// Config holds connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Store reads and writes objects in one bucket.
type Store struct {
	client *minio.Client
	bucket string
}

// New creates a Store. It does not contact the server; call EnsureBucket for that.
func New(cfg Config) (*Store, error) {
	if cfg.Endpoint == "" {
		return nil, ErrNotConfigured
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating object storage client: %w", err)
	}
	return &Store{client: client, bucket: cfg.Bucket}, nil
}

// EnsureBucket creates the bucket if it does not exist.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("checking bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("creating bucket %s: %w", s.bucket, err)
	}
	return nil
}

// RecordingKey returns the object key for a recording's audio.
func RecordingKey(userID, recordingID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = ".webm"
	}
	return path.Join("recordings", userID, recordingID+ext)
}

// AnalysisKey returns the object key for a recording's archived analyzer payload.
func AnalysisKey(userID, recordingID string) string {
	return path.Join("analyses", userID, recordingID+".json.zst")
}

// PutRecording uploads audio under key.
func (s *Store) PutRecording(ctx context.Context, key string, audio []byte, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(audio), int64(len(audio)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("uploading recording %s: %w", key, err)
	}
	return nil
}

// GetRecording downloads audio by key.
func (s *Store) GetRecording(ctx context.Context, key string) ([]byte, error) {
	return s.get(ctx, key)
}

// ArchiveAnalysis compresses the raw analyzer payload and uploads it under key.
func (s *Store) ArchiveAnalysis(ctx context.Context, key string, raw []byte) error {
	compressed, err := Compress(raw)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(compressed), int64(len(compressed)), minio.PutObjectOptions{
		ContentType:     "application/json",
		ContentEncoding: "zstd",
	})
	if err != nil {
		return fmt.Errorf("uploading analysis archive %s: %w", key, err)
	}
	return nil
}

// ReadAnalysis downloads and decompresses an archived analyzer payload.
func (s *Store) ReadAnalysis(ctx context.Context, key string) ([]byte, error) {
	compressed, err := s.get(ctx, key)
	if err != nil {
		return nil, err
	}
	return Decompress(compressed)
}

func (s *Store) get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return data, nil
}
