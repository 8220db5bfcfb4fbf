package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"knoflo/knoflo/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinIOClient struct {
	client *minio.Client
	bucket string
}

func NewMinIOClient(cfg config.Config) (*MinIOClient, error) {
	// Use insecure for local (no HTTPS)
	bucket := cfg.MinIOBucket
	client, err := minio.New(
		cfg.MinIOEndpoint,
		&minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
			Secure: false,
		},
	)
	if err != nil {
		return nil, err
	}
	// Create bucket if not exists
	exists, err := client.BucketExists(context.Background(), bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := client.MakeBucket(context.Background(), bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
	}
	return &MinIOClient{client: client, bucket: bucket}, nil
}

// AudioObjectKey builds the storage key for one recording:
// <userID>/<noteID>/<unix-nanos><ext>.
func AudioObjectKey(userID int, noteID string, filename string) string {
	ext := path.Ext(filename)
	if ext == "" {
		ext = ".webm"
	}
	return path.Join(fmt.Sprintf("%d", userID), noteID, fmt.Sprintf("%d%s", time.Now().UnixNano(), ext))
}

func (m *MinIOClient) UploadAudio(ctx context.Context, key string, data []byte, contentType string) error {
	if contentType == "" {
		contentType = "audio/webm"
	}
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	return err
}

func (m *MinIOClient) GetAudio(ctx context.Context, key string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	return io.ReadAll(obj)
}

func (m *MinIOClient) RemoveAudio(ctx context.Context, key string) error {
	return m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{})
}

// PresignAudioURL returns a short-lived GET URL for playback in the UI.
func (m *MinIOClient) PresignAudioURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, expiry, nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
