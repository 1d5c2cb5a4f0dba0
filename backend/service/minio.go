package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/AnTengye/contractreview/backend/config"
)

// DocumentArchive stores uploaded originals. MinioService implements it.
type DocumentArchive interface {
	Archive(ctx context.Context, objectName string, data []byte, filename string) (string, error)
	Remove(ctx context.Context, objectName string) error
}

// MinioService archives uploaded contracts in an object store bucket.
type MinioService struct {
	client *minio.Client
	bucket string
	config *config.MinioConfig
}

func NewMinioService(cfg *config.MinioConfig) (*MinioService, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinioService{
		client: client,
		bucket: cfg.Bucket,
		config: cfg,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *MinioService) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// Archive uploads the original document and returns a presigned download URL.
func (s *MinioService) Archive(ctx context.Context, objectName string, data []byte, filename string) (string, error) {
	opts := minio.PutObjectOptions{
		ContentType:        contentTypeFor(filename),
		ContentDisposition: contentDisposition(filename),
	}
	if err := s.upload(ctx, objectName, bytes.NewReader(data), int64(len(data)), opts); err != nil {
		return "", err
	}
	return s.presignedURL(ctx, objectName)
}

// Remove deletes an archived document.
func (s *MinioService) Remove(ctx context.Context, objectName string) error {
	err := s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}

func (s *MinioService) upload(ctx context.Context, objectName string, reader io.Reader, size int64, opts minio.PutObjectOptions) error {
	_, err := s.client.PutObject(ctx, s.bucket, objectName, reader, size, opts)
	if err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}

	return nil
}

func (s *MinioService) presignedURL(ctx context.Context, objectName string) (string, error) {
	expiry := time.Duration(s.config.ExpireDays) * 24 * time.Hour
	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return u.String(), nil
}

// ObjectName is the archive key for a contract upload: tenant/id/filename.
func ObjectName(tenant, contractID, filename string) string {
	return fmt.Sprintf("%s/%s/%s", tenant, contractID, filepath.Base(filename))
}

func contentTypeFor(filename string) string {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".doc":
		return "application/msword"
	default:
		if ct := mime.TypeByExtension(ext); ct != "" {
			return ct
		}
		return "application/octet-stream"
	}
}

// contentDisposition makes presigned downloads keep the uploaded file name,
// RFC 2231 encoded when it is not plain ASCII.
func contentDisposition(filename string) string {
	name := filepath.Base(filename)
	if d := mime.FormatMediaType("attachment", map[string]string{"filename": name}); d != "" {
		return d
	}
	return "attachment"
}
