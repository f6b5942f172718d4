package storage

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioClient is the default driver.
type MinioClient struct {
	client *minio.Client
}

// NewMinio connects to cfg's endpoint with static credentials.
func NewMinio(cfg Config) (*MinioClient, error) {
	client, err := minio.New(cfg.HostPort(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return &MinioClient{client: client}, nil
}

func (m *MinioClient) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return m.client.BucketExists(ctx, bucket)
}

func (m *MinioClient) MakeBucket(ctx context.Context, bucket, region string) error {
	err := m.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region})
	if err == nil {
		return nil
	}
	switch minio.ToErrorResponse(err).Code {
	case "BucketAlreadyOwnedByYou", "BucketAlreadyExists":
		return ErrBucketExists
	}
	return err
}

func (m *MinioClient) SetBucketPolicy(ctx context.Context, bucket, policy string) error {
	return m.client.SetBucketPolicy(ctx, bucket, policy)
}

func (m *MinioClient) FPutObject(ctx context.Context, bucket, key, path, contentType string) (int64, error) {
	info, err := m.client.FPutObject(ctx, bucket, key, path, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return 0, err
	}
	return info.Size, nil
}
