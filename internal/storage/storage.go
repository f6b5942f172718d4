package storage

import (
	"context"
	"fmt"
)

// BucketClient is the subset of object store calls the gateway needs; the
// minio and s3 drivers implement it and tests substitute fakes.
type BucketClient interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	// MakeBucket returns ErrBucketExists when the bucket already exists.
	MakeBucket(ctx context.Context, bucket, region string) error
	SetBucketPolicy(ctx context.Context, bucket, policy string) error
	// FPutObject uploads the file at path and returns the bytes written.
	FPutObject(ctx context.Context, bucket, key, path, contentType string) (int64, error)
}

// NewClient builds the driver selected by cfg.Driver.
func NewClient(ctx context.Context, cfg Config) (BucketClient, error) {
	switch cfg.Driver {
	case DriverMinio, "":
		return NewMinio(cfg)
	case DriverS3:
		return NewS3(ctx, cfg)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}
