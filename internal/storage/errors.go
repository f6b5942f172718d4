package storage

import "errors"

var (
	// ErrNotConfigured means the endpoint or credentials are missing.
	ErrNotConfigured = errors.New("object storage is not configured, please provide MINIO_ENDPOINT, MINIO_ACCESS_KEY, and MINIO_SECRET_KEY environment variables")
	// ErrStorage wraps failures while provisioning the bucket or uploading.
	ErrStorage = errors.New("object storage failure")
	// ErrBucketExists is returned by BucketClient.MakeBucket when the bucket
	// already exists or is already owned by the caller.
	ErrBucketExists = errors.New("bucket already exists")
)
