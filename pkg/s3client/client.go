package s3client

import (
	"context"
	"io"
	"time"
)

type ItemMetadata struct {
	// Key relative to the listed prefix
	Key     string
	Size    int64
	ModTime time.Time
}

type Client interface {
	ListObjects(ctx context.Context, req *ListObjectsRequest) ([]ItemMetadata, error)
	PutObject(ctx context.Context, req *PutObjectRequest) error
	DeleteObject(ctx context.Context, req *DeleteObjectRequest) error
}

type ListObjectsRequest struct {
	Bucket string
	Prefix string
}

type PutObjectRequest struct {
	Bucket string
	Key    string
	// Body is rewound before each retry.
	Body           io.ReadSeeker
	Size           int64
	ContentType    string
	ChecksumSHA256 string
	Metadata       map[string]string
}

type DeleteObjectRequest struct {
	Bucket string
	Key    string
}
