package store

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/yuya-takeyama/strict-resize-sync/internal/checksum"
	"github.com/yuya-takeyama/strict-resize-sync/pkg/enumerate"
	"github.com/yuya-takeyama/strict-resize-sync/pkg/s3client"
)

// CaptureTimeMetadataKey is the object metadata key carrying the capture time
// of the source image, RFC 3339.
const CaptureTimeMetadataKey = "capture-time"

// S3Store keeps derivatives under s3://bucket/prefix. The engine still works
// with local-looking paths: root is the logical derivative root and every
// path below it maps to the key with the same relative path.
type S3Store struct {
	client     s3client.Client
	bucket     string
	prefix     string
	root       string
	extensions []string
}

func NewS3Store(client s3client.Client, uri, root string, extensions []string) (*S3Store, error) {
	bucket, prefix, err := s3client.ParseS3URI(uri)
	if err != nil {
		return nil, err
	}
	return &S3Store{
		client:     client,
		bucket:     bucket,
		prefix:     prefix,
		root:       filepath.Clean(root),
		extensions: extensions,
	}, nil
}

func (s *S3Store) Root() string { return s.root }

// Prepare is a no-op: buckets have no directories to create.
func (s *S3Store) Prepare(ctx context.Context) error { return nil }

func (s *S3Store) List(ctx context.Context) ([]string, error) {
	items, err := s.client.ListObjects(ctx, &s3client.ListObjectsRequest{
		Bucket: s.bucket,
		Prefix: s.prefix,
	})
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(items))
	for _, item := range items {
		if !enumerate.HasImageExtension(item.Key, s.extensions) {
			continue
		}
		paths = append(paths, s.pathFor(item.Key))
	}
	sort.Strings(paths)
	return paths, nil
}

func (s *S3Store) Put(ctx context.Context, req *PutRequest) error {
	key, err := s.keyFor(req.Path)
	if err != nil {
		return err
	}

	var metadata map[string]string
	if !req.ModTime.IsZero() {
		metadata = map[string]string{
			CaptureTimeMetadataKey: req.ModTime.UTC().Format(time.RFC3339),
		}
	}

	return s.client.PutObject(ctx, &s3client.PutObjectRequest{
		Bucket:         s.bucket,
		Key:            key,
		Body:           bytes.NewReader(req.Body),
		Size:           int64(len(req.Body)),
		ContentType:    guessContentType(req.Path),
		ChecksumSHA256: checksum.SHA256(req.Body),
		Metadata:       metadata,
	})
}

func (s *S3Store) Delete(ctx context.Context, path string) error {
	key, err := s.keyFor(path)
	if err != nil {
		return err
	}
	return s.client.DeleteObject(ctx, &s3client.DeleteObjectRequest{
		Bucket: s.bucket,
		Key:    key,
	})
}

// URI renders the destination of path, for logging.
func (s *S3Store) URI(path string) string {
	key, err := s.keyFor(path)
	if err != nil {
		return path
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key)
}

func (s *S3Store) keyFor(path string) (string, error) {
	if !within(s.root, path) {
		return "", fmt.Errorf("%s is not under %s", path, s.root)
	}
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return "", err
	}
	return s3client.JoinKey(s.prefix, filepath.ToSlash(rel)), nil
}

func (s *S3Store) pathFor(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(key, "/")))
}
