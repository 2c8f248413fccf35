package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const defaultMinioEndpoint = "s3.amazonaws.com"

// MinioClient is an interface for the standard S3 methods we use
type MinioClient interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) ([]minio.ObjectInfo, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
}

// WrappedMinioClient wraps minio.Client to implement our interface
type WrappedMinioClient struct {
	client *minio.Client
}

func (c *WrappedMinioClient) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	return c.client.BucketExists(ctx, bucketName)
}

func (c *WrappedMinioClient) ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) ([]minio.ObjectInfo, error) {
	// Convert channel to slice
	var objects []minio.ObjectInfo
	for obj := range c.client.ListObjects(ctx, bucketName, opts) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

func (c *WrappedMinioClient) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return c.client.PutObject(ctx, bucketName, objectName, reader, objectSize, opts)
}

func (c *WrappedMinioClient) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	return c.client.RemoveObject(ctx, bucketName, objectName, opts)
}

func (c *WrappedMinioClient) StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	return c.client.StatObject(ctx, bucketName, objectName, opts)
}

// shouldUseSSL determines if SSL should be used based on the endpoint.
// Returns false for localhost, 127.0.0.1, and docker service names.
func shouldUseSSL(endpoint string) bool {
	// Local development endpoints
	if endpoint == "localhost:9000" || endpoint == "127.0.0.1:9000" {
		return false
	}
	// Docker service names (minio:9000, minio1:9000, minio2:9000, etc.)
	// Only match simple hostnames without dots (not domain names like minio.example.com)
	if strings.HasPrefix(endpoint, "minio") && !strings.Contains(strings.Split(endpoint, ":")[0], ".") && strings.Contains(endpoint, ":9000") {
		return false
	}
	return true
}

// minioEndpoint splits an endpoint that may carry a scheme into host and TLS flag
func minioEndpoint(raw string) (string, bool, error) {
	if raw == "" {
		return defaultMinioEndpoint, true, nil
	}
	if !strings.Contains(raw, "://") {
		return raw, shouldUseSSL(raw), nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false, &ValidationError{Field: "endpoint", Reason: fmt.Sprintf("%q is not a valid endpoint", raw)}
	}
	return u.Host, u.Scheme == "https", nil
}

// MinioStore talks to S3-compatible stores through minio-go
type MinioStore struct {
	client MinioClient
	bucket string
}

// NewMinioStore creates a store handle for cfg. No request is made.
func NewMinioStore(cfg Configuration) (*MinioStore, error) {
	endpoint, secure, err := minioEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: secure,
		Region: cfg.Region,
	}
	if cfg.ForcePathStyle {
		opts.BucketLookup = minio.BucketLookupPath
	}

	client, err := minio.New(endpoint, opts)
	if err != nil {
		return nil, &ValidationError{Field: "endpoint", Reason: err.Error()}
	}
	return &MinioStore{client: &WrappedMinioClient{client: client}, bucket: cfg.BucketName}, nil
}

func (s *MinioStore) VerifyAccess(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return storeErr("head bucket", "", classifyMinioError(err), err)
	}
	if !ok {
		return storeErr("head bucket", "", ErrNotFound, nil)
	}
	return nil
}

// List supports the "/" delimiter or none (recursive)
func (s *MinioStore) List(ctx context.Context, prefix, delimiter string) (ListResult, error) {
	if delimiter != "" && delimiter != Delimiter {
		return ListResult{}, &ValidationError{Field: "delimiter", Reason: fmt.Sprintf("%q is not supported by this backend", delimiter)}
	}

	objects, err := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: delimiter == "",
	})
	if err != nil {
		return ListResult{}, storeErr("list", prefix, classifyMinioError(err), err)
	}

	result := ListResult{CommonPrefixes: []string{}, Contents: []ObjectSummary{}}
	for _, obj := range objects {
		// Common prefixes come back as keys ending in the delimiter
		if delimiter != "" && obj.Key != prefix && strings.HasSuffix(obj.Key, delimiter) {
			result.CommonPrefixes = append(result.CommonPrefixes, obj.Key)
			continue
		}
		summary := ObjectSummary{Key: obj.Key, Size: obj.Size}
		if !obj.LastModified.IsZero() {
			modified := obj.LastModified
			summary.LastModified = &modified
		}
		result.Contents = append(result.Contents, summary)
	}
	return result, nil
}

func (s *MinioStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return storeErr("put", key, classifyMinioError(err), err)
	}
	return nil
}

func (s *MinioStore) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return storeErr("delete", key, classifyMinioError(err), err)
	}
	return nil
}

func (s *MinioStore) Head(ctx context.Context, key string) (ObjectSummary, error) {
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return ObjectSummary{}, storeErr("head", key, classifyMinioError(err), err)
	}
	summary := ObjectSummary{Key: key, Size: info.Size}
	if !info.LastModified.IsZero() {
		modified := info.LastModified
		summary.LastModified = &modified
	}
	return summary, nil
}

func classifyMinioError(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}

	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return ErrNotFound
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken",
		"InvalidToken", "AuthorizationHeaderMalformed", "InvalidRegion":
		return ErrAuth
	case "SlowDown", "ServiceUnavailable", "InternalError", "RequestTimeout", "XMinioServerNotInitialized":
		return ErrTransport
	}
	if resp.StatusCode == 0 {
		// No response from the server
		return ErrTransport
	}
	return classifyStatus(resp.StatusCode)
}
