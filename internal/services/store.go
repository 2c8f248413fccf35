package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Delimiter separates virtual folder segments in object keys
const Delimiter = "/"

// ObjectSummary is one content item of a listing
type ObjectSummary struct {
	Key          string
	Size         int64
	LastModified *time.Time
}

// ListResult is a single-level listing: sub-prefixes plus direct children
type ListResult struct {
	CommonPrefixes []string
	Contents       []ObjectSummary
}

// ObjectStore is the capability set the browser needs from a bucket.
// A handle is bound to one Configuration and is cheap to build.
type ObjectStore interface {
	VerifyAccess(ctx context.Context) error
	List(ctx context.Context, prefix, delimiter string) (ListResult, error)
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	Head(ctx context.Context, key string) (ObjectSummary, error)
}

// StoreFactory builds a fresh store handle for a configuration
type StoreFactory interface {
	NewStore(ctx context.Context, cfg Configuration) (ObjectStore, error)
}

// Backend names accepted by RealStoreFactory
const (
	BackendS3    = "s3"
	BackendMinio = "minio"
)

// RealStoreFactory is the production implementation
type RealStoreFactory struct {
	Backend        string
	Endpoint       string
	ForcePathStyle bool
}

// NewStore creates a client for the configured backend.
// Endpoint and path style from the configuration win over the process defaults.
func (f *RealStoreFactory) NewStore(ctx context.Context, cfg Configuration) (ObjectStore, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = f.Endpoint
	}
	if !cfg.ForcePathStyle {
		cfg.ForcePathStyle = f.ForcePathStyle
	}

	switch strings.ToLower(f.Backend) {
	case "", BackendS3:
		return NewAWSStore(ctx, cfg)
	case BackendMinio:
		return NewMinioStore(cfg)
	default:
		return nil, &ValidationError{Field: "backend", Reason: fmt.Sprintf("%q is not supported", f.Backend)}
	}
}

// Gateway runs store operations for a caller-supplied configuration.
// Every call validates the configuration and builds its own store handle.
type Gateway struct {
	factory StoreFactory
	retry   RetryConfig
	log     zerolog.Logger
}

// NewGateway creates a gateway over factory
func NewGateway(factory StoreFactory, retry RetryConfig, log zerolog.Logger) *Gateway {
	return &Gateway{factory: factory, retry: retry, log: log}
}

func (g *Gateway) open(ctx context.Context, cfg Configuration) (ObjectStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return g.factory.NewStore(ctx, cfg)
}

// Connect checks that the bucket is reachable with the given credentials
func (g *Gateway) Connect(ctx context.Context, cfg Configuration) error {
	store, err := g.open(ctx, cfg)
	if err != nil {
		return err
	}
	err = WithRetry(ctx, g.retry, func() error {
		return store.VerifyAccess(ctx)
	})
	if err != nil {
		g.log.Warn().Err(err).Str("bucket", cfg.BucketName).Str("region", cfg.Region).Msg("bucket access check failed")
	}
	return err
}

// VerifyAccess reports whether the bucket is reachable. Failures of any kind give false.
func (g *Gateway) VerifyAccess(ctx context.Context, cfg Configuration) bool {
	return g.Connect(ctx, cfg) == nil
}

// List returns one level of the hierarchy under prefix
func (g *Gateway) List(ctx context.Context, cfg Configuration, prefix, delimiter string) (ListResult, error) {
	store, err := g.open(ctx, cfg)
	if err != nil {
		return ListResult{}, err
	}
	var result ListResult
	err = WithRetry(ctx, g.retry, func() error {
		var listErr error
		result, listErr = store.List(ctx, prefix, delimiter)
		return listErr
	})
	if err != nil {
		g.log.Error().Err(err).Str("bucket", cfg.BucketName).Str("prefix", prefix).Msg("list failed")
		return ListResult{}, err
	}
	return result, nil
}

// Put writes body at key, overwriting any existing object
func (g *Gateway) Put(ctx context.Context, cfg Configuration, key string, body io.Reader, size int64, contentType string) error {
	if key == "" {
		return &ValidationError{Field: "key", Reason: "is required"}
	}
	store, err := g.open(ctx, cfg)
	if err != nil {
		return err
	}
	if err := store.Put(ctx, key, body, size, contentType); err != nil {
		g.log.Error().Err(err).Str("bucket", cfg.BucketName).Str("key", key).Msg("put failed")
		return err
	}
	return nil
}

// Delete removes a single key. A missing key is reported as ErrNotFound.
func (g *Gateway) Delete(ctx context.Context, cfg Configuration, key string) error {
	if strings.TrimSpace(key) == "" {
		return &ValidationError{Field: "key", Reason: "is required"}
	}
	store, err := g.open(ctx, cfg)
	if err != nil {
		return err
	}
	err = WithRetry(ctx, g.retry, func() error {
		_, err := store.Head(ctx, key)
		return err
	})
	if err == nil {
		// Store deletes succeed for missing keys; only Head reports ErrNotFound
		err = WithRetry(ctx, g.retry, func() error {
			return store.Delete(ctx, key)
		})
	}
	if err != nil {
		g.log.Error().Err(err).Str("bucket", cfg.BucketName).Str("key", key).Msg("delete failed")
		return err
	}
	return nil
}
