package browser

import (
	"context"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/damacus/iron-files/internal/models"
	"github.com/damacus/iron-files/internal/services"
)

// Gateway is the store access the explorer needs
type Gateway interface {
	List(ctx context.Context, cfg services.Configuration, prefix, delimiter string) (services.ListResult, error)
	Put(ctx context.Context, cfg services.Configuration, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, cfg services.Configuration, key string) error
}

// Explorer lists, creates folders and deletes keys, re-projecting after changes
type Explorer struct {
	gateway Gateway
	log     zerolog.Logger
}

// NewExplorer creates an explorer over gateway
func NewExplorer(gateway Gateway, log zerolog.Logger) *Explorer {
	return &Explorer{gateway: gateway, log: log}
}

// List returns the projected entries of prefix. Nothing is cached.
func (e *Explorer) List(ctx context.Context, cfg services.Configuration, prefix string) ([]models.ObjectEntry, error) {
	listing, err := e.gateway.List(ctx, cfg, prefix, services.Delimiter)
	if err != nil {
		return nil, err
	}
	return Project(prefix, listing), nil
}

// CreateFolder writes an empty marker at prefix+name+"/" and re-lists prefix.
// The name is trimmed; blank names and names containing "/" are rejected
// without touching the store.
func (e *Explorer) CreateFolder(ctx context.Context, cfg services.Configuration, prefix, name string) (string, []models.ObjectEntry, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil, &services.ValidationError{Field: "folderName", Reason: "is required"}
	}
	if strings.Contains(name, services.Delimiter) {
		return "", nil, &services.ValidationError{Field: "folderName", Reason: "must not contain \"/\""}
	}

	key := ChildPrefix(prefix, name)
	if err := e.gateway.Put(ctx, cfg, key, strings.NewReader(""), 0, ""); err != nil {
		return "", nil, err
	}
	e.log.Info().Str("bucket", cfg.BucketName).Str("key", key).Msg("folder created")

	entries, err := e.List(ctx, cfg, prefix)
	if err != nil {
		return key, nil, err
	}
	return key, entries, nil
}

// Delete removes exactly one key. Deleting a folder marker leaves its children.
func (e *Explorer) Delete(ctx context.Context, cfg services.Configuration, key string) error {
	if err := e.gateway.Delete(ctx, cfg, key); err != nil {
		return err
	}
	e.log.Info().Str("bucket", cfg.BucketName).Str("key", key).Msg("object deleted")
	return nil
}
