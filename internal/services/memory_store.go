package services

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

type memoryObject struct {
	data         []byte
	contentType  string
	lastModified time.Time
}

type memoryBucket struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

// MemoryFactory serves in-process buckets. Objects live as long as the factory.
type MemoryFactory struct {
	buckets map[string]*memoryBucket
	// AccessKeys, when non-empty, restricts which access key ids may connect
	AccessKeys map[string]string
	now        func() time.Time
}

// NewMemoryFactory creates a factory holding the named empty buckets
func NewMemoryFactory(buckets ...string) *MemoryFactory {
	f := &MemoryFactory{buckets: make(map[string]*memoryBucket), now: time.Now}
	for _, name := range buckets {
		f.buckets[name] = &memoryBucket{objects: make(map[string]memoryObject)}
	}
	return f
}

func (f *MemoryFactory) NewStore(_ context.Context, cfg Configuration) (ObjectStore, error) {
	return &MemoryStore{factory: f, cfg: cfg}, nil
}

// MemoryStore is a handle on one in-process bucket
type MemoryStore struct {
	factory *MemoryFactory
	cfg     Configuration
}

func (s *MemoryStore) bucket(op, key string) (*memoryBucket, error) {
	if len(s.factory.AccessKeys) > 0 {
		secret, ok := s.factory.AccessKeys[s.cfg.AccessKeyID]
		if !ok || secret != s.cfg.SecretAccessKey {
			return nil, storeErr(op, key, ErrAuth, nil)
		}
	}
	b, ok := s.factory.buckets[s.cfg.BucketName]
	if !ok {
		return nil, storeErr(op, "", ErrNotFound, nil)
	}
	return b, nil
}

func (s *MemoryStore) VerifyAccess(_ context.Context) error {
	_, err := s.bucket("head bucket", "")
	return err
}

func (s *MemoryStore) List(ctx context.Context, prefix, delimiter string) (ListResult, error) {
	b, err := s.bucket("list", prefix)
	if err != nil {
		return ListResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return ListResult{}, err
	}

	b.mu.RLock()
	keys := make([]string, 0, len(b.objects))
	for key := range b.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	result := ListResult{CommonPrefixes: []string{}, Contents: []ObjectSummary{}}
	seen := make(map[string]bool)
	for _, key := range keys {
		if delimiter != "" {
			rest := key[len(prefix):]
			if idx := strings.Index(rest, delimiter); idx >= 0 {
				cp := prefix + rest[:idx+len(delimiter)]
				if !seen[cp] {
					seen[cp] = true
					result.CommonPrefixes = append(result.CommonPrefixes, cp)
				}
				continue
			}
		}
		obj := b.objects[key]
		modified := obj.lastModified
		result.Contents = append(result.Contents, ObjectSummary{
			Key:          key,
			Size:         int64(len(obj.data)),
			LastModified: &modified,
		})
	}
	b.mu.RUnlock()

	return result, nil
}

func (s *MemoryStore) Put(ctx context.Context, key string, body io.Reader, _ int64, contentType string) error {
	b, err := s.bucket("put", key)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if body != nil {
		if _, err := io.Copy(&buf, body); err != nil {
			return storeErr("put", key, ErrTransport, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	b.objects[key] = memoryObject{data: buf.Bytes(), contentType: contentType, lastModified: s.factory.now().UTC()}
	b.mu.Unlock()
	return nil
}

// Delete succeeds for missing keys, like S3
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	b, err := s.bucket("delete", key)
	if err != nil {
		return err
	}
	b.mu.Lock()
	delete(b.objects, key)
	b.mu.Unlock()
	return nil
}

func (s *MemoryStore) Head(_ context.Context, key string) (ObjectSummary, error) {
	b, err := s.bucket("head", key)
	if err != nil {
		return ObjectSummary{}, err
	}
	b.mu.RLock()
	obj, ok := b.objects[key]
	b.mu.RUnlock()
	if !ok {
		return ObjectSummary{}, storeErr("head", key, ErrNotFound, nil)
	}
	modified := obj.lastModified
	return ObjectSummary{Key: key, Size: int64(len(obj.data)), LastModified: &modified}, nil
}

// ContentType returns the stored content type of key, for inspection
func (s *MemoryStore) ContentType(key string) (string, bool) {
	b, err := s.bucket("head", key)
	if err != nil {
		return "", false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	obj, ok := b.objects[key]
	return obj.contentType, ok
}
