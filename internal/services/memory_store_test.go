package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededStore(t *testing.T, keys ...string) ObjectStore {
	t.Helper()
	factory := NewMemoryFactory("b")
	store, err := factory.NewStore(context.Background(), validConfig())
	require.NoError(t, err)
	for _, key := range keys {
		require.NoError(t, store.Put(context.Background(), key, strings.NewReader(key), int64(len(key)), "text/plain"))
	}
	return store
}

func TestMemoryStore_ListWithDelimiter(t *testing.T) {
	store := seededStore(t, "readme.txt", "photos/", "photos/cat.jpg", "photos/2024/dog.jpg", "docs/a.md")

	root, err := store.List(context.Background(), "", Delimiter)
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/", "photos/"}, root.CommonPrefixes)
	require.Len(t, root.Contents, 1)
	assert.Equal(t, "readme.txt", root.Contents[0].Key)
	assert.Equal(t, int64(len("readme.txt")), root.Contents[0].Size)
	assert.NotNil(t, root.Contents[0].LastModified)

	photos, err := store.List(context.Background(), "photos/", Delimiter)
	require.NoError(t, err)
	assert.Equal(t, []string{"photos/2024/"}, photos.CommonPrefixes)
	keys := []string{}
	for _, c := range photos.Contents {
		keys = append(keys, c.Key)
	}
	// The marker object itself is returned; projection drops it
	assert.Equal(t, []string{"photos/", "photos/cat.jpg"}, keys)
}

func TestMemoryStore_ListRecursive(t *testing.T) {
	store := seededStore(t, "a/b/c.txt", "a/d.txt")

	result, err := store.List(context.Background(), "a/", "")
	require.NoError(t, err)
	assert.Empty(t, result.CommonPrefixes)
	assert.Len(t, result.Contents, 2)
}

func TestMemoryStore_EmptyPrefixIsNotAnError(t *testing.T) {
	store := seededStore(t)

	result, err := store.List(context.Background(), "nothing/", Delimiter)
	require.NoError(t, err)
	assert.Empty(t, result.CommonPrefixes)
	assert.Empty(t, result.Contents)
}

func TestMemoryStore_HeadAndDelete(t *testing.T) {
	store := seededStore(t, "x.txt")
	ctx := context.Background()

	summary, err := store.Head(ctx, "x.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(5), summary.Size)

	require.NoError(t, store.Delete(ctx, "x.txt"))
	_, err = store.Head(ctx, "x.txt")
	assert.ErrorIs(t, err, ErrNotFound)

	// Like S3, removing a missing key is not an error at this layer
	assert.NoError(t, store.Delete(ctx, "x.txt"))
}

func TestMemoryStore_UnknownBucket(t *testing.T) {
	factory := NewMemoryFactory("b")
	cfg := validConfig()
	cfg.BucketName = "other"
	store, err := factory.NewStore(context.Background(), cfg)
	require.NoError(t, err)

	assert.ErrorIs(t, store.VerifyAccess(context.Background()), ErrNotFound)
}

func TestMemoryStore_AccessKeys(t *testing.T) {
	factory := NewMemoryFactory("b")
	factory.AccessKeys = map[string]string{"AKIA": "secret"}

	good, _ := factory.NewStore(context.Background(), validConfig())
	assert.NoError(t, good.VerifyAccess(context.Background()))

	cfg := validConfig()
	cfg.SecretAccessKey = "wrong"
	bad, _ := factory.NewStore(context.Background(), cfg)
	assert.ErrorIs(t, bad.VerifyAccess(context.Background()), ErrAuth)
}

func TestMemoryStore_KeepsContentType(t *testing.T) {
	factory := NewMemoryFactory("b")
	store, _ := factory.NewStore(context.Background(), validConfig())
	require.NoError(t, store.Put(context.Background(), "img.png", strings.NewReader("png"), 3, "image/png"))

	ct, ok := store.(*MemoryStore).ContentType("img.png")
	assert.True(t, ok)
	assert.Equal(t, "image/png", ct)
}
