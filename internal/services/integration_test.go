//go:build integration
// +build integration

package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/localstack"
)

func setupLocalStack(ctx context.Context, t *testing.T) (Configuration, func()) {
	t.Helper()

	container, err := localstack.Run(ctx, "localstack/localstack:3.0",
		testcontainers.WithEnv(map[string]string{
			"SERVICES": "s3",
		}),
	)
	require.NoError(t, err)

	mappedPort, err := container.MappedPort(ctx, "4566/tcp")
	require.NoError(t, err)
	host, err := container.Host(ctx)
	require.NoError(t, err)

	cfg := Configuration{
		// LocalStack default credentials
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		Region:          "us-east-1",
		BucketName:      "iron-files-it",
		Endpoint:        fmt.Sprintf("http://%s:%s", host, mappedPort.Port()),
		ForcePathStyle:  true,
	}
	return cfg, func() { _ = container.Terminate(ctx) }
}

func TestGatewayAgainstLocalStack(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	cfg, cleanup := setupLocalStack(ctx, t)
	defer cleanup()

	store, err := NewAWSStore(ctx, cfg)
	require.NoError(t, err)
	_, err = store.client.(*s3.Client).CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(cfg.BucketName)})
	require.NoError(t, err)

	gw := NewGateway(&RealStoreFactory{Backend: BackendS3}, DefaultRetryConfig(), zerolog.Nop())

	t.Run("verify access", func(t *testing.T) {
		assert.True(t, gw.VerifyAccess(ctx, cfg))

		missing := cfg
		missing.BucketName = "does-not-exist"
		assert.False(t, gw.VerifyAccess(ctx, missing))
	})

	t.Run("folders and files", func(t *testing.T) {
		require.NoError(t, gw.Put(ctx, cfg, "photos/", strings.NewReader(""), 0, ""))
		require.NoError(t, gw.Put(ctx, cfg, "photos/cat.jpg", strings.NewReader("meow"), 4, "image/jpeg"))
		require.NoError(t, gw.Put(ctx, cfg, "readme.txt", strings.NewReader("hello world!"), 12, "text/plain"))

		root, err := gw.List(ctx, cfg, "", Delimiter)
		require.NoError(t, err)
		assert.Equal(t, []string{"photos/"}, root.CommonPrefixes)
		require.Len(t, root.Contents, 1)
		assert.Equal(t, "readme.txt", root.Contents[0].Key)
		assert.Equal(t, int64(12), root.Contents[0].Size)

		photos, err := gw.List(ctx, cfg, "photos/", Delimiter)
		require.NoError(t, err)
		assert.Len(t, photos.Contents, 2)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, gw.Delete(ctx, cfg, "readme.txt"))
		assert.ErrorIs(t, gw.Delete(ctx, cfg, "readme.txt"), ErrNotFound)
	})
}
