package services

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// s3API is the subset of *s3.Client the store calls
type s3API interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type uploaderAPI interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// AWSStore talks to S3 (or an S3-compatible endpoint) through aws-sdk-go-v2
type AWSStore struct {
	client   s3API
	uploader uploaderAPI
	bucket   string
}

// NewAWSStore creates a store handle for cfg. No request is made.
func NewAWSStore(ctx context.Context, cfg Configuration) (*AWSStore, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretAccessKey,
				"",
			),
		),
	)
	if err != nil {
		return nil, storeErr("init", "", ErrTransport, err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	return &AWSStore{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   cfg.BucketName,
	}, nil
}

func (s *AWSStore) VerifyAccess(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return storeErr("head bucket", "", classifyAWSError(err), err)
	}
	return nil
}

// List collects every page so the result is one complete level
func (s *AWSStore) List(ctx context.Context, prefix, delimiter string) (ListResult, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	}
	if delimiter != "" {
		input.Delimiter = aws.String(delimiter)
	}

	result := ListResult{CommonPrefixes: []string{}, Contents: []ObjectSummary{}}
	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return ListResult{}, storeErr("list", prefix, classifyAWSError(err), err)
		}

		for _, cp := range page.CommonPrefixes {
			if cp.Prefix != nil {
				result.CommonPrefixes = append(result.CommonPrefixes, *cp.Prefix)
			}
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			result.Contents = append(result.Contents, ObjectSummary{
				Key:          *obj.Key,
				Size:         aws.ToInt64(obj.Size),
				LastModified: obj.LastModified,
			})
		}
	}
	return result, nil
}

func (s *AWSStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return storeErr("put", key, classifyAWSError(err), err)
	}
	return nil
}

func (s *AWSStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return storeErr("delete", key, classifyAWSError(err), err)
	}
	return nil
}

func (s *AWSStore) Head(ctx context.Context, key string) (ObjectSummary, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return ObjectSummary{}, storeErr("head", key, classifyAWSError(err), err)
	}
	return ObjectSummary{
		Key:          key,
		Size:         aws.ToInt64(out.ContentLength),
		LastModified: out.LastModified,
	}, nil
}

// classifyAWSError maps an SDK failure onto the error taxonomy
func classifyAWSError(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NoSuchBucket", "NotFound":
			return ErrNotFound
		case "AccessDenied", "Forbidden", "InvalidAccessKeyId", "SignatureDoesNotMatch",
			"ExpiredToken", "InvalidToken", "AuthorizationHeaderMalformed", "PermanentRedirect":
			return ErrAuth
		case "SlowDown", "ServiceUnavailable", "InternalError", "RequestTimeout":
			return ErrTransport
		}
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		return classifyStatus(respErr.HTTPStatusCode())
	}

	if apiErr != nil {
		return nil
	}
	// No response at all: DNS, dial, TLS, timeouts
	return ErrTransport
}

func classifyStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden,
		status == http.StatusMovedPermanently, status == http.StatusBadRequest:
		return ErrAuth
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusTooManyRequests, status >= 500:
		return ErrTransport
	default:
		return nil
	}
}
