package s3

import (
	"context"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"docproc/internal/config"
	"docproc/internal/port"
)

// requestIDMetaKey is stored as x-amz-meta-request-id on every archived result.
const requestIDMetaKey = "request-id"

type resultStore struct {
	client    *s3.Client
	presigner *s3.PresignClient
	uploader  *manager.Uploader
	bucket    string
	prefix    string
}

// NewResultStore creates the S3-backed store for archived conversion results.
// All keys are written under cfg.Prefix in cfg.Bucket.
func NewResultStore(ctx context.Context, cfg *config.ArchiveConfig) (port.ResultStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("archive bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			// MinIO and other S3-compatible stores need path-style addressing.
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &resultStore{
		client:    client,
		presigner: s3.NewPresignClient(client),
		uploader:  manager.NewUploader(client),
		bucket:    cfg.Bucket,
		prefix:    strings.Trim(cfg.Prefix, "/"),
	}, nil
}

func (s *resultStore) objectKey(key string) string {
	return path.Join(s.prefix, strings.TrimPrefix(key, "/"))
}

func (s *resultStore) Put(ctx context.Context, obj port.ArchivedObject) (*port.StoredObject, error) {
	key := s.objectKey(obj.Key)
	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        obj.Body,
		ContentType: aws.String(obj.ContentType),
	}
	if obj.Size > 0 {
		in.ContentLength = aws.Int64(obj.Size)
	}
	if cd := ContentDisposition(obj.DownloadName); cd != "" {
		in.ContentDisposition = aws.String(cd)
	}
	if obj.RequestID != "" {
		in.Metadata = map[string]string{requestIDMetaKey: obj.RequestID}
	}

	result, err := s.uploader.Upload(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("archiving %s: %w", key, err)
	}
	return &port.StoredObject{
		Key:      key,
		Location: result.Location,
		ETag:     aws.ToString(result.ETag),
	}, nil
}

func (s *resultStore) Remove(ctx context.Context, key string) error {
	key = s.objectKey(key)
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("removing %s: %w", key, err)
	}
	return nil
}

// DownloadURL presigns a GET for key. A non-empty downloadName overrides the
// response Content-Disposition so browsers save the result under that name.
func (s *resultStore) DownloadURL(ctx context.Context, key, downloadName string, expiry time.Duration) (string, error) {
	in := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	}
	if cd := ContentDisposition(downloadName); cd != "" {
		in.ResponseContentDisposition = aws.String(cd)
	}
	result, err := s.presigner.PresignGetObject(ctx, in, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("presigning %s: %w", key, err)
	}
	return result.URL, nil
}

// CheckBucket verifies the archive bucket exists and is reachable.
func (s *resultStore) CheckBucket(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return fmt.Errorf("archive bucket %q: %w", s.bucket, err)
	}
	return nil
}

// ContentDisposition returns an attachment header for name, or "" when name
// is empty. Non-ASCII names use the RFC 2231 extended form.
func ContentDisposition(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return ""
	}
	return mime.FormatMediaType("attachment", map[string]string{"filename": name})
}
