package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/williamfzc/gossiphs/internal/xerrors"
)

// S3Backend shares a warm extraction cache across CI runners by
// persisting entries as objects under a bucket prefix, keyed the same
// way the local backend keys its files. Works with AWS S3 or any
// S3-compatible endpoint (e.g. MinIO) via a custom BaseEndpoint.
type S3Backend struct {
	client *s3.Client
	bucket string
	prefix string
}

// S3Config configures an S3-backed cache.
type S3Config struct {
	Bucket   string
	Prefix   string
	Region   string
	Endpoint string // non-empty to target an S3-compatible endpoint
}

// NewS3Backend loads AWS credentials the default way (environment,
// shared config, instance profile) and targets cfg.Bucket/cfg.Prefix.
func NewS3Backend(ctx context.Context, cfg S3Config) (*S3Backend, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, xerrors.New(xerrors.KindCacheError, "load aws config", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Backend{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (b *S3Backend) objectKey(key Key) string {
	if b.prefix == "" {
		return key.Language + "/" + key.hexHash() + ".json"
	}
	return b.prefix + "/" + key.Language + "/" + key.hexHash() + ".json"
}

func (b *S3Backend) Get(ctx context.Context, key Key) (*Entry, bool, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.objectKey(key)),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchKey" {
			return nil, false, nil
		}
		return nil, false, xerrors.New(xerrors.KindCacheError, "get object", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, false, xerrors.New(xerrors.KindCacheError, "read object", err)
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil || entry.SchemaVersion != schemaVersion {
		return nil, false, nil
	}
	return &entry, true, nil
}

func (b *S3Backend) Put(ctx context.Context, key Key, entry *Entry) error {
	entry.SchemaVersion = schemaVersion
	data, err := json.Marshal(entry)
	if err != nil {
		return xerrors.New(xerrors.KindCacheError, "marshal", err)
	}
	_, err = b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.objectKey(key)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return xerrors.New(xerrors.KindCacheError, "put object", err)
	}
	return nil
}

func (b *S3Backend) Close() error { return nil }
