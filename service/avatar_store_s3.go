package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.lumeweb.com/accounts/config"
	"go.lumeweb.com/accounts/core"
	"go.uber.org/zap"
)

const s3AvatarPrefix = "avatars/"

var _ core.AvatarStore = (*S3AvatarStore)(nil)

// s3API is the part of the s3 client the avatar store needs.
type s3API interface {
	s3.ListObjectsV2APIClient
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type S3AvatarStore struct {
	client s3API
	bucket string
	logger *zap.Logger
}

func NewS3AvatarStore(ctx context.Context, cfg config.S3Config, logger *zap.Logger) (*S3AvatarStore, error) {
	client, err := newS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &S3AvatarStore{client: client, bucket: cfg.Bucket, logger: logger}, nil
}

func newS3Client(ctx context.Context, cfg config.S3Config) (*s3.Client, error) {
	awsCfg, err := awsConfig.LoadDefaultConfig(ctx,
		awsConfig.WithRegion(cfg.Region),
		awsConfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	}), nil
}

func (s *S3AvatarStore) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s3AvatarPrefix + prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			s.logger.Error("avatar list failed", zap.String("prefix", prefix), zap.Error(err))
			return nil, fmt.Errorf("list objects: %w", err)
		}

		for _, obj := range page.Contents {
			names = append(names, aws.ToString(obj.Key)[len(s3AvatarPrefix):])
		}
	}

	return names, nil
}

func (s *S3AvatarStore) Delete(ctx context.Context, name string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s3AvatarPrefix + name),
	})
	if err != nil {
		s.logger.Error("avatar delete failed", zap.String("name", name), zap.Error(err))
		return fmt.Errorf("delete object: %w", err)
	}

	return nil
}

func (s *S3AvatarStore) Write(ctx context.Context, name string, r io.Reader) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s3AvatarPrefix + name),
		Body:   r,
	}
	if ctype := mime.TypeByExtension(filepath.Ext(name)); ctype != "" {
		input.ContentType = aws.String(ctype)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		s.logger.Error("avatar write failed", zap.String("name", name), zap.Error(err))
		return fmt.Errorf("put object: %w", err)
	}

	return nil
}

func (s *S3AvatarStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s3AvatarPrefix + name),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("get object %s: %w", name, fs.ErrNotExist)
		}
		return nil, fmt.Errorf("get object: %w", err)
	}

	return out.Body, nil
}
