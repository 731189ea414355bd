package blob

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/pkg/errors"
)

// S3Conf configures the S3 backend
type S3Conf struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Prefix    string `yaml:"prefix"`
	PathStyle bool   `yaml:"path_style"`
}

// S3Store keeps blobs in an S3 compatible bucket
type S3Store struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	prefix    string
}

// NewS3Store builds an S3 client from conf
func NewS3Store(ctx context.Context, conf S3Conf) (*S3Store, error) {
	if conf.Bucket == "" {
		return nil, errors.New("blob: s3 bucket must be set")
	}
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(conf.Region),
	}
	if conf.AccessKey != "" {
		opts = append(
			opts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(conf.AccessKey, conf.SecretKey, ""),
			),
		)
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "blob: could not load aws config")
	}
	client := s3.NewFromConfig(
		cfg, func(o *s3.Options) {
			if conf.Endpoint != "" {
				o.BaseEndpoint = aws.String(conf.Endpoint)
			}
			o.UsePathStyle = conf.PathStyle
		},
	)
	return &S3Store{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    conf.Bucket,
		prefix:    conf.Prefix,
	}, nil
}

// Name implements the Store interface
func (*S3Store) Name() string {
	return BackendS3
}

func (s *S3Store) objectKey(key string) string {
	return s.prefix + key
}

// Put implements the Store interface
func (s *S3Store) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) error {
	if err := validKey(key); err != nil {
		return err
	}
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
		Body:   r,
	}
	if size >= 0 {
		in.ContentLength = aws.Int64(size)
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	_, err := s.client.PutObject(ctx, in)
	return errors.Wrap(err, "blob: s3 put failed")
}

// Open implements the Store interface
func (s *S3Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(
		ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.objectKey(key)),
		},
	)
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "blob: s3 get failed")
	}
	return out.Body, nil
}

// Delete implements the Store interface
func (s *S3Store) Delete(ctx context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	_, err := s.client.DeleteObject(
		ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.objectKey(key)),
		},
	)
	return errors.Wrap(err, "blob: s3 delete failed")
}

// PresignGet implements the Presigner interface
func (s *S3Store) PresignGet(ctx context.Context, key, downloadName string, ttl time.Duration) (string, error) {
	if err := validKey(key); err != nil {
		return "", err
	}
	in := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	}
	if downloadName != "" {
		in.ResponseContentDisposition = aws.String(fmt.Sprintf("attachment; filename=%q", downloadName))
	}
	req, err := s.presigner.PresignGetObject(ctx, in, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", errors.Wrap(err, "blob: s3 presign failed")
	}
	return req.URL, nil
}
