package config

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/zachmann/go-utils/duration"

	"github.com/scriptsmgr/scriptsmgr/storage/blob"
)

// filesConf configures where uploaded files are kept.
//
// YAML example:
//
//	files:
//	  backend: s3
//	  max_size: 52428800
//	  s3:
//	    bucket: scripts
//	    region: eu-central-1
//	    endpoint: http://minio:9000
//	    path_style: true
//	    presign_ttl: 15m
type filesConf struct {
	Backend string `yaml:"backend"`
	Dir     string `yaml:"dir"`
	MaxSize int64  `yaml:"max_size"`
	S3      s3Conf `yaml:"s3"`
}

type s3Conf struct {
	blob.S3Conf `yaml:",inline"`
	PresignTTL  duration.DurationOption `yaml:"presign_ttl"`
}

func (c *filesConf) validate() error {
	switch c.Backend {
	case "", blob.BackendLocal:
		c.Backend = blob.BackendLocal
		if c.Dir == "" {
			c.Dir = defaultFilesConf.Dir
		}
	case blob.BackendS3:
		if c.S3.Bucket == "" {
			return errors.New("s3.bucket must be set for the s3 backend")
		}
		if c.S3.PresignTTL.Duration() <= 0 {
			c.S3.PresignTTL = defaultFilesConf.S3.PresignTTL
		}
	default:
		return errors.Errorf("unknown files backend '%s'", c.Backend)
	}
	if c.MaxSize <= 0 {
		c.MaxSize = defaultFilesConf.MaxSize
	}
	return nil
}

// PresignTTL returns the validity of presigned download links
func (c filesConf) PresignTTL() time.Duration {
	return c.S3.PresignTTL.Duration()
}

var defaultFilesConf = filesConf{
	Backend: blob.BackendLocal,
	Dir:     "uploads",
	MaxSize: 50 << 20,
	S3: s3Conf{
		PresignTTL: duration.DurationOption(15 * time.Minute),
	},
}

// LoadBlobStore creates the configured blob store
func LoadBlobStore(ctx context.Context, c filesConf) (blob.Store, error) {
	if c.Backend == blob.BackendS3 {
		store, err := blob.NewS3Store(ctx, c.S3.S3Conf)
		if err != nil {
			return nil, err
		}
		log.WithField("bucket", c.S3.Bucket).Info("Loaded s3 file storage")
		return store, nil
	}
	store, err := blob.NewLocalStore(c.Dir)
	if err != nil {
		return nil, err
	}
	log.WithField("dir", c.Dir).Info("Loaded local file storage")
	return store, nil
}
