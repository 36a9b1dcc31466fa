package connectors

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "github.com/maraichr/coursesync/internal/config"
)

// S3Connector downloads a course directory stored under a bucket prefix.
type S3Connector struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Connector works with both AWS S3 and S3-compatible endpoints.
func NewS3Connector(ctx context.Context, cfg appconfig.S3Config) (*S3Connector, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = &cfg.Endpoint
			o.UsePathStyle = true
		}
	})

	return &S3Connector{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Sync downloads every object under prefix into destDir, with the prefix
// stripped from the local paths. An empty prefix uses the configured default.
func (c *S3Connector) Sync(ctx context.Context, prefix, destDir string) error {
	if prefix == "" {
		prefix = c.prefix
	}
	paginator := s3.NewListObjectsV2Paginator(c.client, &s3.ListObjectsV2Input{
		Bucket: &c.bucket,
		Prefix: &prefix,
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("list objects: %w", err)
		}

		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			key := *obj.Key
			if strings.HasSuffix(key, "/") {
				continue
			}

			localPath, err := localObjectPath(destDir, prefix, key)
			if err != nil {
				return err
			}
			if err := c.downloadObject(ctx, key, localPath); err != nil {
				return fmt.Errorf("download %s: %w", key, err)
			}
		}
	}

	return nil
}

// localObjectPath maps key under prefix onto destDir, rejecting keys that
// would escape it.
func localObjectPath(destDir, prefix, key string) (string, error) {
	rel := strings.TrimPrefix(strings.TrimPrefix(key, prefix), "/")
	target := filepath.Join(destDir, filepath.FromSlash(rel))
	if !strings.HasPrefix(filepath.Clean(target), filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid object key: %s", key)
	}
	return target, nil
}

func (c *S3Connector) downloadObject(ctx context.Context, key, localPath string) error {
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return err
	}

	resp, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &c.bucket,
		Key:    &key,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	f, err := os.Create(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return err
	}
	return nil
}
