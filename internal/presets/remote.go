package presets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// RemoteConfig describes an optional S3-compatible mirror for the
// preset directory, so a fresh install can recover a user's recorded
// library.
type RemoteConfig struct {
	Bucket   string
	Prefix   string
	Region   string
	Endpoint string // optional, for S3-compatible services
}

// Remote pushes and pulls preset documents to/from an S3-compatible
// bucket. It never participates in the hot path: the preset store always
// reads/writes local files first.
type Remote struct {
	store  *Store
	client *s3.Client
	cfg    RemoteConfig
}

// NewRemote builds a Remote client from the ambient AWS credential chain
// (environment, shared config, or container role).
func NewRemote(ctx context.Context, store *Store, cfg RemoteConfig) (*Remote, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Remote{store: store, client: client, cfg: cfg}, nil
}

// NewRemoteWithStaticCredentials builds a Remote using explicit
// credentials rather than the ambient chain, for S3-compatible
// endpoints that don't participate in IAM.
func NewRemoteWithStaticCredentials(ctx context.Context, store *Store, cfg RemoteConfig, accessKey, secretKey string) (*Remote, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Remote{store: store, client: client, cfg: cfg}, nil
}

func (r *Remote) key(name string) string {
	if r.cfg.Prefix == "" {
		return name
	}
	return strings.TrimSuffix(r.cfg.Prefix, "/") + "/" + name
}

// PushAll uploads every local preset file under the configured prefix.
func (r *Remote) PushAll(ctx context.Context) error {
	entries, err := os.ReadDir(r.store.Dir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read preset directory: %w", err)
	}

	uploader := manager.NewUploader(r.client)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(r.store.Dir(), e.Name())
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", e.Name(), err)
		}
		_, err = uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket: aws.String(r.cfg.Bucket),
			Key:    aws.String(r.key(e.Name())),
			Body:   f,
		})
		f.Close()
		if err != nil {
			return fmt.Errorf("upload %s: %w", e.Name(), err)
		}
	}
	return nil
}

// PullMissing downloads any remote preset object absent from the local
// directory.
func (r *Remote) PullMissing(ctx context.Context) error {
	if err := os.MkdirAll(r.store.Dir(), 0700); err != nil {
		return fmt.Errorf("create preset directory: %w", err)
	}

	prefix := r.cfg.Prefix
	paginator := s3.NewListObjectsV2Paginator(r.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(r.cfg.Bucket),
		Prefix: aws.String(prefix),
	})

	downloader := manager.NewDownloader(r.client)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("list remote presets: %w", err)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), strings.TrimSuffix(prefix, "/")+"/")
			if !strings.HasSuffix(name, ".json") {
				continue
			}
			localPath := filepath.Join(r.store.Dir(), name)
			if _, err := os.Stat(localPath); err == nil {
				continue // already present locally
			}

			f, err := os.Create(localPath)
			if err != nil {
				return fmt.Errorf("create %s: %w", name, err)
			}
			_, err = downloader.Download(ctx, f, &s3.GetObjectInput{
				Bucket: aws.String(r.cfg.Bucket),
				Key:    obj.Key,
			})
			f.Close()
			if err != nil {
				return fmt.Errorf("download %s: %w", name, err)
			}
		}
	}
	return nil
}
