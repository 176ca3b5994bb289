package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Archive keeps a remote copy of every saved snapshot.
type Archive interface {
	Put(ctx context.Context, name string, contents []byte) error
}

type MinioConfig struct {
	Endpoint  string `json:"endpoint"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	UseSSL    bool   `json:"use_ssl"`
	Region    string `json:"region"`
	Bucket    string `json:"bucket"`
	// object keys are <prefix>/<file name>
	Prefix string `json:"prefix"`
}

func (c MinioConfig) Enabled() bool {
	return c.Endpoint != ""
}

type MinioArchive struct {
	client *minio.Client
	config MinioConfig

	mu          sync.Mutex
	bucketReady bool
}

func NewMinioArchive(config MinioConfig) (*MinioArchive, error) {
	if config.Bucket == "" {
		return nil, fmt.Errorf("minio archive: bucket is required")
	}
	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure: config.UseSSL,
		Region: config.Region,
	})
	if err != nil {
		return nil, err
	}
	return &MinioArchive{client: client, config: config}, nil
}

func (a *MinioArchive) ensureBucket(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.bucketReady {
		return nil
	}
	exists, err := a.client.BucketExists(ctx, a.config.Bucket)
	if err != nil {
		return err
	}
	if !exists {
		err = a.client.MakeBucket(ctx, a.config.Bucket, minio.MakeBucketOptions{Region: a.config.Region})
		if err != nil {
			return err
		}
	}
	a.bucketReady = true
	return nil
}

func (a *MinioArchive) ObjectKey(name string) string {
	if a.config.Prefix == "" {
		return name
	}
	return path.Join(a.config.Prefix, name)
}

func (a *MinioArchive) Put(ctx context.Context, name string, contents []byte) error {
	err := a.ensureBucket(ctx)
	if err != nil {
		return fmt.Errorf("ensure bucket %s: %w", a.config.Bucket, err)
	}
	_, err = a.client.PutObject(
		ctx,
		a.config.Bucket,
		a.ObjectKey(name),
		bytes.NewReader(contents),
		int64(len(contents)),
		minio.PutObjectOptions{ContentType: "application/json"},
	)
	return err
}
