package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	aws2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrExists is returned when a key has already been written. Stored objects
// are write-once; callers retry under a fresh key.
var ErrExists = fmt.Errorf("storage: object already exists")

// Store is a write-once blob store. Put persists the payload under key and
// returns the path callers should record.
type Store interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// NewFromEnv returns the S3 store when S3_BUCKET is configured, and the
// local-disk store rooted at MEDIA_ROOT otherwise.
func NewFromEnv(ctx context.Context) (Store, error) {
	rawBucket := os.Getenv("S3_BUCKET")
	bucketName := strings.SplitN(rawBucket, "/", 2)[0]
	if bucketName != "" {
		region := os.Getenv("AWS_REGION")
		if region == "" {
			region = "us-east-2"
		}
		cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
		if err != nil {
			return nil, fmt.Errorf("aws config: %w", err)
		}
		client := s3.NewFromConfig(cfg, func(o *s3.Options) {
			o.UsePathStyle = true
		})
		return &S3Store{Client: client, Bucket: bucketName}, nil
	}

	root := os.Getenv("MEDIA_ROOT")
	if root == "" {
		root = "media"
	}
	return &DiskStore{Root: root}, nil
}

type S3Store struct {
	Client *s3.Client
	Bucket string
}

func (s *S3Store) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws2.String(s.Bucket),
		Key:           aws2.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws2.Int64(int64(len(body))),
		ContentType:   aws2.String(contentType),
		IfNoneMatch:   aws2.String("*"),
	})
	if err != nil {
		if strings.Contains(err.Error(), "PreconditionFailed") {
			return "", ErrExists
		}
		return "", err
	}
	return key, nil
}

type DiskStore struct {
	Root string
}

func (d *DiskStore) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	path := filepath.Join(d.Root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return "", ErrExists
		}
		return "", err
	}
	defer f.Close()
	if _, err := f.Write(body); err != nil {
		return "", err
	}
	return key, nil
}
