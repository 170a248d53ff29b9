package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// DefaultLinkExpiry lifetime link download export
const DefaultLinkExpiry = 24 * time.Hour

type Options struct {
	Endpoint   string
	Region     string
	Bucket     string
	AccessKey  string
	SecretKey  string
	UseSSL     bool
	Prefix     string
	LinkExpiry time.Duration
}

// Store archives export files in an S3-compatible bucket.
type Store struct {
	client     *minio.Client
	bucketName string
	prefix     string
	expiry     time.Duration
}

// New buat koneksi MinIO
func New(ctx context.Context, opts Options) (*Store, error) {
	cli, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, err
	}

	// pastikan bucket ada
	exists, err := cli.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{Region: opts.Region}); err != nil {
			return nil, err
		}
	}

	expiry := opts.LinkExpiry
	if expiry <= 0 {
		expiry = DefaultLinkExpiry
	}
	return &Store{client: cli, bucketName: opts.Bucket, prefix: opts.Prefix, expiry: expiry}, nil
}

// Archive uploads one export file and returns a presigned download URL.
func (s *Store) Archive(ctx context.Context, key string, data []byte) (string, error) {
	objectKey := ObjectKey(s.prefix, key)
	_, err := s.client.PutObject(ctx, s.bucketName, objectKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:        "application/json",
		ContentDisposition: fmt.Sprintf(`attachment; filename="%s"`, path.Base(objectKey)),
	})
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("response-content-disposition", fmt.Sprintf(`attachment; filename="%s"`, path.Base(objectKey)))
	u, err := s.client.PresignedGetObject(ctx, s.bucketName, objectKey, s.expiry, params)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// Check is used by the health handler.
func (s *Store) Check(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucketName)
	return err
}

// ObjectKey joins prefix and key without duplicate slashes. The key is
// cleaned as a rooted path first, so ".." never climbs above the prefix.
func ObjectKey(prefix, key string) string {
	key = strings.TrimPrefix(path.Clean("/"+key), "/")
	if prefix == "" {
		return key
	}
	return path.Join(prefix, key)
}
