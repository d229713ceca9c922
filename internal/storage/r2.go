package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/halcyonlab/imgstash/internal/config"
)

// R2 stores uploads in an S3-compatible bucket (Cloudflare R2). Objects are
// PUT under the original filename; collisions are last-write-wins, matching
// the bucket's own semantics.
type R2 struct {
	client     *minio.Client
	bucket     string
	prefix     string
	publicBase string
	configured bool
}

// NewR2 creates the object-storage adapter. An unconfigured backend still
// yields a usable value whose Configured() returns false, so the route can
// exist and answer with a configuration error.
func NewR2(cfg config.R2Config) (*R2, error) {
	if !cfg.Configured() {
		return &R2{}, nil
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating s3 client: %w", err)
	}

	return &R2{
		client:     client,
		bucket:     cfg.Bucket,
		prefix:     strings.Trim(cfg.Prefix, "/"),
		publicBase: strings.TrimRight(cfg.PublicBaseURL, "/"),
		configured: true,
	}, nil
}

// Name returns the backend tag.
func (r *R2) Name() string { return BackendR2 }

// FormField returns the multipart field name the R2 route expects.
func (r *R2) FormField() string { return "file" }

// Configured reports whether bucket credentials are present.
func (r *R2) Configured() bool { return r.configured }

// Put writes the object under its original filename and returns the
// deterministic public URL /<prefix>/<filename>.
func (r *R2) Put(ctx context.Context, up Upload) (*Object, error) {
	key := path.Join(r.prefix, up.FileName)

	_, err := r.client.PutObject(ctx, r.bucket, key,
		bytes.NewReader(up.Data), int64(len(up.Data)),
		minio.PutObjectOptions{ContentType: up.ContentType},
	)
	if err != nil {
		return nil, fmt.Errorf("putting object %s: %w", key, err)
	}

	return &Object{
		URL:      r.publicBase + "/" + key,
		FileName: up.FileName,
	}, nil
}

// Retract deletes the object from the bucket.
func (r *R2) Retract(ctx context.Context, obj *Object) error {
	key := path.Join(r.prefix, obj.FileName)
	if err := r.client.RemoveObject(ctx, r.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("removing object %s: %w", key, err)
	}
	return nil
}

// ResolveURL returns the object's public URL; no extra round-trip is needed.
func (r *R2) ResolveURL(_ context.Context, obj *Object) (string, error) {
	return obj.URL, nil
}
