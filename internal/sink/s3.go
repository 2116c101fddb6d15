// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sink mirrors an exported board folder to S3-compatible object
// storage. Object keys follow the on-disk layout below the output directory,
// so the bucket holds the same tree the export wrote locally.
package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/pdiddy/trello2md/pkg/types"
)

// Client is the subset of *s3.Client the mirror uses.
type Client interface {
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewS3Client builds an S3 client from cfg. An empty endpoint uses AWS; any
// other endpoint (MinIO and similar) is used as the base URL. Without static
// keys the default AWS credential chain applies.
func NewS3Client(ctx context.Context, cfg types.S3Config) (*s3.Client, error) {
	if cfg.Endpoint != "" {
		if _, err := url.Parse(cfg.Endpoint); err != nil {
			return nil, fmt.Errorf("invalid S3 endpoint: %w", err)
		}
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}

// EnsureBucket checks that bucket exists and is reachable.
func EnsureBucket(ctx context.Context, c Client, bucket string) error {
	_, err := c.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && (apiErr.ErrorCode() == "NotFound" || apiErr.ErrorCode() == "NoSuchBucket") {
			return fmt.Errorf("bucket %s does not exist", bucket)
		}
		return fmt.Errorf("checking bucket: %w", err)
	}
	return nil
}

// MirrorResult counts the outcome of a Mirror run.
type MirrorResult struct {
	Uploaded int
	Failed   int
	Bytes    int64
}

// Total returns the number of files considered.
func (r MirrorResult) Total() int {
	return r.Uploaded + r.Failed
}

// ObjectKey returns the key of file, a path below root, for a mirror of root
// under prefix. The key keeps the name of root itself so that boards
// mirrored under one prefix do not collide.
func ObjectKey(prefix, root, file string) (string, error) {
	rel, err := filepath.Rel(filepath.Dir(root), file)
	if err != nil {
		return "", err
	}
	return path.Join(prefix, filepath.ToSlash(rel)), nil
}

// Mirror uploads every regular file below root. Failed uploads are reported
// on w and counted; they do not stop the walk.
func Mirror(ctx context.Context, c Client, bucket, prefix, root string, w io.Writer) (MirrorResult, error) {
	var result MirrorResult
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		key, err := ObjectKey(prefix, root, p)
		if err != nil {
			return err
		}
		n, err := upload(ctx, c, bucket, key, p)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", key, err)
			result.Failed++
			return nil
		}
		fmt.Fprintf(w, "uploaded: s3://%s/%s\n", bucket, key)
		result.Uploaded++
		result.Bytes += n
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("walking %s: %w", root, err)
	}

	fmt.Fprintf(w, "\nMirror summary: %d uploaded, %d failed (total: %d)\n",
		result.Uploaded, result.Failed, result.Total())
	return result, nil
}

func upload(ctx context.Context, c Client, bucket, key, file string) (int64, error) {
	f, err := os.Open(file)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}

	in := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
	}
	if ct := mime.TypeByExtension(filepath.Ext(file)); ct != "" {
		in.ContentType = aws.String(ct)
	}
	if _, err := c.PutObject(ctx, in); err != nil {
		return 0, err
	}
	return info.Size(), nil
}
