// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cloud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/jaycherian/gcp-go-media-gallery/internal/core/model"
)

// S3Store is an ObjectStore backed by an S3 bucket. S3 lowercases metadata
// keys, so keys the gallery owns are canonicalized on the way out.
type S3Store struct {
	client *s3.Client
	bucket string
}

// NewS3Store loads the default AWS configuration for region and binds a client
// to bucket.
func NewS3Store(ctx context.Context, bucket, region string) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return &S3Store{client: s3.NewFromConfig(cfg), bucket: bucket}, nil
}

func (s *S3Store) Container() string { return s.bucket }

func (s *S3Store) URI(path string) string { return ServiceURI(ProviderS3, s.bucket, path) }

// List pages with ListObjectsV2. The listing carries no content type or
// metadata, so each key is followed by a HeadObject.
func (s *S3Store) List(ctx context.Context, prefix string, pageSize int, cursor string) (*ListPage, error) {
	in := &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(int32(pageSize)),
	}
	if cursor != "" {
		in.ContinuationToken = aws.String(cursor)
	}
	out, err := s.client.ListObjectsV2(ctx, in)
	if err != nil {
		return nil, s3Err(err, "list", s.bucket, prefix)
	}
	page := &ListPage{Items: make([]*model.MediaItem, 0, len(out.Contents))}
	if aws.ToBool(out.IsTruncated) {
		page.NextCursor = aws.ToString(out.NextContinuationToken)
	}
	for _, obj := range out.Contents {
		item, err := s.Stat(ctx, aws.ToString(obj.Key))
		if errors.Is(err, ErrNotFound) {
			// Deleted between the listing and the head.
			continue
		}
		if err != nil {
			return nil, err
		}
		page.Items = append(page.Items, item)
	}
	return page, nil
}

func (s *S3Store) Stat(ctx context.Context, path string) (*model.MediaItem, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return nil, s3Err(err, "head", s.bucket, path)
	}
	return &model.MediaItem{
		Path:        path,
		ContentType: aws.ToString(out.ContentType),
		Size:        aws.ToInt64(out.ContentLength),
		Metadata:    canonicalMetadata(out.Metadata),
	}, nil
}

func (s *S3Store) Put(ctx context.Context, path string, contentType string, metadata map[string]string, body io.Reader) (*model.MediaItem, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(path),
		Body:        body,
		ContentType: aws.String(contentType),
		Metadata:    metadata,
	})
	if err != nil {
		return nil, s3Err(err, "put", s.bucket, path)
	}
	return s.Stat(ctx, path)
}

// Delete removes path. S3 deletes are idempotent, so existence is checked first.
func (s *S3Store) Delete(ctx context.Context, path string) error {
	if _, err := s.Stat(ctx, path); err != nil {
		return err
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return s3Err(err, "delete", s.bucket, path)
	}
	return nil
}

func (s *S3Store) CopyFrom(ctx context.Context, srcContainer, srcPath, dstPath string) (CopyStatus, error) {
	out, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucket),
		Key:        aws.String(dstPath),
		CopySource: aws.String(url.PathEscape(srcContainer) + "/" + escapeKey(srcPath)),
	})
	if err != nil {
		return CopyFailed, s3Err(err, "copy", srcContainer, srcPath)
	}
	if out.CopyObjectResult == nil || out.CopyObjectResult.ETag == nil {
		return CopyPending, nil
	}
	return CopySuccess, nil
}

// UpdateMetadata merges fields by copying the object onto itself with the
// merged metadata. S3 has no in-place metadata update.
func (s *S3Store) UpdateMetadata(ctx context.Context, path string, fields map[string]string) error {
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return s3Err(err, "head", s.bucket, path)
	}
	merged := canonicalMetadata(head.Metadata)
	maps.Copy(merged, fields)
	_, err = s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:            aws.String(s.bucket),
		Key:               aws.String(path),
		CopySource:        aws.String(url.PathEscape(s.bucket) + "/" + escapeKey(path)),
		ContentType:       head.ContentType,
		Metadata:          merged,
		MetadataDirective: types.MetadataDirectiveReplace,
		CopySourceIfMatch: head.ETag,
	})
	if err != nil {
		return s3Err(err, "update metadata", s.bucket, path)
	}
	return nil
}

func canonicalMetadata(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[model.CanonicalMetaKey(k)] = v
	}
	return out
}

func escapeKey(key string) string {
	u := url.URL{Path: key}
	return u.EscapedPath()
}

func s3Err(err error, op, bucket, path string) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey", "NoSuchBucket":
			return fmt.Errorf("%s s3://%s/%s: %w", op, bucket, path, ErrNotFound)
		}
	}
	return fmt.Errorf("%s s3://%s/%s: %w", op, bucket, path, err)
}
