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

	"cloud.google.com/go/storage"
	"github.com/jaycherian/gcp-go-media-gallery/internal/core/model"
	"google.golang.org/api/iterator"
)

// GCSStore is an ObjectStore backed by a single Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore binds a storage client to a bucket.
func NewGCSStore(client *storage.Client, bucket string) *GCSStore {
	return &GCSStore{client: client, bucket: bucket}
}

func (s *GCSStore) Container() string { return s.bucket }

func (s *GCSStore) URI(path string) string { return ServiceURI(ProviderGCS, s.bucket, path) }

func (s *GCSStore) List(ctx context.Context, prefix string, pageSize int, cursor string) (*ListPage, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	var attrs []*storage.ObjectAttrs
	next, err := iterator.NewPager(it, pageSize, cursor).NextPage(&attrs)
	if err != nil {
		return nil, fmt.Errorf("list gs://%s/%s: %w", s.bucket, prefix, err)
	}
	page := &ListPage{Items: make([]*model.MediaItem, 0, len(attrs)), NextCursor: next}
	for _, a := range attrs {
		page.Items = append(page.Items, toMediaItem(a))
	}
	return page, nil
}

func (s *GCSStore) Stat(ctx context.Context, path string) (*model.MediaItem, error) {
	attrs, err := s.client.Bucket(s.bucket).Object(path).Attrs(ctx)
	if err != nil {
		return nil, gcsErr(err, "stat", s.bucket, path)
	}
	return toMediaItem(attrs), nil
}

func (s *GCSStore) Put(ctx context.Context, path string, contentType string, metadata map[string]string, body io.Reader) (*model.MediaItem, error) {
	w := s.client.Bucket(s.bucket).Object(path).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = metadata
	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("write gs://%s/%s: %w", s.bucket, path, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close gs://%s/%s: %w", s.bucket, path, err)
	}
	return toMediaItem(w.Attrs()), nil
}

func (s *GCSStore) Delete(ctx context.Context, path string) error {
	if err := s.client.Bucket(s.bucket).Object(path).Delete(ctx); err != nil {
		return gcsErr(err, "delete", s.bucket, path)
	}
	return nil
}

func (s *GCSStore) CopyFrom(ctx context.Context, srcContainer, srcPath, dstPath string) (CopyStatus, error) {
	src := s.client.Bucket(srcContainer).Object(srcPath)
	dst := s.client.Bucket(s.bucket).Object(dstPath)
	// Rewrites complete within Run; an error means the copy did not land.
	if _, err := dst.CopierFrom(src).Run(ctx); err != nil {
		return CopyFailed, gcsErr(err, "copy", srcContainer, srcPath)
	}
	return CopySuccess, nil
}

// UpdateMetadata merges fields into the object's metadata. The write is
// conditioned on the metageneration that was read so a concurrent patch is
// not silently overwritten.
func (s *GCSStore) UpdateMetadata(ctx context.Context, path string, fields map[string]string) error {
	obj := s.client.Bucket(s.bucket).Object(path)
	attrs, err := obj.Attrs(ctx)
	if err != nil {
		return gcsErr(err, "stat", s.bucket, path)
	}
	merged := make(map[string]string, len(attrs.Metadata)+len(fields))
	maps.Copy(merged, attrs.Metadata)
	maps.Copy(merged, fields)
	_, err = obj.If(storage.Conditions{MetagenerationMatch: attrs.Metageneration}).
		Update(ctx, storage.ObjectAttrsToUpdate{Metadata: merged})
	if err != nil {
		return gcsErr(err, "update metadata", s.bucket, path)
	}
	return nil
}

func toMediaItem(a *storage.ObjectAttrs) *model.MediaItem {
	return &model.MediaItem{
		Path:        a.Name,
		ContentType: a.ContentType,
		Size:        a.Size,
		Metadata:    a.Metadata,
	}
}

func gcsErr(err error, op, bucket, path string) error {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return fmt.Errorf("%s gs://%s/%s: %w", op, bucket, path, ErrNotFound)
	}
	return fmt.Errorf("%s gs://%s/%s: %w", op, bucket, path, err)
}
