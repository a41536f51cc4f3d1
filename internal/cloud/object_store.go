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
	"io"

	"github.com/jaycherian/gcp-go-media-gallery/internal/core/model"
)

var (
	// ErrNotFound is returned when an object, asset, transform or job is confirmed absent.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a create collides with an existing resource.
	ErrAlreadyExists = errors.New("already exists")
)

// CopyStatus is the status a store reports for a server-side copy.
type CopyStatus string

const (
	CopySuccess CopyStatus = "success"
	CopyPending CopyStatus = "pending"
	CopyFailed  CopyStatus = "failed"
	CopyAborted CopyStatus = "aborted"
)

// ListPage is one bounded page of a prefix listing.
type ListPage struct {
	Items      []*model.MediaItem
	NextCursor string // Empty when the listing is exhausted.
}

// ObjectStore is the remote store holding every media item. It is the sole
// source of truth for item metadata.
type ObjectStore interface {
	// Container is the bucket this store addresses.
	Container() string
	// URI is the provider-qualified URI of path (e.g. gs://bucket/path).
	URI(path string) string
	// List returns at most pageSize items under prefix, resuming at cursor.
	List(ctx context.Context, prefix string, pageSize int, cursor string) (*ListPage, error)
	// Stat returns the item at path, or ErrNotFound.
	Stat(ctx context.Context, path string) (*model.MediaItem, error)
	// Put writes body to path with the given content type and metadata.
	Put(ctx context.Context, path string, contentType string, metadata map[string]string, body io.Reader) (*model.MediaItem, error)
	// Delete removes path. Deleting a missing object returns ErrNotFound.
	Delete(ctx context.Context, path string) error
	// CopyFrom copies srcPath in srcContainer to dstPath in this store.
	CopyFrom(ctx context.Context, srcContainer, srcPath, dstPath string) (CopyStatus, error)
	// UpdateMetadata merges fields into the metadata of path.
	UpdateMetadata(ctx context.Context, path string, fields map[string]string) error
}
