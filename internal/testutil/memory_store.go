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

package test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"maps"
	"sort"
	"strings"
	"sync"

	"github.com/jaycherian/gcp-go-media-gallery/internal/cloud"
	"github.com/jaycherian/gcp-go-media-gallery/internal/core/model"
)

type memoryObject struct {
	contentType string
	metadata    map[string]string
	body        []byte
}

// MemoryStore is an in-memory cloud.ObjectStore. Failures can be injected
// per path and every mutating call is counted.
type MemoryStore struct {
	mu      sync.Mutex
	bucket  string
	objects map[string]*memoryObject
	peers   map[string]*MemoryStore

	ListErr    error
	StatErr    map[string]error
	DeleteErr  map[string]error
	UpdateErr  map[string]error
	CopyErr    map[string]error            // Keyed by destination path.
	CopyResult map[string]cloud.CopyStatus // Keyed by destination path; defaults to success.

	Deletes int
	Copies  int
	Updates int
	Lists   int
}

// NewMemoryStore returns an empty store for bucket.
func NewMemoryStore(bucket string) *MemoryStore {
	return &MemoryStore{
		bucket:     bucket,
		objects:    make(map[string]*memoryObject),
		peers:      make(map[string]*MemoryStore),
		StatErr:    make(map[string]error),
		DeleteErr:  make(map[string]error),
		UpdateErr:  make(map[string]error),
		CopyErr:    make(map[string]error),
		CopyResult: make(map[string]cloud.CopyStatus),
	}
}

// Seed adds an object without going through Put.
func (s *MemoryStore) Seed(path, contentType string, metadata map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path] = &memoryObject{contentType: contentType, metadata: maps.Clone(metadata)}
}

// Has reports whether path exists.
func (s *MemoryStore) Has(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[path]
	return ok
}

// Metadata returns a copy of path's metadata, or nil.
func (s *MemoryStore) Metadata(path string) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.objects[path]; ok {
		return maps.Clone(o.metadata)
	}
	return nil
}

// Body returns the bytes written to path.
func (s *MemoryStore) Body(path string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.objects[path]; ok {
		return o.body
	}
	return nil
}

// Paths returns every stored path in order.
func (s *MemoryStore) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked("")
}

func (s *MemoryStore) Container() string { return s.bucket }

func (s *MemoryStore) URI(path string) string {
	return cloud.ServiceURI(cloud.ProviderGCS, s.bucket, path)
}

// List pages through paths in lexical order. The cursor is the last path
// of the previous page.
func (s *MemoryStore) List(_ context.Context, prefix string, pageSize int, cursor string) (*cloud.ListPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Lists++
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	if pageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %d", pageSize)
	}
	keys := s.sortedLocked(prefix)
	start := 0
	if cursor != "" {
		start = sort.SearchStrings(keys, cursor)
		if start < len(keys) && keys[start] == cursor {
			start++
		}
	}
	end := min(start+pageSize, len(keys))
	page := &cloud.ListPage{Items: make([]*model.MediaItem, 0, end-start)}
	for _, k := range keys[start:end] {
		page.Items = append(page.Items, s.itemLocked(k))
	}
	if end < len(keys) {
		page.NextCursor = keys[end-1]
	}
	return page, nil
}

func (s *MemoryStore) Stat(_ context.Context, path string) (*model.MediaItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.StatErr[path]; err != nil {
		return nil, err
	}
	if _, ok := s.objects[path]; !ok {
		return nil, fmt.Errorf("stat %s: %w", path, cloud.ErrNotFound)
	}
	return s.itemLocked(path), nil
}

func (s *MemoryStore) Put(_ context.Context, path string, contentType string, metadata map[string]string, body io.Reader) (*model.MediaItem, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path] = &memoryObject{contentType: contentType, metadata: maps.Clone(metadata), body: data}
	return s.itemLocked(path), nil
}

func (s *MemoryStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.DeleteErr[path]; err != nil {
		return err
	}
	if _, ok := s.objects[path]; !ok {
		return fmt.Errorf("delete %s: %w", path, cloud.ErrNotFound)
	}
	delete(s.objects, path)
	s.Deletes++
	return nil
}

// CopyFrom copies within the store or from a store registered with Link.
func (s *MemoryStore) CopyFrom(_ context.Context, srcContainer, srcPath, dstPath string) (cloud.CopyStatus, error) {
	src := s.source(srcContainer)
	if src == nil {
		return cloud.CopyFailed, fmt.Errorf("copy from %s: %w", srcContainer, cloud.ErrNotFound)
	}
	src.mu.Lock()
	obj, ok := src.objects[srcPath]
	var clone *memoryObject
	if ok {
		clone = &memoryObject{contentType: obj.contentType, metadata: maps.Clone(obj.metadata), body: bytes.Clone(obj.body)}
	}
	src.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.CopyErr[dstPath]; err != nil {
		return cloud.CopyFailed, err
	}
	if !ok {
		return cloud.CopyFailed, fmt.Errorf("copy %s: %w", srcPath, cloud.ErrNotFound)
	}
	status := cloud.CopySuccess
	if st, ok := s.CopyResult[dstPath]; ok {
		status = st
	}
	if status == cloud.CopySuccess {
		s.objects[dstPath] = clone
	}
	s.Copies++
	return status, nil
}

func (s *MemoryStore) UpdateMetadata(_ context.Context, path string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.UpdateErr[path]; err != nil {
		return err
	}
	obj, ok := s.objects[path]
	if !ok {
		return fmt.Errorf("update %s: %w", path, cloud.ErrNotFound)
	}
	if obj.metadata == nil {
		obj.metadata = make(map[string]string, len(fields))
	}
	maps.Copy(obj.metadata, fields)
	s.Updates++
	return nil
}

// Link lets CopyFrom read from other stores by container name.
func (s *MemoryStore) Link(others ...*MemoryStore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range others {
		s.peers[o.bucket] = o
	}
}

func (s *MemoryStore) source(container string) *MemoryStore {
	if container == s.bucket {
		return s
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peers[container]
}

func (s *MemoryStore) sortedLocked(prefix string) []string {
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func (s *MemoryStore) itemLocked(path string) *model.MediaItem {
	o := s.objects[path]
	return &model.MediaItem{
		Path:        path,
		ContentType: o.contentType,
		Size:        int64(len(o.body)),
		Metadata:    maps.Clone(o.metadata),
	}
}
