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

// Package services contains the gallery's core orchestration logic.
// This file, `upload.go`, defines the UploadService, which stores a new
// original and, for videos, submits its transcode inline.
package services

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/h2non/filetype"
	"github.com/jaycherian/gcp-go-media-gallery/internal/cloud"
	"github.com/jaycherian/gcp-go-media-gallery/internal/core/model"
)

// sniffLen is how many leading bytes are inspected to detect a content type.
const sniffLen = 261

// UploadService writes uploads under the original prefix.
type UploadService struct {
	Store      cloud.ObjectStore
	Rules      model.PathRules
	URLs       *URLResolver
	Transcodes *TranscodeJobManager // Nil disables inline transcoding.
	Transform  string
	Now        func() time.Time
}

// Upload stores body as a new original and returns its view.
//
// Inputs:
//   - ctx: The request context.
//   - filename: The caller's file name; directories are stripped.
//   - contentType: The declared content type; sniffed from body when empty.
//   - body: The file contents.
//
// Outputs:
//   - *model.MediaView: The stored item.
//   - error: The name was unusable or the write failed.
func (u *UploadService) Upload(ctx context.Context, filename, contentType string, body io.Reader) (*model.MediaView, error) {
	name := sanitizeFilename(filename)
	if name == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
	}
	now := time.Now
	if u.Now != nil {
		now = u.Now
	}
	target := fmt.Sprintf("%s%d-%s", u.Rules.OriginalPrefix, now().UnixMilli(), name)

	br := bufio.NewReaderSize(body, sniffLen)
	contentType = detectContentType(contentType, br)

	metadata := map[string]string{model.MetaUploadChannel: model.UploadChannelAPI}
	item, err := u.Store.Put(ctx, target, contentType, metadata, br)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", target, err)
	}
	slog.InfoContext(ctx, "stored upload", "path", item.Path, "contentType", item.ContentType)

	if item.IsVideo() && u.Transcodes != nil {
		u.submit(ctx, item)
	}

	return &model.MediaView{
		Name:         item.Path,
		ContentType:  item.ContentType,
		URL:          u.URLs.PrimaryURL(item),
		ThumbnailURL: u.URLs.ThumbnailURL(item),
		Metadata:     item.Metadata,
	}, nil
}

// submit never fails the upload; a video without a job stays "processing".
func (u *UploadService) submit(ctx context.Context, item *model.MediaItem) {
	handle, err := u.Transcodes.Submit(ctx, u.Store.URI(item.Path), u.Transform)
	if err != nil {
		slog.WarnContext(ctx, "transcode submission failed", "path", item.Path, "error", err)
		return
	}
	stamp := handle.Metadata()
	if err := u.Store.UpdateMetadata(ctx, item.Path, stamp); err != nil {
		slog.WarnContext(ctx, "failed to record transcode job", "path", item.Path, "job", handle.Name, "error", err)
		return
	}
	if item.Metadata == nil {
		item.Metadata = make(map[string]string, len(stamp))
	}
	for k, v := range stamp {
		item.Metadata[k] = v
	}
}

// detectContentType prefers the declared type, then the sniffed one.
func detectContentType(declared string, br *bufio.Reader) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	head, _ := br.Peek(sniffLen)
	if kind, err := filetype.Match(head); err == nil && kind != filetype.Unknown {
		return kind.MIME.Value
	}
	return "application/octet-stream"
}

// sanitizeFilename keeps the base name and replaces characters that would
// make awkward object paths.
func sanitizeFilename(filename string) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == 0x7f:
			return -1
		case strings.ContainsRune(`?#%*:"<>|`, r):
			return '_'
		case r == ' ':
			return '-'
		}
		return r
	}, name)
}
