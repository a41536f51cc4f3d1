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

package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jaycherian/gcp-go-media-gallery/internal/cloud"
	"github.com/jaycherian/gcp-go-media-gallery/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-gallery/internal/core/model"
)

// TranscodeCandidateFilter passes an uploaded object on only when it still
// needs a transcode. Anything else ends the chain quietly so the message is
// acknowledged:
//   - objects in another bucket or outside the original prefix
//   - non-video objects
//   - objects that already carry a job, or were uploaded through the API
//     (those submit inline)
//   - objects deleted since the notification
type TranscodeCandidateFilter struct {
	cor.BaseCommand
	store cloud.ObjectStore
	rules model.PathRules
}

// NewTranscodeCandidateFilter is the constructor for TranscodeCandidateFilter.
func NewTranscodeCandidateFilter(name string, store cloud.ObjectStore, rules model.PathRules) *TranscodeCandidateFilter {
	return &TranscodeCandidateFilter{BaseCommand: *cor.NewBaseCommand(name), store: store, rules: rules}
}

func (c *TranscodeCandidateFilter) Execute(context cor.Context) {
	obj := context.Get(c.GetInputParam()).(*cloud.GCSObject)
	ctx := context.GetContext()

	if reason := c.skipReason(obj.MediaItem()); reason != "" {
		slog.DebugContext(ctx, "ignoring upload", "object", obj.Name, "reason", reason)
		return
	}
	if obj.Bucket != c.store.Container() {
		slog.DebugContext(ctx, "ignoring upload", "object", obj.Name, "reason", "foreign bucket", "bucket", obj.Bucket)
		return
	}

	// The notification may predate an inline submission; trust the store.
	current, err := c.store.Stat(ctx, obj.Name)
	if errors.Is(err, cloud.ErrNotFound) {
		slog.DebugContext(ctx, "ignoring upload", "object", obj.Name, "reason", "deleted")
		return
	}
	if err != nil {
		c.Fail(context, fmt.Errorf("stat %s: %w", obj.Name, err))
		return
	}
	if reason := c.skipReason(current); reason != "" {
		slog.DebugContext(ctx, "ignoring upload", "object", obj.Name, "reason", reason)
		return
	}

	context.Add(c.GetOutputParam(), current)
	c.Succeed(context)
}

func (c *TranscodeCandidateFilter) skipReason(item *model.MediaItem) string {
	switch {
	case !c.rules.IsOriginal(item.Path):
		return "outside original prefix"
	case !item.IsVideo():
		return "not a video"
	case item.Meta(model.MetaTranscodeJobName) != "":
		return "already submitted"
	case item.Meta(model.MetaUploadChannel) == model.UploadChannelAPI:
		return "submitted at upload"
	}
	return ""
}
