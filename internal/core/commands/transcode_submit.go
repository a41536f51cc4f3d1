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
	"fmt"
	"log/slog"

	"github.com/jaycherian/gcp-go-media-gallery/internal/cloud"
	"github.com/jaycherian/gcp-go-media-gallery/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-gallery/internal/core/model"
	"github.com/jaycherian/gcp-go-media-gallery/internal/core/services"
)

// TranscodeSubmit submits the input item for transcoding and stamps the job
// handle onto it so later listings can poll the job.
type TranscodeSubmit struct {
	cor.BaseCommand
	store     cloud.ObjectStore
	manager   *services.TranscodeJobManager
	transform string
}

// NewTranscodeSubmit is the constructor for TranscodeSubmit.
//
// Inputs:
//   - name: A string name for this command instance.
//   - store: The media store holding the item.
//   - manager: Submits the job.
//   - transform: Transform to submit under; "" for the default.
func NewTranscodeSubmit(name string, store cloud.ObjectStore, manager *services.TranscodeJobManager, transform string) *TranscodeSubmit {
	return &TranscodeSubmit{
		BaseCommand: *cor.NewBaseCommand(name),
		store:       store,
		manager:     manager,
		transform:   transform,
	}
}

func (c *TranscodeSubmit) Execute(context cor.Context) {
	item := context.Get(c.GetInputParam()).(*model.MediaItem)
	ctx := context.GetContext()

	handle, err := c.manager.Submit(ctx, c.store.URI(item.Path), c.transform)
	if err != nil {
		c.Fail(context, fmt.Errorf("submit %s: %w", item.Path, err))
		return
	}
	context.Add(c.GetOutputParam(), handle)

	// The job exists from here on. Failing now would leave the notification
	// unacked, and its redelivery would submit the same upload again.
	if err := c.store.UpdateMetadata(ctx, item.Path, handle.Metadata()); err != nil {
		slog.WarnContext(ctx, "failed to record transcode job", "path", item.Path, "job", handle.Name, "error", err)
		if c.ErrorCounter != nil {
			c.ErrorCounter.Add(ctx, 1)
		}
		return
	}
	c.Succeed(context)
}
