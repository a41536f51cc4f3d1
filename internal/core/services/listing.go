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
// This file, `listing.go`, defines the ListingPaginator.
//
// Logic Flow:
//  1. One bounded list call is made against the store with the caller's
//     cursor. The page is done exactly when the store returns no cursor.
//  2. Each item gets its primary and thumbnail URL from the URLResolver.
//  3. Videos are resolved concurrently: a stored transcodedUrl is returned
//     as-is; otherwise a job reference is polled once and, when the job has
//     finished, relocation is started in the background and the destination
//     URL is returned before it is durable.
//  4. Items come back in the store's order.
package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jaycherian/gcp-go-media-gallery/internal/cloud"
	"github.com/jaycherian/gcp-go-media-gallery/internal/core/model"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// DefaultPageSize is used when neither the caller nor the config give one.
const DefaultPageSize = 2

// Relocator moves a finished job's output to its permanent location.
type Relocator interface {
	Relocate(ctx context.Context, jobName, sourcePath string) (string, error)
}

// ListingPaginator serves cursor-paginated gallery pages.
type ListingPaginator struct {
	Store           cloud.ObjectStore
	Prefix          string
	DefaultPageSize int
	MaxConcurrency  int // Bound on concurrent per-item resolution; <= 0 means unbounded.
	URLs            *URLResolver
	Poller          *JobStatusPoller // Nil disables transcode polling.
	Relocator       Relocator        // Nil disables relocation.

	// Dispatch runs a background relocation. The default starts a goroutine
	// tracked by Drain.
	Dispatch func(func())

	inflight singleflight.Group
	pending  sync.WaitGroup
}

// Page returns one page of the gallery.
//
// Inputs:
//   - ctx: The request context.
//   - pageSize: Items per page; values <= 0 fall back to the default.
//   - cursor: The previous page's NextPage, or "" for the first page.
//
// Outputs:
//   - *model.Page: The views, the next cursor and the done flag.
//   - error: The list call failed.
func (p *ListingPaginator) Page(ctx context.Context, pageSize int, cursor string) (*model.Page, error) {
	if pageSize <= 0 {
		pageSize = p.DefaultPageSize
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	listed, err := p.Store.List(ctx, p.Prefix, pageSize, cursor)
	if err != nil {
		return nil, err
	}

	views := make([]*model.MediaView, len(listed.Items))
	var g errgroup.Group
	if p.MaxConcurrency > 0 {
		g.SetLimit(p.MaxConcurrency)
	}
	for i, item := range listed.Items {
		g.Go(func() error {
			views[i] = p.view(ctx, item)
			return nil
		})
	}
	_ = g.Wait()

	return model.NewPage(views, listed.NextCursor), nil
}

// Drain waits for background relocations started by the default dispatcher.
func (p *ListingPaginator) Drain() {
	p.pending.Wait()
}

func (p *ListingPaginator) view(ctx context.Context, item *model.MediaItem) *model.MediaView {
	v := &model.MediaView{
		Name:         item.Path,
		ContentType:  item.ContentType,
		URL:          p.URLs.PrimaryURL(item),
		ThumbnailURL: p.URLs.ThumbnailURL(item),
		Metadata:     item.Metadata,
	}
	if item.IsVideo() {
		v.TranscodedURL = p.transcodedURL(ctx, item)
	}
	return v
}

// transcodedURL returns "" while the video is still processing.
func (p *ListingPaginator) transcodedURL(ctx context.Context, item *model.MediaItem) string {
	if u := item.Meta(model.MetaTranscodedURL); u != "" {
		return u
	}
	transform, jobRef, ok := item.TranscodeJob()
	if !ok || p.Poller == nil || p.Relocator == nil {
		return ""
	}
	if !p.Poller.IsComplete(ctx, transform, jobRef) {
		return ""
	}
	p.relocate(ctx, item.Meta(model.MetaTranscodeJobName), item.Path)
	return p.URLs.TranscodedURL(item.Path)
}

// relocate starts a relocation that outlives the request. Concurrent
// listings of the same job share one run.
func (p *ListingPaginator) relocate(ctx context.Context, jobName, sourcePath string) {
	detached := context.WithoutCancel(ctx)
	run := func() {
		_, err, _ := p.inflight.Do(jobName, func() (interface{}, error) {
			return p.Relocator.Relocate(detached, jobName, sourcePath)
		})
		if err != nil {
			slog.WarnContext(detached, "relocation failed; will retry on next listing", "job", jobName, "source", sourcePath, "error", err)
		}
	}
	if p.Dispatch != nil {
		p.Dispatch(run)
		return
	}
	p.pending.Add(1)
	go func() {
		defer p.pending.Done()
		run()
	}()
}
