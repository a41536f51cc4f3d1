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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface. This file holds the steps
// of asset relocation, which moves a finished job's output to its permanent
// location:
//
//  1. AssetResolve finds the transient asset bound to the job name.
//  2. TranscodeOutputLocate picks the encoded deliverable inside it.
//  3. TranscodeOutputCopy copies it to the permanent path and checks the
//     reported copy status.
//  4. SourceStamp writes the permanent URL onto the source item.
//  5. AssetCleanup deletes the transient asset, best-effort.
//
// All steps share one *model.Relocation stored under RelocationParam. When
// the asset is already gone but the permanent copy exists, steps 2, 3 and 5
// are skipped and the source is re-stamped.
package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/jaycherian/gcp-go-media-gallery/internal/cloud"
	"github.com/jaycherian/gcp-go-media-gallery/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-gallery/internal/core/model"
	"github.com/jaycherian/gcp-go-media-gallery/internal/core/services"
)

// RelocationParam is the context key of the shared *model.Relocation.
const RelocationParam = "__RELOCATION__"

// locatePageSize bounds each listing of a transient asset.
const locatePageSize = 50

func relocationCommand(name string) cor.BaseCommand {
	c := *cor.NewBaseCommand(name)
	c.InputParamName = RelocationParam
	c.OutputParamName = RelocationParam
	return c
}

func relocationOf(context cor.Context) *model.Relocation {
	r, _ := context.Get(RelocationParam).(*model.Relocation)
	return r
}

// pendingCopy is executable while there is still transient output to move.
func pendingCopy(context cor.Context) bool {
	r := relocationOf(context)
	return r != nil && context.GetContext() != nil && !r.AlreadyRelocated
}

// AssetResolve resolves the transient asset of the job.
type AssetResolve struct {
	cor.BaseCommand
	jobs  cloud.JobService
	media cloud.ObjectStore
}

// NewAssetResolve is the constructor for AssetResolve.
func NewAssetResolve(name string, jobs cloud.JobService, media cloud.ObjectStore) *AssetResolve {
	return &AssetResolve{BaseCommand: relocationCommand(name), jobs: jobs, media: media}
}

func (c *AssetResolve) Execute(context cor.Context) {
	r := relocationOf(context)
	ctx := context.GetContext()

	asset, err := c.jobs.GetAsset(ctx, r.JobName)
	if err == nil {
		r.AssetContainer, r.AssetPrefix = asset.Container, asset.Prefix
		c.Succeed(context)
		return
	}
	if !errors.Is(err, cloud.ErrNotFound) {
		c.Fail(context, fmt.Errorf("resolve asset %s: %w", r.JobName, err))
		return
	}

	// No asset: either an earlier run already moved it, or there never was output.
	_, statErr := c.media.Stat(ctx, r.DestinationPath)
	switch {
	case statErr == nil:
		r.AlreadyRelocated = true
		slog.DebugContext(ctx, "asset already relocated", "job", r.JobName, "destination", r.DestinationPath)
		c.Succeed(context)
	case errors.Is(statErr, cloud.ErrNotFound):
		c.Fail(context, fmt.Errorf("%w: job %s", services.ErrNoTranscodedOutput, r.JobName))
	default:
		c.Fail(context, fmt.Errorf("stat %s: %w", r.DestinationPath, statErr))
	}
}

// TranscodeOutputLocate finds the deliverable inside the asset. The first
// object with the expected content type wins; objects whose extension
// matches are the fallback when the service reports no content type.
type TranscodeOutputLocate struct {
	cor.BaseCommand
	assets      cloud.ObjectStore
	contentType string
	extension   string
}

// NewTranscodeOutputLocate is the constructor for TranscodeOutputLocate.
func NewTranscodeOutputLocate(name string, assets cloud.ObjectStore, contentType, extension string) *TranscodeOutputLocate {
	return &TranscodeOutputLocate{
		BaseCommand: relocationCommand(name),
		assets:      assets,
		contentType: contentType,
		extension:   "." + strings.TrimPrefix(extension, "."),
	}
}

func (c *TranscodeOutputLocate) IsExecutable(context cor.Context) bool { return pendingCopy(context) }

func (c *TranscodeOutputLocate) Execute(context cor.Context) {
	r := relocationOf(context)
	ctx := context.GetContext()

	fallback := ""
	cursor := ""
	for {
		page, err := c.assets.List(ctx, r.AssetPrefix, locatePageSize, cursor)
		if err != nil {
			c.Fail(context, fmt.Errorf("list asset %s: %w", r.JobName, err))
			return
		}
		for _, item := range page.Items {
			if strings.EqualFold(item.ContentType, c.contentType) {
				r.OutputPath = item.Path
				c.Succeed(context)
				return
			}
			if fallback == "" && strings.EqualFold(path.Ext(item.Path), c.extension) {
				fallback = item.Path
			}
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	if fallback == "" {
		c.Fail(context, fmt.Errorf("%w: asset %s holds no %s", services.ErrNoTranscodedOutput, r.JobName, c.contentType))
		return
	}
	r.OutputPath = fallback
	c.Succeed(context)
}

// TranscodeOutputCopy copies the deliverable to its permanent path. Only a
// reported success counts; the copy is safe to repeat.
type TranscodeOutputCopy struct {
	cor.BaseCommand
	media cloud.ObjectStore
}

// NewTranscodeOutputCopy is the constructor for TranscodeOutputCopy.
func NewTranscodeOutputCopy(name string, media cloud.ObjectStore) *TranscodeOutputCopy {
	return &TranscodeOutputCopy{BaseCommand: relocationCommand(name), media: media}
}

func (c *TranscodeOutputCopy) IsExecutable(context cor.Context) bool { return pendingCopy(context) }

func (c *TranscodeOutputCopy) Execute(context cor.Context) {
	r := relocationOf(context)
	status, err := c.media.CopyFrom(context.GetContext(), r.AssetContainer, r.OutputPath, r.DestinationPath)
	if err != nil {
		c.Fail(context, fmt.Errorf("%w: %s to %s: %w", services.ErrCopyFailed, r.OutputPath, r.DestinationPath, err))
		return
	}
	if status != cloud.CopySuccess {
		c.Fail(context, fmt.Errorf("%w: %s to %s reported %s", services.ErrCopyFailed, r.OutputPath, r.DestinationPath, status))
		return
	}
	c.Succeed(context)
}

// SourceStamp records the permanent URL on the source item. The write is a
// last-write-wins overwrite.
type SourceStamp struct {
	cor.BaseCommand
	media cloud.ObjectStore
}

// NewSourceStamp is the constructor for SourceStamp.
func NewSourceStamp(name string, media cloud.ObjectStore) *SourceStamp {
	return &SourceStamp{BaseCommand: relocationCommand(name), media: media}
}

func (c *SourceStamp) Execute(context cor.Context) {
	r := relocationOf(context)
	err := c.media.UpdateMetadata(context.GetContext(), r.SourcePath, map[string]string{
		model.MetaTranscodedURL: r.DestinationURL,
	})
	if err != nil {
		c.Fail(context, fmt.Errorf("stamp %s: %w", r.SourcePath, err))
		return
	}
	c.Succeed(context)
}

// AssetCleanup deletes the transient asset. A failure leaks the asset and is
// only logged.
type AssetCleanup struct {
	cor.BaseCommand
	jobs cloud.JobService
}

// NewAssetCleanup is the constructor for AssetCleanup.
func NewAssetCleanup(name string, jobs cloud.JobService) *AssetCleanup {
	return &AssetCleanup{BaseCommand: relocationCommand(name), jobs: jobs}
}

func (c *AssetCleanup) IsExecutable(context cor.Context) bool { return pendingCopy(context) }

func (c *AssetCleanup) Execute(context cor.Context) {
	r := relocationOf(context)
	ctx := context.GetContext()
	if err := c.jobs.DeleteAsset(ctx, r.JobName); err != nil {
		slog.WarnContext(ctx, "failed to delete transient asset", "job", r.JobName, "error", err)
		if c.ErrorCounter != nil {
			c.ErrorCounter.Add(ctx, 1)
		}
		return
	}
	c.Succeed(context)
}
