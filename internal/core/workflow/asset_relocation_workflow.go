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

// Package workflow defines the high-level orchestrations, combining commands
// into pipelines. This file implements asset relocation: moving a finished
// transcode's output from the transient asset to its permanent path and
// pointing the source item at it.
package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jaycherian/gcp-go-media-gallery/internal/cloud"
	"github.com/jaycherian/gcp-go-media-gallery/internal/core/commands"
	"github.com/jaycherian/gcp-go-media-gallery/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-gallery/internal/core/model"
	"github.com/jaycherian/gcp-go-media-gallery/internal/core/services"
)

// AssetRelocationWorkflow runs the relocation chain for one job at a time.
// It is safe for concurrent use; every run gets its own chain context.
type AssetRelocationWorkflow struct {
	cor.BaseCommand
	chain    cor.Chain
	urls     *services.URLResolver
	activity services.ActivityLog
}

// NewAssetRelocationWorkflow builds the relocation chain.
//
// Inputs:
//   - config: Supplies the output content type and extension.
//   - media: The permanent store holding sources and transcoded copies.
//   - assets: The store transient job output lands in.
//   - jobs: The job service owning the assets.
//   - urls: Derives destination paths and URLs.
//   - activity: Ledger for relocation outcomes; nil discards them.
func NewAssetRelocationWorkflow(
	config *cloud.Config,
	media cloud.ObjectStore,
	assets cloud.ObjectStore,
	jobs cloud.JobService,
	urls *services.URLResolver,
	activity services.ActivityLog) *AssetRelocationWorkflow {
	if activity == nil {
		activity = services.NopActivityLog{}
	}
	out := &AssetRelocationWorkflow{
		BaseCommand: *cor.NewBaseCommand("asset-relocation-workflow"),
		urls:        urls,
		activity:    activity,
	}
	out.BaseCommand.InputParamName = commands.RelocationParam

	chain := cor.NewBaseChain(out.GetName())
	chain.AddCommand(commands.NewAssetResolve("asset-resolve", jobs, media))
	chain.AddCommand(commands.NewTranscodeOutputLocate("transcode-output-locate", assets,
		config.Transcoder.OutputContentType, config.Transcoder.OutputExtension))
	chain.AddCommand(commands.NewTranscodeOutputCopy("transcode-output-copy", media))
	// Stamping before cleanup: if the stamp fails the asset is kept for the next attempt.
	chain.AddCommand(commands.NewSourceStamp("source-stamp", media))
	chain.AddCommand(commands.NewAssetCleanup("asset-cleanup", jobs))
	out.chain = chain
	return out
}

// Execute runs the chain against a context already holding a *model.Relocation.
func (w *AssetRelocationWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// Relocate moves the output of jobName and stamps sourcePath. It returns the
// permanent URL. Calling it again after a successful run succeeds without
// copying, provided the permanent copy is still there.
func (w *AssetRelocationWorkflow) Relocate(ctx context.Context, jobName, sourcePath string) (string, error) {
	if jobName == "" {
		return "", fmt.Errorf("relocate %s: no job name", sourcePath)
	}
	r := &model.Relocation{
		JobName:         jobName,
		SourcePath:      sourcePath,
		DestinationPath: w.urls.TranscodedPath(sourcePath),
		DestinationURL:  w.urls.TranscodedURL(sourcePath),
	}
	chCtx := cor.NewContext(ctx)
	chCtx.Add(commands.RelocationParam, r)
	w.Execute(chCtx)

	if err := chCtx.Err(); err != nil {
		w.activity.Log(ctx, model.ActivityEvent{Action: model.ActionRelocate, Item: sourcePath, Outcome: model.OutcomeFailed, Detail: err.Error()})
		return "", err
	}
	if !r.AlreadyRelocated {
		w.activity.Log(ctx, model.ActivityEvent{Action: model.ActionRelocate, Item: sourcePath, Outcome: model.OutcomeCompleted, Detail: r.DestinationURL})
	}
	slog.InfoContext(ctx, "relocated transcode output", "job", jobName, "source", sourcePath, "destination", r.DestinationPath, "alreadyRelocated", r.AlreadyRelocated)
	return r.DestinationURL, nil
}
