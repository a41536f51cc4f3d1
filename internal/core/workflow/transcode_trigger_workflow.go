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
// into pipelines. This file implements the workflow driven by storage upload
// notifications: objects written outside the HTTP surface get their
// transcode submitted here.
package workflow

import (
	"github.com/jaycherian/gcp-go-media-gallery/internal/cloud"
	"github.com/jaycherian/gcp-go-media-gallery/internal/core/commands"
	"github.com/jaycherian/gcp-go-media-gallery/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-gallery/internal/core/services"
)

// TranscodeTriggerWorkflow parses a notification, filters out objects that
// need no transcode and submits the rest.
type TranscodeTriggerWorkflow struct {
	cor.BaseCommand
	chain cor.Chain
}

// NewTranscodeTriggerWorkflow builds the trigger chain.
//
// Inputs:
//   - config: Supplies path rules and the default transform.
//   - media: The media store the notifications refer to.
//   - manager: Submits transcode jobs.
func NewTranscodeTriggerWorkflow(
	config *cloud.Config,
	media cloud.ObjectStore,
	manager *services.TranscodeJobManager) *TranscodeTriggerWorkflow {
	out := &TranscodeTriggerWorkflow{BaseCommand: *cor.NewBaseCommand("transcode-trigger-workflow")}

	chain := cor.NewBaseChain(out.GetName())
	chain.AddCommand(commands.NewMediaTriggerToGCSObject("gcs-topic-listener"))
	chain.AddCommand(commands.NewTranscodeCandidateFilter("transcode-candidate-filter", media, config.PathRules()))
	chain.AddCommand(commands.NewTranscodeSubmit("transcode-submit", media, manager, config.Transcoder.DefaultTransform))
	out.chain = chain
	return out
}

// Execute runs the chain; the context's input is the raw notification text.
func (w *TranscodeTriggerWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}
