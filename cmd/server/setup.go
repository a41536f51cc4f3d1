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

package main

import (
	"context"
	"log/slog"

	"github.com/jaycherian/gcp-go-media-gallery/internal/api"
	"github.com/jaycherian/gcp-go-media-gallery/internal/cloud"
	"github.com/jaycherian/gcp-go-media-gallery/internal/core/services"
	"github.com/jaycherian/gcp-go-media-gallery/internal/core/workflow"
)

// UploadTopic is the subscription key whose notifications trigger transcodes.
const UploadTopic = "UploadTopic"

// StateManager holds the components built once at startup.
type StateManager struct {
	config     *cloud.Config
	cloud      *cloud.ServiceClients
	activity   services.ActivityLog
	transcodes *services.TranscodeJobManager
	listing    *services.ListingPaginator
	gallery    *api.Gallery
}

// Close releases every client.
func (s *StateManager) Close() {
	if s.cloud != nil {
		s.cloud.Close()
	}
}

// InitState builds the clients and the gallery services for config.
func InitState(ctx context.Context, config *cloud.Config) (*StateManager, error) {
	clients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		return nil, err
	}
	state := &StateManager{config: config, cloud: clients}

	state.activity = newActivityLog(ctx, config, clients)

	rules := config.PathRules()
	urls := &services.URLResolver{
		RawBaseURL: config.BaseURL(),
		CDNBaseURL: config.Storage.CDNBaseURL,
		Rules:      rules,
	}

	state.listing = &services.ListingPaginator{
		Store:           clients.MediaStore,
		Prefix:          config.Storage.ListPrefix,
		DefaultPageSize: config.Gallery.DefaultPageSize,
		MaxConcurrency:  config.Application.ThreadPoolSize,
		URLs:            urls,
	}
	uploads := &services.UploadService{
		Store:     clients.MediaStore,
		Rules:     rules,
		URLs:      urls,
		Transform: config.Transcoder.DefaultTransform,
	}

	if clients.JobService != nil {
		registry := services.NewTransformRegistry(clients.JobService, config.Transcoder.DefaultTransform)
		state.transcodes = services.NewTranscodeJobManager(clients.JobService, registry, state.activity)
		uploads.Transcodes = state.transcodes
		state.listing.Poller = &services.JobStatusPoller{Jobs: clients.JobService}
		state.listing.Relocator = workflow.NewAssetRelocationWorkflow(
			config, clients.MediaStore, clients.TransientStore, clients.JobService, urls, state.activity)
	} else {
		slog.WarnContext(ctx, "transcoding disabled; videos will stay in processing")
	}

	batches := services.NewBatchOperationCoordinator(
		services.PasswordAuthorizer{Secret: config.Gallery.ManagePassword},
		config.Application.ThreadPoolSize,
		state.activity)
	if config.Gallery.ManagePassword == "" {
		slog.WarnContext(ctx, "no manage password configured; PATCH and DELETE will reject every request")
	}

	state.gallery = &api.Gallery{
		Listing:        state.listing,
		Uploads:        uploads,
		Batches:        batches,
		Delete:         services.DeleteOperation{Store: clients.MediaStore},
		Patch:          services.PatchOperation{Store: clients.MediaStore},
		MaxUploadBytes: config.Gallery.MaxUploadBytes,
	}
	return state, nil
}

// newActivityLog returns the BigQuery ledger when one is configured.
func newActivityLog(ctx context.Context, config *cloud.Config, clients *cloud.ServiceClients) services.ActivityLog {
	if clients.BiqQueryClient == nil {
		return services.NopActivityLog{}
	}
	ledger := services.NewBigQueryActivityLog(clients.BiqQueryClient,
		config.BigQueryDataSource.DatasetName, config.BigQueryDataSource.ActivityTable)
	if err := ledger.EnsureTable(ctx); err != nil {
		slog.WarnContext(ctx, "failed to ensure activity table", "error", err)
	}
	return ledger
}

// SetupListeners attaches the transcode trigger to the upload subscription and
// starts it. Listeners stop when ctx is cancelled.
func SetupListeners(ctx context.Context, state *StateManager) {
	for key, listener := range state.cloud.PubSubListeners {
		if key != UploadTopic {
			slog.WarnContext(ctx, "no workflow for subscription", "key", key)
			continue
		}
		if state.transcodes == nil {
			slog.WarnContext(ctx, "upload notifications ignored while transcoding is disabled")
			continue
		}
		listener.SetCommand(workflow.NewTranscodeTriggerWorkflow(state.config, state.cloud.MediaStore, state.transcodes))
		listener.Listen(ctx)
	}
}
