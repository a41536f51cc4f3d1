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

// Package cloud provides components for interacting with Google Cloud services.
// This file is the gallery's dependency injection container: every client the
// process needs is constructed once at startup, bundled into ServiceClients
// and passed by reference to the components that use it.
//
// Logic Flow:
//  1. `NewCloudServiceClients` is called at application startup with the config.
//  2. The media store is built for the configured provider (GCS or S3), along
//     with a second store for the bucket transient job output lands in.
//  3. When transcoding is enabled on GCS, a Transcoder client is created and
//     wrapped in the quota-aware decorator.
//  4. BigQuery and Pub/Sub clients are created only when their sections are
//     configured.
//  5. The caller closes everything with `Close` on shutdown.
//
// Structs:
//   - ServiceClients: A container for every external client and adapter.
//
// Functions:
//   - Close: Gracefully shuts down all client connections.
//   - NewCloudServiceClients: Creates and configures the clients for a config.
package cloud

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	transcoder "cloud.google.com/go/video/transcoder/apiv1"
)

// ServiceClients is a central container for all the clients that interact
// with external services.
type ServiceClients struct {
	StorageClient    *storage.Client            // Set when the provider is GCS.
	PubsubClient     *pubsub.Client             // Set when subscriptions are configured.
	BiqQueryClient   *bigquery.Client           // Set when the activity ledger is configured.
	TranscoderClient *transcoder.Client         // Set when transcoding is enabled.
	MediaStore       ObjectStore                // Store holding originals and transcoded copies.
	TransientStore   ObjectStore                // Store job output is written to.
	JobService       JobService                 // Nil when transcoding is disabled.
	PubSubListeners  map[string]*PubSubListener // Keyed by the logical name from the config.
}

// Close shuts down every client that was created.
func (c *ServiceClients) Close() {
	if c.StorageClient != nil {
		_ = c.StorageClient.Close()
	}
	if c.PubsubClient != nil {
		_ = c.PubsubClient.Close()
	}
	if c.BiqQueryClient != nil {
		_ = c.BiqQueryClient.Close()
	}
	if c.TranscoderClient != nil {
		_ = c.TranscoderClient.Close()
	}
}

// NewCloudServiceClients initializes all required clients based on config.
// On error, clients created so far are closed.
//
// Inputs:
//   - ctx: The root context.Context for the application.
//   - config: A pointer to the loaded application configuration.
//
// Outputs:
//   - *ServiceClients: The initialized container.
//   - error: An error if any client fails to initialize.
func NewCloudServiceClients(ctx context.Context, config *Config) (cloud *ServiceClients, err error) {
	cloud = &ServiceClients{PubSubListeners: make(map[string]*PubSubListener)}
	defer func() {
		if err != nil {
			cloud.Close()
			cloud = nil
		}
	}()

	if config.Storage.Bucket == "" {
		return cloud, fmt.Errorf("storage.bucket is required")
	}

	switch config.Storage.Provider {
	case ProviderS3:
		media, err := NewS3Store(ctx, config.Storage.Bucket, config.Storage.Region)
		if err != nil {
			return cloud, err
		}
		transient, err := NewS3Store(ctx, config.TransientBucket(), config.Storage.Region)
		if err != nil {
			return cloud, err
		}
		cloud.MediaStore, cloud.TransientStore = media, transient
	case ProviderGCS, "":
		sc, err := storage.NewClient(ctx)
		if err != nil {
			return cloud, err
		}
		cloud.StorageClient = sc
		cloud.MediaStore = NewGCSStore(sc, config.Storage.Bucket)
		cloud.TransientStore = NewGCSStore(sc, config.TransientBucket())
	default:
		return cloud, fmt.Errorf("unknown storage provider %q", config.Storage.Provider)
	}

	if config.Transcoder.Enabled {
		if cloud.StorageClient == nil {
			// The Transcoder API only reads and writes gs:// URIs.
			slog.WarnContext(ctx, "transcoding requires the gcs provider; disabled", "provider", config.Storage.Provider)
		} else {
			tc, err := transcoder.NewClient(ctx)
			if err != nil {
				return cloud, err
			}
			cloud.TranscoderClient = tc
			svc := NewTranscoderJobService(tc, config.Application.GoogleProjectId, config.Application.GoogleLocation, cloud.TransientStore)
			cloud.JobService = NewQuotaAwareJobService(svc, config.Transcoder.RequestsPerSecond)
		}
	}

	if config.BigQueryDataSource.Enabled() {
		bc, err := bigquery.NewClient(ctx, config.Application.GoogleProjectId)
		if err != nil {
			return cloud, err
		}
		cloud.BiqQueryClient = bc
	}

	if len(config.TopicSubscriptions) > 0 {
		pc, err := pubsub.NewClient(ctx, config.Application.GoogleProjectId)
		if err != nil {
			return cloud, err
		}
		cloud.PubsubClient = pc
		// Commands are attached once the workflows are built.
		for subKey, values := range config.TopicSubscriptions {
			listener, err := NewPubSubListener(pc, values.Name, nil)
			if err != nil {
				return cloud, err
			}
			cloud.PubSubListeners[subKey] = listener
		}
	}

	return cloud, nil
}
