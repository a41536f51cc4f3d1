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

// Package cloud defines the data structures for application configuration,
// loaded from TOML files, along with the adapters the gallery uses to talk to
// its object store, its transcoding service, Pub/Sub and BigQuery.
//
// This file centralizes all configuration-related structs.
//
// Structs:
//   - Storage: Object store selection, buckets, URL bases and path prefixes.
//   - Transcoder: Job service settings (default transform, output format, quota).
//   - Gallery: Listing and management settings.
//   - Telemetry: Export switch, trace sampling and metric export interval.
//   - BigQueryDataSource: Dataset and table for the activity ledger.
//   - TopicSubscription: Configuration for a single Pub/Sub topic subscription.
//   - Config: The top-level struct that aggregates all other configuration structs.
package cloud

import (
	"fmt"
	"os"

	"github.com/jaycherian/gcp-go-media-gallery/internal/core/model"
)

// EnvManagePassword overrides Gallery.ManagePassword when set.
const EnvManagePassword = "GALLERY_MANAGE_PASSWORD"

// Object store providers.
const (
	ProviderGCS = "gcs"
	ProviderS3  = "s3"
)

// BigQueryDataSource represents the configuration for the activity ledger.
type BigQueryDataSource struct {
	DatasetName   string `toml:"dataset"`        // The name of the BigQuery dataset.
	ActivityTable string `toml:"activity_table"` // The table receiving one row per item outcome.
}

// Enabled reports whether the ledger has somewhere to write.
func (b BigQueryDataSource) Enabled() bool {
	return b.DatasetName != "" && b.ActivityTable != ""
}

// TopicSubscription represents the configuration for a Pub/Sub topic subscription.
type TopicSubscription struct {
	Name             string `toml:"name"`               // The name of the Pub/Sub subscription.
	DeadLetterTopic  string `toml:"dead_letter_topic"`  // The name of the dead-letter topic for the subscription.
	TimeoutInSeconds int    `toml:"timeout_in_seconds"` // The timeout for the subscription in seconds.
}

// Storage represents the configuration for the media object store.
type Storage struct {
	Provider           string `toml:"provider"`            // "gcs" (default) or "s3".
	Bucket             string `toml:"bucket"`              // Bucket holding originals, transcoded copies and thumbnails.
	TransientBucket    string `toml:"transient_bucket"`    // Bucket receiving raw job output; defaults to Bucket.
	Region             string `toml:"region"`              // Region for the S3 provider.
	BaseURL            string `toml:"base_url"`            // Raw store base URL used to build item URLs.
	CDNBaseURL         string `toml:"cdn_base_url"`        // Optional CDN base used for images.
	ListPrefix         string `toml:"list_prefix"`         // Prefix listed by the gallery.
	OriginalPrefix     string `toml:"original_prefix"`     // Prefix uploads are written under.
	TranscodedPrefix   string `toml:"transcoded_prefix"`   // Prefix relocated job output is written under.
	ThumbnailPrefix    string `toml:"thumbnail_prefix"`    // Prefix of externally generated video thumbnails.
	ThumbnailExtension string `toml:"thumbnail_extension"` // Extension of video thumbnails.
}

// Transcoder represents the configuration for the transcoding job service.
type Transcoder struct {
	Enabled           bool    `toml:"enabled"`             // Whether uploads are submitted for transcoding.
	DefaultTransform  string  `toml:"default_transform"`   // Transform used when none is named.
	OutputExtension   string  `toml:"output_extension"`    // Extension of the relocated deliverable.
	OutputContentType string  `toml:"output_content_type"` // Content type identifying the deliverable within an asset.
	RequestsPerSecond float64 `toml:"requests_per_second"` // Client-side quota on job service calls; 0 disables it.
}

// Gallery represents listing and management settings.
type Gallery struct {
	ManagePassword  string `toml:"manage_password"`   // Secret required by PATCH and DELETE.
	DefaultPageSize int    `toml:"default_page_size"` // Page size used when the caller sends none.
	MaxUploadBytes  int64  `toml:"max_upload_bytes"`  // Upload size limit; 0 means unlimited.
	ListenAddress   string `toml:"listen_address"`    // Address the HTTP server binds.
}

// Telemetry controls the OpenTelemetry providers.
type Telemetry struct {
	Export                bool    `toml:"export"`                  // Send traces and metrics to Cloud Trace and Cloud Monitoring.
	TraceSampleRatio      float64 `toml:"trace_sample_ratio"`      // Fraction of new traces sampled, 0 to 1.
	MetricIntervalSeconds int     `toml:"metric_interval_seconds"` // Metric export period.
}

// Config represents the overall configuration for the application, loaded from TOML files.
// It acts as the root container for all other configuration structs.
type Config struct {
	// Application holds general application settings.
	Application struct {
		Name            string `toml:"name"`              // The name of the application.
		GoogleProjectId string `toml:"google_project_id"` // The Google Cloud project ID.
		GoogleLocation  string `toml:"location"`          // The Google Cloud location.
		ThreadPoolSize  int    `toml:"thread_pool_size"`  // Upper bound on concurrent per-item work.
		LogFile         string `toml:"log_file"`          // Optional copy of the log output.
	} `toml:"application"`
	Storage            Storage                      `toml:"storage"`
	Transcoder         Transcoder                   `toml:"transcoder"`
	Gallery            Gallery                      `toml:"gallery"`
	Telemetry          Telemetry                    `toml:"telemetry"`
	BigQueryDataSource BigQueryDataSource           `toml:"big_query_data_source"`
	TopicSubscriptions map[string]TopicSubscription `toml:"topic_subscriptions"` // Keyed by a logical name (e.g., "UploadTopic").
}

// NewConfig is a constructor function that creates a new Config populated with
// the gallery's defaults. Values decoded from TOML overwrite them.
//
// Outputs:
//   - *Config: A pointer to a new Config struct with defaults applied.
func NewConfig() *Config {
	c := &Config{
		TopicSubscriptions: make(map[string]TopicSubscription),
	}
	rules := model.DefaultPathRules()
	c.Application.Name = "media-gallery"
	c.Application.ThreadPoolSize = 8
	c.Storage.Provider = ProviderGCS
	c.Storage.ListPrefix = rules.OriginalPrefix
	c.Storage.OriginalPrefix = rules.OriginalPrefix
	c.Storage.TranscodedPrefix = rules.TranscodedPrefix
	c.Storage.ThumbnailPrefix = rules.ThumbnailPrefix
	c.Storage.ThumbnailExtension = rules.ThumbnailExtension
	c.Transcoder.Enabled = true
	c.Transcoder.DefaultTransform = model.DefaultTransformName
	c.Transcoder.OutputExtension = rules.TranscodedExtension
	c.Transcoder.OutputContentType = "video/mp4"
	c.Gallery.DefaultPageSize = 2
	c.Gallery.ListenAddress = ":8080"
	c.Telemetry.Export = true
	c.Telemetry.TraceSampleRatio = 1
	c.Telemetry.MetricIntervalSeconds = 60
	return c
}

// ApplyEnvironment copies secrets supplied through the environment over the
// values loaded from file.
func (c *Config) ApplyEnvironment() {
	if v := os.Getenv(EnvManagePassword); v != "" {
		c.Gallery.ManagePassword = v
	}
}

// PathRules returns the naming rules derived from the storage and transcoder sections.
func (c *Config) PathRules() model.PathRules {
	return model.PathRules{
		OriginalPrefix:      c.Storage.OriginalPrefix,
		TranscodedPrefix:    c.Storage.TranscodedPrefix,
		ThumbnailPrefix:     c.Storage.ThumbnailPrefix,
		ThumbnailExtension:  c.Storage.ThumbnailExtension,
		TranscodedExtension: c.Transcoder.OutputExtension,
	}
}

// TransientBucket returns the bucket job output lands in.
func (c *Config) TransientBucket() string {
	if c.Storage.TransientBucket != "" {
		return c.Storage.TransientBucket
	}
	return c.Storage.Bucket
}

// BaseURL returns the configured raw base URL, or the provider's public
// endpoint for the bucket when none is set.
func (c *Config) BaseURL() string {
	if c.Storage.BaseURL != "" {
		return c.Storage.BaseURL
	}
	if c.Storage.Provider == ProviderS3 {
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", c.Storage.Bucket, c.Storage.Region)
	}
	return "https://storage.googleapis.com/" + c.Storage.Bucket
}
