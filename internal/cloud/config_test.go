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

package cloud_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jaycherian/gcp-go-media-gallery/internal/cloud"
	"github.com/jaycherian/gcp-go-media-gallery/internal/core/model"
	test "github.com/jaycherian/gcp-go-media-gallery/internal/testutil"
	"github.com/zeebo/assert"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoadConfigOverlaysRuntimeFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env.toml", `
[application]
name = "gallery"
google_project_id = "base-project"

[storage]
bucket = "base-bucket"
cdn_base_url = "https://cdn.example.com"

[gallery]
default_page_size = 12

[topic_subscriptions.UploadTopic]
name = "uploads-sub"
`)
	writeFile(t, dir, ".env.test.toml", `
[storage]
bucket = "test-bucket"
`)
	t.Setenv(cloud.EnvConfigFilePrefix, dir)
	t.Setenv(cloud.EnvConfigRuntime, "test")

	config := cloud.NewConfig()
	assert.NoError(t, cloud.LoadConfig(config))

	assert.Equal(t, config.Application.Name, "gallery")
	assert.Equal(t, config.Application.GoogleProjectId, "base-project")
	assert.Equal(t, config.Storage.Bucket, "test-bucket")
	assert.Equal(t, config.Storage.CDNBaseURL, "https://cdn.example.com")
	assert.Equal(t, config.Gallery.DefaultPageSize, 12)
	assert.Equal(t, config.TopicSubscriptions["UploadTopic"].Name, "uploads-sub")
	// Untouched values keep their defaults.
	assert.Equal(t, config.Storage.OriginalPrefix, "original/")
	assert.Equal(t, config.Transcoder.DefaultTransform, model.DefaultTransformName)
}

func TestLoadConfigMissingFilesKeepDefaults(t *testing.T) {
	t.Setenv(cloud.EnvConfigFilePrefix, t.TempDir())
	t.Setenv(cloud.EnvConfigRuntime, "")

	config := cloud.NewConfig()
	assert.NoError(t, cloud.LoadConfig(config))
	assert.Equal(t, config.Gallery.DefaultPageSize, 2)
	assert.Equal(t, config.Storage.Provider, cloud.ProviderGCS)
}

func TestLoadConfigRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env.toml", "[storage\nbucket = ")
	t.Setenv(cloud.EnvConfigFilePrefix, dir)

	assert.Error(t, cloud.LoadConfig(cloud.NewConfig()))
}

func TestApplyEnvironment(t *testing.T) {
	config := test.NewTestConfig()
	t.Setenv(cloud.EnvManagePassword, "from-env")
	config.ApplyEnvironment()
	assert.Equal(t, config.Gallery.ManagePassword, "from-env")

	t.Setenv(cloud.EnvManagePassword, "")
	config.ApplyEnvironment()
	assert.Equal(t, config.Gallery.ManagePassword, "from-env")
}

func TestDerivedSettings(t *testing.T) {
	config := cloud.NewConfig()
	config.Storage.Bucket = "media"
	assert.Equal(t, config.TransientBucket(), "media")
	assert.Equal(t, config.BaseURL(), "https://storage.googleapis.com/media")

	config.Storage.TransientBucket = "scratch"
	assert.Equal(t, config.TransientBucket(), "scratch")

	config.Storage.Provider = cloud.ProviderS3
	config.Storage.Region = "eu-west-1"
	assert.Equal(t, config.BaseURL(), "https://media.s3.eu-west-1.amazonaws.com")

	config.Storage.BaseURL = "https://media.example.com"
	assert.Equal(t, config.BaseURL(), "https://media.example.com")

	assert.DeepEqual(t, config.PathRules(), model.DefaultPathRules())
}

func TestServiceURI(t *testing.T) {
	assert.Equal(t, cloud.ServiceURI(cloud.ProviderGCS, "media", "original/a.mov"), "gs://media/original/a.mov")
	assert.Equal(t, cloud.ServiceURI(cloud.ProviderS3, "media", "/original/a.mov"), "s3://media/original/a.mov")
}

func TestQuotaAwareJobService(t *testing.T) {
	_, transient := test.Stores()
	jobs := test.NewFakeJobService(transient)

	assert.Equal(t, cloud.NewQuotaAwareJobService(jobs, 0), cloud.JobService(jobs))

	wrapped := cloud.NewQuotaAwareJobService(jobs, 50)
	_, ok := wrapped.(*cloud.QuotaAwareJobService)
	assert.True(t, ok)

	ctx := context.Background()
	assert.NoError(t, wrapped.CreateTransform(ctx, "default", model.DefaultTransformPreset()))
	assert.NoError(t, wrapped.GetTransform(ctx, "default"))
	asset, err := wrapped.CreateAsset(ctx, "clip")
	assert.NoError(t, err)
	ref, err := wrapped.SubmitJob(ctx, "default", "gs://b/original/clip.mov", asset)
	assert.NoError(t, err)
	state, err := wrapped.GetJob(ctx, "default", ref)
	assert.NoError(t, err)
	assert.Equal(t, state, model.JobStateQueued)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.Error(t, wrapped.GetTransform(cancelled, "default"))
}
