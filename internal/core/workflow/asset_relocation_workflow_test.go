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

package workflow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jaycherian/gcp-go-media-gallery/internal/cloud"
	"github.com/jaycherian/gcp-go-media-gallery/internal/core/model"
	"github.com/jaycherian/gcp-go-media-gallery/internal/core/services"
	"github.com/jaycherian/gcp-go-media-gallery/internal/core/workflow"
	test "github.com/jaycherian/gcp-go-media-gallery/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	source      = "original/1700000000000-clip.mov"
	jobName     = "1700000000000-clip"
	destination = "transcoded/1700000000000-clip.mp4"
	destURL     = test.TestBaseURL + "/" + destination
)

type relocationFixture struct {
	media     *test.MemoryStore
	transient *test.MemoryStore
	jobs      *test.FakeJobService
	activity  *test.RecordingActivityLog
	workflow  *workflow.AssetRelocationWorkflow
}

func newRelocationFixture() *relocationFixture {
	config := test.NewTestConfig()
	media, transient := test.Stores()
	jobs := test.NewFakeJobService(transient)
	activity := &test.RecordingActivityLog{}
	urls := &services.URLResolver{RawBaseURL: test.TestBaseURL, Rules: config.PathRules()}

	media.Seed(source, "video/quicktime", map[string]string{model.MetaTranscodeJobName: jobName})
	transient.Seed(jobName+"/manifest.m3u8", "application/x-mpegURL", nil)
	transient.Seed(jobName+"/sd.mp4", "video/mp4", nil)

	return &relocationFixture{
		media:     media,
		transient: transient,
		jobs:      jobs,
		activity:  activity,
		workflow:  workflow.NewAssetRelocationWorkflow(config, media, transient, jobs, urls, activity),
	}
}

func TestRelocate(t *testing.T) {
	f := newRelocationFixture()

	url, err := f.workflow.Relocate(context.Background(), jobName, source)
	require.NoError(t, err)
	assert.Equal(t, destURL, url)
	assert.True(t, f.media.Has(destination))
	assert.Equal(t, destURL, f.media.Metadata(source)[model.MetaTranscodedURL])
	assert.Empty(t, f.transient.Paths())
	assert.Equal(t, int32(1), f.jobs.AssetDeletes.Load())

	events := f.activity.Events(model.ActionRelocate)
	require.Len(t, events, 1)
	assert.Equal(t, model.OutcomeCompleted, events[0].Outcome)
}

func TestRelocateTwiceIsIdempotent(t *testing.T) {
	f := newRelocationFixture()
	ctx := context.Background()

	_, err := f.workflow.Relocate(ctx, jobName, source)
	require.NoError(t, err)

	url, err := f.workflow.Relocate(ctx, jobName, source)
	require.NoError(t, err)
	assert.Equal(t, destURL, url)
	assert.Equal(t, 1, f.media.Copies)
	assert.Equal(t, int32(1), f.jobs.AssetDeletes.Load())
	assert.Len(t, f.activity.Events(model.ActionRelocate), 1)
}

func TestRelocateWithoutOutput(t *testing.T) {
	f := newRelocationFixture()
	for _, p := range f.transient.Paths() {
		require.NoError(t, f.transient.Delete(context.Background(), p))
	}

	_, err := f.workflow.Relocate(context.Background(), jobName, source)
	assert.ErrorIs(t, err, services.ErrNoTranscodedOutput)
	assert.Empty(t, f.media.Metadata(source)[model.MetaTranscodedURL])

	events := f.activity.Events(model.ActionRelocate)
	require.Len(t, events, 1)
	assert.Equal(t, model.OutcomeFailed, events[0].Outcome)
}

func TestRelocateAssetWithoutDeliverable(t *testing.T) {
	f := newRelocationFixture()
	require.NoError(t, f.transient.Delete(context.Background(), jobName+"/sd.mp4"))

	_, err := f.workflow.Relocate(context.Background(), jobName, source)
	assert.ErrorIs(t, err, services.ErrNoTranscodedOutput)
	assert.True(t, f.transient.Has(jobName+"/manifest.m3u8"), "the asset is kept for inspection")
}

func TestRelocateFallsBackToExtension(t *testing.T) {
	f := newRelocationFixture()
	require.NoError(t, f.transient.Delete(context.Background(), jobName+"/sd.mp4"))
	f.transient.Seed(jobName+"/hd.mp4", "", nil)

	_, err := f.workflow.Relocate(context.Background(), jobName, source)
	require.NoError(t, err)
	assert.True(t, f.media.Has(destination))
}

func TestRelocateCopyNotSuccessful(t *testing.T) {
	for _, status := range []cloud.CopyStatus{cloud.CopyPending, cloud.CopyFailed, cloud.CopyAborted} {
		t.Run(string(status), func(t *testing.T) {
			f := newRelocationFixture()
			f.media.CopyResult[destination] = status

			_, err := f.workflow.Relocate(context.Background(), jobName, source)
			assert.ErrorIs(t, err, services.ErrCopyFailed)
			assert.Empty(t, f.media.Metadata(source)[model.MetaTranscodedURL])
			assert.True(t, f.transient.Has(jobName+"/sd.mp4"))
			assert.Equal(t, int32(0), f.jobs.AssetDeletes.Load())
		})
	}
}

func TestRelocateCopyError(t *testing.T) {
	f := newRelocationFixture()
	f.media.CopyErr[destination] = errors.New("forbidden")

	_, err := f.workflow.Relocate(context.Background(), jobName, source)
	assert.ErrorIs(t, err, services.ErrCopyFailed)
}

func TestRelocateStampFailureKeepsAsset(t *testing.T) {
	f := newRelocationFixture()
	f.media.UpdateErr[source] = errors.New("precondition failed")

	_, err := f.workflow.Relocate(context.Background(), jobName, source)
	assert.Error(t, err)
	assert.True(t, f.transient.Has(jobName+"/sd.mp4"))

	// The next attempt copies again and completes.
	delete(f.media.UpdateErr, source)
	url, err := f.workflow.Relocate(context.Background(), jobName, source)
	require.NoError(t, err)
	assert.Equal(t, destURL, url)
	assert.Empty(t, f.transient.Paths())
}

func TestRelocateCleanupFailureIsNotAnError(t *testing.T) {
	f := newRelocationFixture()
	f.jobs.DeleteAssetErr = errors.New("unavailable")

	url, err := f.workflow.Relocate(context.Background(), jobName, source)
	require.NoError(t, err)
	assert.Equal(t, destURL, url)
	assert.True(t, f.transient.Has(jobName+"/sd.mp4"))
}

func TestRelocateAssetLookupError(t *testing.T) {
	f := newRelocationFixture()
	f.transient.ListErr = errors.New("unavailable")

	_, err := f.workflow.Relocate(context.Background(), jobName, source)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, services.ErrNoTranscodedOutput)
	assert.False(t, f.media.Has(destination))
}

func TestRelocateRequiresJobName(t *testing.T) {
	f := newRelocationFixture()

	_, err := f.workflow.Relocate(context.Background(), "", source)
	assert.Error(t, err)
}
