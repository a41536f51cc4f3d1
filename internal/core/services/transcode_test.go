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

package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jaycherian/gcp-go-media-gallery/internal/core/model"
	"github.com/jaycherian/gcp-go-media-gallery/internal/core/services"
	test "github.com/jaycherian/gcp-go-media-gallery/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const clipURI = "gs://" + test.TestBucket + "/original/1700000000000-clip.mov"

func newManager() (*services.TranscodeJobManager, *test.FakeJobService, *test.RecordingActivityLog) {
	_, transient := test.Stores()
	jobs := test.NewFakeJobService(transient)
	activity := &test.RecordingActivityLog{}
	return services.NewTranscodeJobManager(jobs, services.NewTransformRegistry(jobs, ""), activity), jobs, activity
}

func TestSubmitUnderProvisionedTransform(t *testing.T) {
	manager, jobs, activity := newManager()
	jobs.AddTransform("default")

	handle, err := manager.Submit(context.Background(), clipURI, "")
	require.NoError(t, err)
	assert.Equal(t, "1700000000000-clip", handle.Name)
	assert.Equal(t, "default", handle.Transform)
	assert.Equal(t, "projects/test/locations/local/jobs/1", handle.ID)

	subs := jobs.Submissions()
	require.Len(t, subs, 1)
	assert.Equal(t, clipURI, subs[0].SourceURI)
	assert.Equal(t, "1700000000000-clip", subs[0].Asset)

	events := activity.Events(model.ActionTranscode)
	require.Len(t, events, 1)
	assert.Equal(t, model.OutcomeCompleted, events[0].Outcome)
}

func TestSubmitCreatesDefaultTransformThenRetries(t *testing.T) {
	manager, jobs, _ := newManager()

	handle, err := manager.Submit(context.Background(), clipURI, "")
	require.NoError(t, err)
	assert.Equal(t, "default", handle.Transform)
	assert.Equal(t, int32(1), jobs.TransformCreates.Load())
	assert.Len(t, jobs.Submissions(), 1)
}

func TestSubmitUnknownTransform(t *testing.T) {
	manager, jobs, activity := newManager()

	_, err := manager.Submit(context.Background(), clipURI, "4k")
	assert.ErrorIs(t, err, services.ErrTransformUnavailable)
	assert.Empty(t, jobs.Submissions())

	events := activity.Events(model.ActionTranscode)
	require.Len(t, events, 1)
	assert.Equal(t, model.OutcomeFailed, events[0].Outcome)
}

func TestSubmitFailureIsReturned(t *testing.T) {
	manager, jobs, _ := newManager()
	jobs.AddTransform("default")
	jobs.SubmitErr = []error{errors.New("quota exceeded")}

	_, err := manager.Submit(context.Background(), clipURI, "")
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestSubmitWithoutJobService(t *testing.T) {
	var manager *services.TranscodeJobManager
	_, err := manager.Submit(context.Background(), clipURI, "")
	assert.ErrorIs(t, err, services.ErrTranscodingDisabled)
}

func TestPollerReportsOnlyFinishedAsComplete(t *testing.T) {
	manager, jobs, _ := newManager()
	jobs.AddTransform("default")
	ctx := context.Background()
	handle, err := manager.Submit(ctx, clipURI, "")
	require.NoError(t, err)

	poller := &services.JobStatusPoller{Jobs: jobs}
	assert.False(t, poller.IsComplete(ctx, "default", handle.ID))

	jobs.SetJobState(handle.ID, model.JobStateProcessing)
	assert.False(t, poller.IsComplete(ctx, "default", handle.ID))

	jobs.SetJobState(handle.ID, model.JobStateError)
	assert.False(t, poller.IsComplete(ctx, "default", handle.ID))

	jobs.SetJobState(handle.ID, model.JobStateFinished)
	assert.True(t, poller.IsComplete(ctx, "default", handle.ID))
}

func TestPollerSwallowsErrors(t *testing.T) {
	_, transient := test.Stores()
	jobs := test.NewFakeJobService(transient)
	jobs.GetJobErr = errors.New("unavailable")

	poller := &services.JobStatusPoller{Jobs: jobs}
	assert.False(t, poller.IsComplete(context.Background(), "default", "jobs/1"))
	assert.False(t, poller.IsComplete(context.Background(), "default", "jobs/unknown"))

	var disabled *services.JobStatusPoller
	assert.False(t, disabled.IsComplete(context.Background(), "default", "jobs/1"))
}
