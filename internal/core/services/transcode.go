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

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jaycherian/gcp-go-media-gallery/internal/cloud"
	"github.com/jaycherian/gcp-go-media-gallery/internal/core/model"
)

// TranscodeJobManager submits encode jobs. The job name is derived from the
// source's file name, so resubmitting the same source reuses the same name
// and output asset. It does not detect a second submission for that name;
// callers must not submit twice.
type TranscodeJobManager struct {
	Jobs             cloud.JobService
	Transforms       *TransformRegistry
	DefaultTransform string
	Activity         ActivityLog
}

// NewTranscodeJobManager wires a manager to a job service and registry.
func NewTranscodeJobManager(jobs cloud.JobService, transforms *TransformRegistry, activity ActivityLog) *TranscodeJobManager {
	if activity == nil {
		activity = NopActivityLog{}
	}
	return &TranscodeJobManager{
		Jobs:             jobs,
		Transforms:       transforms,
		DefaultTransform: transforms.DefaultName,
		Activity:         activity,
	}
}

// Submit starts a transcode of sourceURI under transform (the default when
// empty). Failures are returned, never panicked; callers treat transcoding as
// best-effort.
//
// Inputs:
//   - ctx: The context for the remote calls.
//   - sourceURI: Service URI of the source object.
//   - transform: Transform name, or "" for the default.
//
// Outputs:
//   - *model.JobHandle: Name, transform and service reference of the job.
//   - error: Why no job was submitted.
func (m *TranscodeJobManager) Submit(ctx context.Context, sourceURI, transform string) (*model.JobHandle, error) {
	if m == nil || m.Jobs == nil {
		return nil, ErrTranscodingDisabled
	}
	if transform == "" {
		transform = m.DefaultTransform
	}
	handle, err := m.submit(ctx, sourceURI, transform, false)
	if err != nil {
		recordActivity(ctx, m.Activity, model.ActionTranscode, sourceURI, model.OutcomeFailed, err.Error())
		return nil, err
	}
	recordActivity(ctx, m.Activity, model.ActionTranscode, sourceURI, model.OutcomeCompleted, handle.ID)
	return handle, nil
}

func (m *TranscodeJobManager) submit(ctx context.Context, sourceURI, transform string, retried bool) (*model.JobHandle, error) {
	jobName := model.JobName(sourceURI)
	if jobName == "" {
		return nil, fmt.Errorf("cannot derive a job name from %q", sourceURI)
	}

	status, err := m.Transforms.Ensure(ctx, transform)
	switch status {
	case TransformExists:
	case TransformCreated:
		if !retried {
			slog.DebugContext(ctx, "transform created; resubmitting", "transform", transform, "job", jobName)
			return m.submit(ctx, sourceURI, transform, true)
		}
	default:
		if err == nil {
			err = ErrTransformCreateFailed
		}
		return nil, err
	}

	asset, err := m.Jobs.CreateAsset(ctx, jobName)
	if err != nil && !errors.Is(err, cloud.ErrAlreadyExists) {
		return nil, fmt.Errorf("create asset %s: %w", jobName, err)
	}
	if asset == nil {
		asset = &cloud.AssetLocation{Name: jobName, Prefix: jobName + "/"}
	}

	ref, err := m.Jobs.SubmitJob(ctx, transform, sourceURI, asset)
	if err != nil {
		return nil, fmt.Errorf("submit job %s: %w", jobName, err)
	}
	slog.InfoContext(ctx, "submitted transcode job", "job", jobName, "transform", transform, "ref", ref)
	return &model.JobHandle{Name: jobName, Transform: transform, ID: ref}, nil
}

// JobStatusPoller answers a single point-in-time completion check. It never
// waits; the next listing polls again.
type JobStatusPoller struct {
	Jobs cloud.JobService
}

// IsComplete reports whether the job reached its terminal success state. Any
// query error is logged and reported as not complete.
func (p *JobStatusPoller) IsComplete(ctx context.Context, transform, jobRef string) bool {
	if p == nil || p.Jobs == nil {
		return false
	}
	state, err := p.Jobs.GetJob(ctx, transform, jobRef)
	if err != nil {
		slog.WarnContext(ctx, "job status unavailable", "job", jobRef, "transform", transform, "error", err)
		return false
	}
	if state == model.JobStateError {
		slog.WarnContext(ctx, "transcode job failed", "job", jobRef, "transform", transform)
	}
	return state == model.JobStateFinished
}
