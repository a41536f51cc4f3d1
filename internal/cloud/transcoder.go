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
// This file adapts the Transcoder API to the gallery's JobService contract.
//
// Logic Flow:
//  1. A transform is a Transcoder job template under projects/<p>/locations/<l>.
//  2. An asset is the "<jobName>/" prefix in the transient bucket; the job's
//     output URI points at it.
//  3. Jobs are created from a template ID and polled by their resource name.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"strings"

	transcoder "cloud.google.com/go/video/transcoder/apiv1"
	"cloud.google.com/go/video/transcoder/apiv1/transcoderpb"
	"github.com/jaycherian/gcp-go-media-gallery/internal/core/model"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// assetListPageSize bounds each listing while an asset is being deleted.
const assetListPageSize = 100

// TranscoderJobService implements JobService over the Google Transcoder API.
type TranscoderJobService struct {
	client *transcoder.Client
	parent string      // projects/<project>/locations/<location>
	assets ObjectStore // Store for the transient bucket job output lands in.
}

// NewTranscoderJobService binds a Transcoder client to a project, location and
// the store holding transient job output.
func NewTranscoderJobService(client *transcoder.Client, project, location string, assets ObjectStore) *TranscoderJobService {
	return &TranscoderJobService{
		client: client,
		parent: fmt.Sprintf("projects/%s/locations/%s", project, location),
		assets: assets,
	}
}

func (t *TranscoderJobService) templateName(name string) string {
	return t.parent + "/jobTemplates/" + name
}

func (t *TranscoderJobService) GetTransform(ctx context.Context, name string) error {
	_, err := t.client.GetJobTemplate(ctx, &transcoderpb.GetJobTemplateRequest{Name: t.templateName(name)})
	return grpcErr(err, "get transform "+name)
}

func (t *TranscoderJobService) CreateTransform(ctx context.Context, name string, preset model.TransformPreset) error {
	_, err := t.client.CreateJobTemplate(ctx, &transcoderpb.CreateJobTemplateRequest{
		Parent:        t.parent,
		JobTemplateId: name,
		JobTemplate:   &transcoderpb.JobTemplate{Config: jobConfig(preset)},
	})
	return grpcErr(err, "create transform "+name)
}

func (t *TranscoderJobService) CreateAsset(_ context.Context, name string) (*AssetLocation, error) {
	if name == "" || strings.ContainsAny(name, "/?#") {
		return nil, fmt.Errorf("invalid asset name %q", name)
	}
	// Prefixes need no creation.
	return t.location(name), nil
}

func (t *TranscoderJobService) SubmitJob(ctx context.Context, transform, sourceURI string, asset *AssetLocation) (string, error) {
	job, err := t.client.CreateJob(ctx, &transcoderpb.CreateJobRequest{
		Parent: t.parent,
		Job: &transcoderpb.Job{
			InputUri:  sourceURI,
			OutputUri: t.assets.URI(asset.Prefix),
			JobConfig: &transcoderpb.Job_TemplateId{TemplateId: transform},
		},
	})
	if err != nil {
		return "", grpcErr(err, "submit job "+asset.Name)
	}
	return job.GetName(), nil
}

// GetJob polls a job by reference. A bare ID is resolved under the
// configured parent.
func (t *TranscoderJobService) GetJob(ctx context.Context, _ string, jobRef string) (model.JobState, error) {
	name := jobRef
	if !strings.HasPrefix(name, "projects/") {
		name = t.parent + "/jobs/" + jobRef
	}
	job, err := t.client.GetJob(ctx, &transcoderpb.GetJobRequest{Name: name})
	if err != nil {
		return model.JobStateUnknown, grpcErr(err, "get job "+jobRef)
	}
	return jobState(job.GetState()), nil
}

func (t *TranscoderJobService) GetAsset(ctx context.Context, name string) (*AssetLocation, error) {
	loc := t.location(name)
	page, err := t.assets.List(ctx, loc.Prefix, 1, "")
	if err != nil {
		return nil, err
	}
	if len(page.Items) == 0 {
		return nil, fmt.Errorf("asset %s: %w", name, ErrNotFound)
	}
	return loc, nil
}

// DeleteAsset removes every object under the asset prefix. Individual delete
// failures are joined so one stuck object does not hide the rest.
func (t *TranscoderJobService) DeleteAsset(ctx context.Context, name string) error {
	loc := t.location(name)
	var errs []error
	cursor := ""
	for {
		page, err := t.assets.List(ctx, loc.Prefix, assetListPageSize, cursor)
		if err != nil {
			return errors.Join(append(errs, err)...)
		}
		for _, item := range page.Items {
			if err := t.assets.Delete(ctx, item.Path); err != nil && !errors.Is(err, ErrNotFound) {
				errs = append(errs, err)
			}
		}
		if page.NextCursor == "" {
			return errors.Join(errs...)
		}
		cursor = page.NextCursor
	}
}

func (t *TranscoderJobService) location(name string) *AssetLocation {
	return &AssetLocation{Name: name, Container: t.assets.Container(), Prefix: name + "/"}
}

func jobState(s transcoderpb.Job_ProcessingState) model.JobState {
	switch s {
	case transcoderpb.Job_PENDING:
		return model.JobStateQueued
	case transcoderpb.Job_RUNNING:
		return model.JobStateProcessing
	case transcoderpb.Job_SUCCEEDED:
		return model.JobStateFinished
	case transcoderpb.Job_FAILED:
		return model.JobStateError
	default:
		return model.JobStateUnknown
	}
}

// jobConfig renders a preset as a single video and audio stream muxed into
// one output file.
func jobConfig(p model.TransformPreset) *transcoderpb.JobConfig {
	return &transcoderpb.JobConfig{
		ElementaryStreams: []*transcoderpb.ElementaryStream{
			{
				Key: "video-stream0",
				ElementaryStream: &transcoderpb.ElementaryStream_VideoStream{
					VideoStream: &transcoderpb.VideoStream{
						CodecSettings: &transcoderpb.VideoStream_H264{
							H264: &transcoderpb.VideoStream_H264CodecSettings{
								WidthPixels:  p.WidthPixels,
								HeightPixels: p.HeightPixels,
								BitrateBps:   p.BitrateBps,
								FrameRate:    p.FrameRate,
								Preset:       p.EncoderPreset,
							},
						},
					},
				},
			},
			{
				Key: "audio-stream0",
				ElementaryStream: &transcoderpb.ElementaryStream_AudioStream{
					AudioStream: &transcoderpb.AudioStream{
						Codec:      p.AudioCodec,
						BitrateBps: p.AudioBitrateBps,
					},
				},
			},
		},
		MuxStreams: []*transcoderpb.MuxStream{
			{
				Key:               "sd",
				Container:         p.Container,
				ElementaryStreams: []string{"video-stream0", "audio-stream0"},
			},
		},
	}
}

func grpcErr(err error, op string) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case codes.AlreadyExists:
		return fmt.Errorf("%s: %w", op, ErrAlreadyExists)
	}
	return fmt.Errorf("%s: %w", op, err)
}
