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

package cloud

import (
	"context"

	"github.com/jaycherian/gcp-go-media-gallery/internal/core/model"
)

// AssetLocation addresses a transient job output asset: every object under
// Prefix in Container belongs to it.
type AssetLocation struct {
	Name      string
	Container string
	Prefix    string
}

// JobService is the remote transcoding service. Transforms are named encoding
// profiles; assets are the containers a job writes its output into.
type JobService interface {
	// GetTransform returns nil when the transform exists and ErrNotFound when
	// it is confirmed absent. Any other error means existence is unknown.
	GetTransform(ctx context.Context, name string) error
	// CreateTransform provisions a transform. A concurrent create returns ErrAlreadyExists.
	CreateTransform(ctx context.Context, name string, preset model.TransformPreset) error
	// CreateAsset prepares the output asset named name.
	CreateAsset(ctx context.Context, name string) (*AssetLocation, error)
	// SubmitJob starts encoding sourceURI into asset and returns the job reference.
	SubmitJob(ctx context.Context, transform, sourceURI string, asset *AssetLocation) (string, error)
	// GetJob returns the job's current state.
	GetJob(ctx context.Context, transform, jobRef string) (model.JobState, error)
	// GetAsset resolves an asset that holds output, or returns ErrNotFound.
	GetAsset(ctx context.Context, name string) (*AssetLocation, error)
	// DeleteAsset removes the asset and everything in it.
	DeleteAsset(ctx context.Context, name string) error
}
