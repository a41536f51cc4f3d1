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

package test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jaycherian/gcp-go-media-gallery/internal/cloud"
	"github.com/jaycherian/gcp-go-media-gallery/internal/core/model"
)

// Submission records one SubmitJob call.
type Submission struct {
	Transform string
	SourceURI string
	Asset     string
	JobRef    string
}

// FakeJobService is an in-memory cloud.JobService. Assets are prefixes in
// Assets, so relocation can be exercised end to end against MemoryStores.
type FakeJobService struct {
	Assets *MemoryStore

	mu          sync.Mutex
	transforms  map[string]bool
	jobs        map[string]model.JobState
	submissions []Submission
	nextID      int

	GetTransformErr    error         // Returned by GetTransform instead of the real answer.
	CreateTransformErr error         // Returned by CreateTransform.
	CreateDelay        time.Duration // Widens the create window for concurrency tests.
	SubmitErr          []error       // Consumed one per SubmitJob call; nil entries succeed.
	GetJobErr          error
	DeleteAssetErr     error
	AssetErr           error // Returned by CreateAsset.

	TransformCreates atomic.Int32
	AssetDeletes     atomic.Int32
	JobPolls         atomic.Int32
}

// NewFakeJobService returns a service whose assets live in assets.
func NewFakeJobService(assets *MemoryStore) *FakeJobService {
	return &FakeJobService{
		Assets:     assets,
		transforms: make(map[string]bool),
		jobs:       make(map[string]model.JobState),
	}
}

// AddTransform marks a transform as provisioned.
func (f *FakeJobService) AddTransform(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transforms[name] = true
}

// HasTransform reports whether a transform exists.
func (f *FakeJobService) HasTransform(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.transforms[name]
}

// SetJobState overrides the state reported for jobRef.
func (f *FakeJobService) SetJobState(jobRef string, state model.JobState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[jobRef] = state
}

// Submissions returns every recorded submission.
func (f *FakeJobService) Submissions() []Submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Submission(nil), f.submissions...)
}

// CompleteJob marks jobRef finished and writes a deliverable into the asset.
func (f *FakeJobService) CompleteJob(jobRef, asset, contentType string) {
	f.SetJobState(jobRef, model.JobStateFinished)
	f.Assets.Seed(asset+"/sd.mp4", contentType, nil)
}

func (f *FakeJobService) GetTransform(_ context.Context, name string) error {
	if f.GetTransformErr != nil {
		return f.GetTransformErr
	}
	if f.HasTransform(name) {
		return nil
	}
	return fmt.Errorf("transform %s: %w", name, cloud.ErrNotFound)
}

func (f *FakeJobService) CreateTransform(_ context.Context, name string, _ model.TransformPreset) error {
	if f.CreateTransformErr != nil {
		return f.CreateTransformErr
	}
	if f.CreateDelay > 0 {
		time.Sleep(f.CreateDelay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.transforms[name] {
		return fmt.Errorf("transform %s: %w", name, cloud.ErrAlreadyExists)
	}
	f.transforms[name] = true
	f.TransformCreates.Add(1)
	return nil
}

func (f *FakeJobService) CreateAsset(_ context.Context, name string) (*cloud.AssetLocation, error) {
	if f.AssetErr != nil {
		return nil, f.AssetErr
	}
	return &cloud.AssetLocation{Name: name, Container: f.Assets.Container(), Prefix: name + "/"}, nil
}

func (f *FakeJobService) SubmitJob(_ context.Context, transform, sourceURI string, asset *cloud.AssetLocation) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.SubmitErr) > 0 {
		err := f.SubmitErr[0]
		f.SubmitErr = f.SubmitErr[1:]
		if err != nil {
			return "", err
		}
	}
	if !f.transforms[transform] {
		return "", fmt.Errorf("transform %s: %w", transform, cloud.ErrNotFound)
	}
	f.nextID++
	ref := fmt.Sprintf("projects/test/locations/local/jobs/%d", f.nextID)
	f.jobs[ref] = model.JobStateQueued
	f.submissions = append(f.submissions, Submission{
		Transform: transform,
		SourceURI: sourceURI,
		Asset:     asset.Name,
		JobRef:    ref,
	})
	return ref, nil
}

func (f *FakeJobService) GetJob(_ context.Context, _ string, jobRef string) (model.JobState, error) {
	f.JobPolls.Add(1)
	if f.GetJobErr != nil {
		return model.JobStateUnknown, f.GetJobErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	state, ok := f.jobs[jobRef]
	if !ok {
		return model.JobStateUnknown, fmt.Errorf("job %s: %w", jobRef, cloud.ErrNotFound)
	}
	return state, nil
}

func (f *FakeJobService) GetAsset(ctx context.Context, name string) (*cloud.AssetLocation, error) {
	page, err := f.Assets.List(ctx, name+"/", 1, "")
	if err != nil {
		return nil, err
	}
	if len(page.Items) == 0 {
		return nil, fmt.Errorf("asset %s: %w", name, cloud.ErrNotFound)
	}
	return &cloud.AssetLocation{Name: name, Container: f.Assets.Container(), Prefix: name + "/"}, nil
}

func (f *FakeJobService) DeleteAsset(ctx context.Context, name string) error {
	if f.DeleteAssetErr != nil {
		return f.DeleteAssetErr
	}
	for _, p := range f.Assets.Paths() {
		if strings.HasPrefix(p, name+"/") {
			if err := f.Assets.Delete(ctx, p); err != nil {
				return err
			}
		}
	}
	f.AssetDeletes.Add(1)
	return nil
}
