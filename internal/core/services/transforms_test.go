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
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jaycherian/gcp-go-media-gallery/internal/cloud"
	"github.com/jaycherian/gcp-go-media-gallery/internal/core/services"
	test "github.com/jaycherian/gcp-go-media-gallery/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry() (*services.TransformRegistry, *test.FakeJobService) {
	_, transient := test.Stores()
	jobs := test.NewFakeJobService(transient)
	return services.NewTransformRegistry(jobs, ""), jobs
}

func TestEnsureExistingTransform(t *testing.T) {
	registry, jobs := newRegistry()
	jobs.AddTransform("default")

	status, err := registry.Ensure(context.Background(), "default")
	require.NoError(t, err)
	assert.Equal(t, services.TransformExists, status)
	assert.Equal(t, int32(0), jobs.TransformCreates.Load())
}

func TestEnsureCreatesDefaultTransform(t *testing.T) {
	registry, jobs := newRegistry()
	ctx := context.Background()

	status, err := registry.Ensure(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, services.TransformCreated, status)
	assert.True(t, jobs.HasTransform("default"))

	status, err = registry.Ensure(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, services.TransformExists, status)
	assert.Equal(t, int32(1), jobs.TransformCreates.Load())
}

func TestEnsureNeverCreatesOtherTransforms(t *testing.T) {
	registry, jobs := newRegistry()

	status, err := registry.Ensure(context.Background(), "hd-only")
	assert.Equal(t, services.TransformFailed, status)
	assert.ErrorIs(t, err, services.ErrTransformUnavailable)
	assert.False(t, jobs.HasTransform("hd-only"))
}

func TestEnsureUnknownExistenceDoesNotCreate(t *testing.T) {
	registry, jobs := newRegistry()
	jobs.GetTransformErr = errors.New("connection reset")

	status, err := registry.Ensure(context.Background(), "default")
	assert.Equal(t, services.TransformFailed, status)
	assert.ErrorIs(t, err, services.ErrTransformUnavailable)
	assert.Equal(t, int32(0), jobs.TransformCreates.Load())
}

func TestEnsureCreateFailure(t *testing.T) {
	registry, jobs := newRegistry()
	jobs.CreateTransformErr = errors.New("permission denied")

	status, err := registry.Ensure(context.Background(), "default")
	assert.Equal(t, services.TransformFailed, status)
	assert.ErrorIs(t, err, services.ErrTransformCreateFailed)
}

func TestEnsureCreateRaceLostToAnotherProcess(t *testing.T) {
	registry, jobs := newRegistry()
	jobs.CreateTransformErr = fmt.Errorf("template default: %w", cloud.ErrAlreadyExists)

	status, err := registry.Ensure(context.Background(), "default")
	require.NoError(t, err)
	assert.Equal(t, services.TransformExists, status)
}

func TestEnsureConcurrentCallersCreateOnce(t *testing.T) {
	registry, jobs := newRegistry()
	jobs.CreateDelay = 20 * time.Millisecond

	const callers = 8
	statuses := make([]services.TransformStatus, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, err := registry.Ensure(context.Background(), "default")
			assert.NoError(t, err)
			statuses[i] = status
		}()
	}
	wg.Wait()

	created := 0
	for _, s := range statuses {
		if s == services.TransformCreated {
			created++
		} else {
			assert.Equal(t, services.TransformExists, s)
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, int32(1), jobs.TransformCreates.Load())
}
