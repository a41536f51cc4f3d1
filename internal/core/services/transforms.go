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

// Package services contains the gallery's core orchestration logic: transform
// provisioning, transcode submission and polling, listing, bulk operations,
// uploads and the activity ledger.
// This file, `transforms.go`, defines the TransformRegistry.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jaycherian/gcp-go-media-gallery/internal/cloud"
	"github.com/jaycherian/gcp-go-media-gallery/internal/core/model"
)

// TransformStatus is the result of TransformRegistry.Ensure.
type TransformStatus int

const (
	TransformFailed TransformStatus = iota
	TransformExists
	TransformCreated
)

func (s TransformStatus) String() string {
	switch s {
	case TransformExists:
		return "exists"
	case TransformCreated:
		return "created"
	default:
		return "failed"
	}
}

// TransformRegistry makes sure a transform exists before jobs are submitted
// under it. Only the default transform is ever created here; any other name
// must already be provisioned.
type TransformRegistry struct {
	Jobs        cloud.JobService
	DefaultName string
	Preset      model.TransformPreset

	// createMu serializes creation so that two concurrent callers cannot both
	// report a creation; the second re-checks and sees the transform.
	createMu sync.Mutex
}

// NewTransformRegistry builds a registry whose default transform uses the
// default preset.
func NewTransformRegistry(jobs cloud.JobService, defaultName string) *TransformRegistry {
	if defaultName == "" {
		defaultName = model.DefaultTransformName
	}
	return &TransformRegistry{Jobs: jobs, DefaultName: defaultName, Preset: model.DefaultTransformPreset()}
}

// Ensure reports whether name exists, creating it when it is the default
// transform and confirmed absent.
//
// Inputs:
//   - ctx: The context for the remote calls.
//   - name: The transform name.
//
// Outputs:
//   - TransformStatus: exists, created or failed.
//   - error: Why the status is failed; nil otherwise.
func (r *TransformRegistry) Ensure(ctx context.Context, name string) (TransformStatus, error) {
	absent, err := r.absent(ctx, name)
	if err != nil {
		return TransformFailed, err
	}
	if !absent {
		return TransformExists, nil
	}
	if name != r.DefaultName {
		return TransformFailed, fmt.Errorf("%w: %s is not provisioned", ErrTransformUnavailable, name)
	}

	r.createMu.Lock()
	defer r.createMu.Unlock()

	// Another caller may have created it while we waited for the lock.
	absent, err = r.absent(ctx, name)
	if err != nil {
		return TransformFailed, err
	}
	if !absent {
		return TransformExists, nil
	}

	err = r.Jobs.CreateTransform(ctx, name, r.Preset)
	switch {
	case err == nil:
		slog.InfoContext(ctx, "created transform", "transform", name)
		return TransformCreated, nil
	case errors.Is(err, cloud.ErrAlreadyExists):
		// Created by another process between the check and the create.
		return TransformExists, nil
	default:
		return TransformFailed, fmt.Errorf("%w: %s: %w", ErrTransformCreateFailed, name, err)
	}
}

// absent is true only when the service confirms the transform does not
// exist. Any other error leaves existence unknown and is returned.
func (r *TransformRegistry) absent(ctx context.Context, name string) (bool, error) {
	err := r.Jobs.GetTransform(ctx, name)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, cloud.ErrNotFound):
		return true, nil
	default:
		return false, fmt.Errorf("%w: existence of %s unknown: %w", ErrTransformUnavailable, name, err)
	}
}
