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
// This file implements a decorator around a JobService that enforces a
// client-side request quota. The Transcoder API limits how many requests a
// project may make; the wrapper waits for a token before each call instead of
// letting the service reject it.
//
// Structs:
//   - QuotaAwareJobService: Wraps a JobService with a token-bucket limiter.
//
// Functions:
//   - NewQuotaAwareJobService: Constructor for the wrapper.
package cloud

import (
	"context"

	"github.com/jaycherian/gcp-go-media-gallery/internal/core/model"
	"golang.org/x/time/rate"
)

// QuotaAwareJobService is a decorator that rate limits every call made to the
// wrapped JobService.
type QuotaAwareJobService struct {
	Wrapped   JobService
	RateLimit *rate.Limiter
}

// NewQuotaAwareJobService wraps a job service with a limiter admitting
// requestsPerSecond calls per second, with bursts of the same size.
// A non-positive rate returns the wrapped service unchanged.
//
// Inputs:
//   - wrapped: The JobService to decorate.
//   - requestsPerSecond: The sustained request rate.
//
// Outputs:
//   - JobService: The decorated (or original) service.
func NewQuotaAwareJobService(wrapped JobService, requestsPerSecond float64) JobService {
	if requestsPerSecond <= 0 {
		return wrapped
	}
	burst := int(requestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	return &QuotaAwareJobService{
		Wrapped:   wrapped,
		RateLimit: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

func (q *QuotaAwareJobService) GetTransform(ctx context.Context, name string) error {
	if err := q.RateLimit.Wait(ctx); err != nil {
		return err
	}
	return q.Wrapped.GetTransform(ctx, name)
}

func (q *QuotaAwareJobService) CreateTransform(ctx context.Context, name string, preset model.TransformPreset) error {
	if err := q.RateLimit.Wait(ctx); err != nil {
		return err
	}
	return q.Wrapped.CreateTransform(ctx, name, preset)
}

func (q *QuotaAwareJobService) CreateAsset(ctx context.Context, name string) (*AssetLocation, error) {
	if err := q.RateLimit.Wait(ctx); err != nil {
		return nil, err
	}
	return q.Wrapped.CreateAsset(ctx, name)
}

func (q *QuotaAwareJobService) SubmitJob(ctx context.Context, transform, sourceURI string, asset *AssetLocation) (string, error) {
	if err := q.RateLimit.Wait(ctx); err != nil {
		return "", err
	}
	return q.Wrapped.SubmitJob(ctx, transform, sourceURI, asset)
}

func (q *QuotaAwareJobService) GetJob(ctx context.Context, transform, jobRef string) (model.JobState, error) {
	if err := q.RateLimit.Wait(ctx); err != nil {
		return model.JobStateUnknown, err
	}
	return q.Wrapped.GetJob(ctx, transform, jobRef)
}

func (q *QuotaAwareJobService) GetAsset(ctx context.Context, name string) (*AssetLocation, error) {
	if err := q.RateLimit.Wait(ctx); err != nil {
		return nil, err
	}
	return q.Wrapped.GetAsset(ctx, name)
}

func (q *QuotaAwareJobService) DeleteAsset(ctx context.Context, name string) error {
	if err := q.RateLimit.Wait(ctx); err != nil {
		return err
	}
	return q.Wrapped.DeleteAsset(ctx, name)
}
