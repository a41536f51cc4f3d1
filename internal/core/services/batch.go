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

// Package services contains the gallery's core orchestration logic.
// This file, `batch.go`, defines the BatchOperationCoordinator, which applies
// one operation to many independently stored items.
//
// Logic Flow:
//  1. An empty request is rejected before anything is touched.
//  2. The password is checked once. A mismatch reports every item as failed
//     and dispatches nothing.
//  3. Every item starts out failed. Items are fed to a fixed pool of workers
//     through a jobs channel; each worker writes only its own item's result.
//  4. An item counts as completed only when its operation returns nil.
//     Errors, panics and cancellation all leave it failed. Items the
//     operation does not apply to are skipped.
//  5. After the pool drains, fresh completed/failed/skipped lists are built
//     in input order.
package services

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jaycherian/gcp-go-media-gallery/internal/cloud"
	"github.com/jaycherian/gcp-go-media-gallery/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-gallery/internal/core/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// BatchStatus is the overall result of a batch run.
type BatchStatus int

const (
	BatchOK BatchStatus = iota
	BatchPartialFailure
	BatchUnauthorized
	BatchInvalid
)

// HTTPStatus maps the batch status to the response code of the HTTP surface.
func (s BatchStatus) HTTPStatus() int {
	switch s {
	case BatchOK:
		return http.StatusOK
	case BatchUnauthorized:
		return http.StatusUnauthorized
	case BatchInvalid:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Authorizer gates a batch before any item is touched.
type Authorizer interface {
	Authorize(password string) bool
}

// PasswordAuthorizer accepts exactly one shared secret. An empty secret
// accepts nothing.
type PasswordAuthorizer struct {
	Secret string
}

func (a PasswordAuthorizer) Authorize(password string) bool {
	if a.Secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a.Secret), []byte(password)) == 1
}

// ItemOperation is applied to each item of a batch.
type ItemOperation interface {
	// Action names the operation in logs, metrics and the ledger.
	Action() string
	// Applies is false for items the operation has nothing to do for.
	Applies(item model.BatchItem) bool
	// Apply performs the operation; nil means the item completed.
	Apply(ctx context.Context, item model.BatchItem) error
}

type itemResult int

const (
	resultFailed itemResult = iota
	resultCompleted
	resultSkipped
)

// BatchOperationCoordinator runs item operations concurrently and accounts
// for every item.
type BatchOperationCoordinator struct {
	Auth     Authorizer
	Workers  int
	Activity ActivityLog

	completedCounter metric.Int64Counter
	failedCounter    metric.Int64Counter
}

// NewBatchOperationCoordinator builds a coordinator with its metrics.
//
// Inputs:
//   - auth: The authorization check.
//   - workers: Size of the worker pool; values < 1 mean one worker.
//   - activity: Ledger for item outcomes; nil discards them.
func NewBatchOperationCoordinator(auth Authorizer, workers int, activity ActivityLog) *BatchOperationCoordinator {
	if activity == nil {
		activity = NopActivityLog{}
	}
	meter := otel.Meter(cor.MeterName)
	completed, err := meter.Int64Counter("batch.items.completed")
	if err != nil {
		slog.Warn("failed to create counter", "name", "batch.items.completed", "error", err)
	}
	failed, err := meter.Int64Counter("batch.items.failed")
	if err != nil {
		slog.Warn("failed to create counter", "name", "batch.items.failed", "error", err)
	}
	return &BatchOperationCoordinator{
		Auth:             auth,
		Workers:          workers,
		Activity:         activity,
		completedCounter: completed,
		failedCounter:    failed,
	}
}

// Run applies op to items.
//
// Inputs:
//   - ctx: The request context. Cancelling it fails only items still in flight.
//   - items: The items to operate on.
//   - password: Checked once against the Authorizer.
//   - op: The per-item operation.
//
// Outputs:
//   - BatchStatus: OK, partial failure, unauthorized or invalid.
//   - *model.BatchOutcome: Every item in exactly one of completed, failed, skipped.
func (c *BatchOperationCoordinator) Run(ctx context.Context, items []model.BatchItem, password string, op ItemOperation) (BatchStatus, *model.BatchOutcome) {
	outcome := &model.BatchOutcome{Completed: []string{}, Failed: []string{}}
	if len(items) == 0 {
		return BatchInvalid, outcome
	}
	if c.Auth == nil || !c.Auth.Authorize(password) {
		for _, item := range items {
			outcome.Failed = append(outcome.Failed, item.Name)
		}
		slog.WarnContext(ctx, "batch rejected: unauthorized", "action", op.Action(), "items", len(items))
		return BatchUnauthorized, outcome
	}

	results := make([]itemResult, len(items))
	errs := make([]error, len(items))
	jobs := make(chan int, len(items))
	for i, item := range items {
		switch {
		case strings.TrimSpace(item.Name) == "":
			errs[i] = fmt.Errorf("item %d has no name", i)
		case !op.Applies(item):
			results[i] = resultSkipped
		default:
			jobs <- i
		}
	}
	close(jobs)

	workers := max(1, min(c.Workers, len(items)))
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i], errs[i] = apply(ctx, op, items[i])
			}
		}()
	}
	wg.Wait()

	runID := uuid.NewString()
	events := make([]model.ActivityEvent, 0, len(items))
	for i, item := range items {
		ev := model.ActivityEvent{RunID: runID, Action: op.Action(), Item: item.Name}
		switch results[i] {
		case resultCompleted:
			outcome.Completed = append(outcome.Completed, item.Name)
			ev.Outcome = model.OutcomeCompleted
		case resultSkipped:
			outcome.Skipped = append(outcome.Skipped, item.Name)
			ev.Outcome = model.OutcomeSkipped
		default:
			outcome.Failed = append(outcome.Failed, item.Name)
			ev.Outcome = model.OutcomeFailed
			if errs[i] != nil {
				ev.Detail = errs[i].Error()
				slog.WarnContext(ctx, "batch item failed", "action", op.Action(), "item", item.Name, "error", errs[i])
			}
		}
		events = append(events, ev)
	}
	c.Activity.Log(ctx, events...)
	c.count(ctx, op.Action(), outcome)

	if len(outcome.Failed) > 0 {
		return BatchPartialFailure, outcome
	}
	return BatchOK, outcome
}

// apply runs op for one item. A panic fails the item instead of the batch.
func apply(ctx context.Context, op ItemOperation, item model.BatchItem) (result itemResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = resultFailed, fmt.Errorf("operation panicked: %v", r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return resultFailed, err
	}
	if err := op.Apply(ctx, item); err != nil {
		return resultFailed, err
	}
	return resultCompleted, nil
}

func (c *BatchOperationCoordinator) count(ctx context.Context, action string, outcome *model.BatchOutcome) {
	attrs := metric.WithAttributes(attribute.String("action", action))
	if c.completedCounter != nil {
		c.completedCounter.Add(ctx, int64(len(outcome.Completed)), attrs)
	}
	if c.failedCounter != nil {
		c.failedCounter.Add(ctx, int64(len(outcome.Failed)), attrs)
	}
}

// DeleteOperation removes each item from the store.
type DeleteOperation struct {
	Store cloud.ObjectStore
}

func (DeleteOperation) Action() string { return model.ActionDelete }

func (DeleteOperation) Applies(model.BatchItem) bool { return true }

func (d DeleteOperation) Apply(ctx context.Context, item model.BatchItem) error {
	return d.Store.Delete(ctx, item.Name)
}

// reservedMetaKeys are maintained by the transcode pipeline and cannot be
// patched by callers.
var reservedMetaKeys = map[string]bool{
	model.MetaTranscodeJobName:       true,
	model.MetaTranscodeJobID:         true,
	model.MetaTranscodeTransformName: true,
	model.MetaTranscodedURL:          true,
	model.MetaUploadChannel:          true,
}

// PatchOperation merges caller-supplied metadata into each item. Items with
// nothing to merge are skipped.
type PatchOperation struct {
	Store cloud.ObjectStore
}

func (PatchOperation) Action() string { return model.ActionPatch }

func (PatchOperation) Applies(item model.BatchItem) bool {
	return len(patchFields(item)) > 0
}

func (p PatchOperation) Apply(ctx context.Context, item model.BatchItem) error {
	return p.Store.UpdateMetadata(ctx, item.Name, patchFields(item))
}

func patchFields(item model.BatchItem) map[string]string {
	fields := maps.Clone(item.Metadata)
	maps.DeleteFunc(fields, func(k, _ string) bool {
		return reservedMetaKeys[model.CanonicalMetaKey(k)]
	})
	return fields
}
