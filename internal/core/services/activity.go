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
// This file, `activity.go`, defines the activity ledger: an append-only record
// of batch item outcomes, transcode submissions and relocations. Writing to
// the ledger never fails the operation being recorded.
package services

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"github.com/jaycherian/gcp-go-media-gallery/internal/core/model"
	"google.golang.org/api/googleapi"
)

// ledgerWriteTimeout bounds a single ledger insert.
const ledgerWriteTimeout = 10 * time.Second

// ActivityLog receives activity events.
type ActivityLog interface {
	Log(ctx context.Context, events ...model.ActivityEvent)
}

// NopActivityLog discards every event.
type NopActivityLog struct{}

func (NopActivityLog) Log(context.Context, ...model.ActivityEvent) {}

// BigQueryActivityLog streams events into a BigQuery table.
type BigQueryActivityLog struct {
	Table *bigquery.Table
}

// NewBigQueryActivityLog binds the ledger to dataset.table.
func NewBigQueryActivityLog(client *bigquery.Client, dataset, table string) *BigQueryActivityLog {
	return &BigQueryActivityLog{Table: client.Dataset(dataset).Table(table)}
}

// EnsureTable creates the ledger table from the event schema when it does not
// exist yet.
func (l *BigQueryActivityLog) EnsureTable(ctx context.Context) error {
	schema, err := bigquery.InferSchema(model.ActivityEvent{})
	if err != nil {
		return err
	}
	err = l.Table.Create(ctx, &bigquery.TableMetadata{
		Schema:           schema,
		TimePartitioning: &bigquery.TimePartitioning{Field: "time"},
	})
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict {
		return nil
	}
	return err
}

// Log inserts events, filling in missing run IDs and timestamps. Insert
// failures are logged.
func (l *BigQueryActivityLog) Log(ctx context.Context, events ...model.ActivityEvent) {
	if len(events) == 0 {
		return
	}
	now := time.Now().UTC()
	runID := uuid.NewString()
	for i := range events {
		if events[i].RunID == "" {
			events[i].RunID = runID
		}
		if events[i].Time.IsZero() {
			events[i].Time = now
		}
	}
	// A cancelled request still gets its outcome recorded.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ledgerWriteTimeout)
	defer cancel()
	if err := l.Table.Inserter().Put(writeCtx, events); err != nil {
		slog.ErrorContext(ctx, "failed to write activity ledger", "table", l.Table.FullyQualifiedName(), "events", len(events), "error", err)
	}
}

func recordActivity(ctx context.Context, log ActivityLog, action, item, outcome, detail string) {
	if log == nil {
		return
	}
	log.Log(ctx, model.ActivityEvent{Action: action, Item: item, Outcome: outcome, Detail: detail})
}
