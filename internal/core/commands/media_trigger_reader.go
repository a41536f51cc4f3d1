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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface. This file defines the
// initial command of the notification-triggered transcode workflow.
//
// Logic Flow:
//  1. The command receives the raw Pub/Sub message data as a JSON string.
//  2. It unmarshals it into a `cloud.GCSPubSubNotification`.
//  3. It distills the bucket, name, content type and metadata into a
//     `cloud.GCSObject` and places it in the context for the next command.
package commands

import (
	"encoding/json"
	"fmt"

	"github.com/jaycherian/gcp-go-media-gallery/internal/cloud"
	"github.com/jaycherian/gcp-go-media-gallery/internal/core/cor"
)

// MediaTriggerToGCSObject parses a storage notification into a GCSObject.
type MediaTriggerToGCSObject struct {
	cor.BaseCommand
}

// NewMediaTriggerToGCSObject is the constructor for the MediaTriggerToGCSObject command.
func NewMediaTriggerToGCSObject(name string) *MediaTriggerToGCSObject {
	return &MediaTriggerToGCSObject{BaseCommand: *cor.NewBaseCommand(name)}
}

// Execute parses the notification held in the input parameter.
func (c *MediaTriggerToGCSObject) Execute(context cor.Context) {
	in, ok := context.Get(c.GetInputParam()).(string)
	if !ok {
		c.Fail(context, fmt.Errorf("expected notification text, got %T", context.Get(c.GetInputParam())))
		return
	}

	var out cloud.GCSPubSubNotification
	if err := json.Unmarshal([]byte(in), &out); err != nil {
		c.Fail(context, fmt.Errorf("failed to unmarshal GCS notification: %w", err))
		return
	}
	if out.Name == "" {
		c.Fail(context, fmt.Errorf("notification %q has no object name", out.ID))
		return
	}

	msg := &cloud.GCSObject{Bucket: out.Bucket, Name: out.Name, MIMEType: out.ContentType, Metadata: out.MetaData}
	context.Add(cloud.GetGCSObjectName(), msg)
	context.Add(c.GetOutputParam(), msg)
	c.Succeed(context)
}
