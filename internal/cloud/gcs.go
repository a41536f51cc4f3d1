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

// Package cloud contains data structures and utilities for interacting with Google Cloud services.
// This file defines models related to Google Cloud Storage (GCS) notifications and a simplified
// internal representation of a stored object that travels through a processing chain.
//
// Structs:
//   - GCSPubSubNotification: Maps to the JSON payload from GCS event notifications.
//   - GCSObject: A simplified internal model for GCS objects used in processing workflows.
//
// Functions:
//   - GetGCSObjectName: Returns a constant key used for storing GCS object data in a context.
package cloud

import "github.com/jaycherian/gcp-go-media-gallery/internal/core/model"

// GetGCSObjectName returns the chain context key under which the notified
// object is stored.
func GetGCSObjectName() string {
	return "__GCS__OBJ__"
}

// GCSPubSubNotification is the structure that maps to the JSON message payload
// received from a Google Cloud Storage (GCS) Pub/Sub notification.
type GCSPubSubNotification struct {
	Kind           string            `json:"kind"`           // The kind of the object, typically "storage#object".
	ID             string            `json:"id"`             // The full ID of the object, including bucket and generation.
	Name           string            `json:"name"`           // The name of the object within the bucket.
	Bucket         string            `json:"bucket"`         // The name of the bucket containing the object.
	Generation     string            `json:"generation"`     // The generation number of the object's content.
	MetaGeneration string            `json:"metageneration"` // The generation number of the object's metadata.
	ContentType    string            `json:"contentType"`    // The MIME type of the object's content.
	TimeCreated    string            `json:"timeCreated"`    // The creation time of the object.
	Size           string            `json:"size"`           // The size of the object in bytes.
	MetaData       map[string]string `json:"metadata"`       // User-provided metadata, if any.
}

// GCSObject is a simplified, internal representation of a stored object. It
// distills the notification into what the transcode trigger needs.
type GCSObject struct {
	Bucket   string            // The name of the bucket.
	Name     string            // The name of the object.
	MIMEType string            // The MIME type of the object (e.g., "video/mp4").
	Metadata map[string]string // Custom metadata at notification time.
}

// MediaItem converts the object into the gallery's item model.
func (o *GCSObject) MediaItem() *model.MediaItem {
	return &model.MediaItem{Path: o.Name, ContentType: o.MIMEType, Metadata: o.Metadata}
}
