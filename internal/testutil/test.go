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

// Package test provides fakes and fixtures for the gallery's test suite: an
// in-memory object store, an in-memory job service, a ready-made
// configuration and sample storage notifications.
package test

import (
	"fmt"
	"testing"

	"github.com/jaycherian/gcp-go-media-gallery/internal/cloud"
)

// Names used by NewTestConfig.
const (
	TestBucket          = "media-gallery-test"
	TestTransientBucket = "media-gallery-transient-test"
	TestPassword        = "let-me-in"
	TestBaseURL         = "https://storage.googleapis.com/media-gallery-test"
	TestCDNBaseURL      = "https://cdn.example.com"
)

// HandleErr fails the test when err is not nil.
func HandleErr(err error, t *testing.T) {
	t.Helper()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// NewTestConfig returns the default configuration pointed at the test
// buckets, with a manage password set and no CDN.
func NewTestConfig() *cloud.Config {
	config := cloud.NewConfig()
	config.Application.GoogleProjectId = "test-project"
	config.Application.GoogleLocation = "us-central1"
	config.Application.ThreadPoolSize = 4
	config.Storage.Bucket = TestBucket
	config.Storage.TransientBucket = TestTransientBucket
	config.Storage.BaseURL = TestBaseURL
	config.Gallery.ManagePassword = TestPassword
	config.Telemetry.Export = false
	return config
}

// Stores returns a linked media/transient pair of in-memory stores.
func Stores() (media *MemoryStore, transient *MemoryStore) {
	media = NewMemoryStore(TestBucket)
	transient = NewMemoryStore(TestTransientBucket)
	media.Link(transient)
	return media, transient
}

// GetTestUploadMessageText returns a storage "object finalized" notification
// for name in the test bucket.
//
// Inputs:
//   - name: The object path.
//   - contentType: The object's content type.
//   - metadata: Raw JSON for the metadata field, e.g. `{"uploadChannel":"api"}`.
//
// Returns:
//   - A string containing the JSON payload of a GCS notification.
func GetTestUploadMessageText(name, contentType, metadata string) string {
	if metadata == "" {
		metadata = "{}"
	}
	return fmt.Sprintf(`{
  "kind": "storage#object",
  "id": "%[1]s/%[2]s/1728615848664286",
  "name": "%[2]s",
  "bucket": "%[1]s",
  "generation": "1728615848664286",
  "metageneration": "1",
  "contentType": "%[3]s",
  "timeCreated": "2024-10-11T03:04:08.672Z",
  "updated": "2024-10-11T03:04:08.672Z",
  "storageClass": "STANDARD",
  "size": "259348037",
  "md5Hash": "67c1rAU+1RYZzK5zp8iBkA==",
  "metadata": %[4]s,
  "crc32c": "IYeSTw==",
  "etag": "CN658+yrhYkDEAE="
}`, TestBucket, name, contentType, metadata)
}
