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

package model_test

import (
	"encoding/json"
	"testing"

	"github.com/jaycherian/gcp-go-media-gallery/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchRequestAcceptsStringsAndObjects(t *testing.T) {
	body := `{
		"password": "secret",
		"files": [
			"original/a.jpg",
			{"name": "original/b.jpg", "metadata": {"metaTags": ["cat", "dog"], "note": "hi"}},
			{"name": "original/c.jpg"}
		]
	}`
	var req model.BatchRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	assert.Equal(t, "secret", req.Password)
	require.Len(t, req.Files, 3)
	assert.Equal(t, "original/a.jpg", req.Files[0].Name)
	assert.Nil(t, req.Files[0].Metadata)
	assert.Equal(t, "original/b.jpg", req.Files[1].Name)
	assert.Equal(t, `["cat","dog"]`, req.Files[1].Metadata["metaTags"])
	assert.Equal(t, "hi", req.Files[1].Metadata["note"])
	assert.Empty(t, req.Files[2].Metadata)
}

func TestBatchItemRejectsNumbers(t *testing.T) {
	var item model.BatchItem
	assert.Error(t, json.Unmarshal([]byte(`42`), &item))
}

func TestPageDoneTracksCursor(t *testing.T) {
	p := model.NewPage(nil, "")
	assert.True(t, p.Done)
	assert.NotNil(t, p.Files)

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"files":[],"nextPage":"","done":true}`, string(raw))

	p = model.NewPage([]*model.MediaView{{Name: "x"}}, "cursor")
	assert.False(t, p.Done)
}

func TestMediaItemTranscodeJob(t *testing.T) {
	item := &model.MediaItem{Path: "original/v.mov", ContentType: "video/quicktime"}
	_, _, ok := item.TranscodeJob()
	assert.False(t, ok)

	handle := &model.JobHandle{Name: "v", Transform: "default"}
	item.Metadata = handle.Metadata()
	transform, job, ok := item.TranscodeJob()
	assert.True(t, ok)
	assert.Equal(t, "default", transform)
	assert.Equal(t, "v", job)

	item.Metadata[model.MetaTranscodeJobID] = "projects/p/locations/l/jobs/123"
	_, job, _ = item.TranscodeJob()
	assert.Equal(t, "projects/p/locations/l/jobs/123", job)
	assert.True(t, item.IsVideo())
	assert.False(t, item.IsImage())
}

func TestCanonicalMetaKey(t *testing.T) {
	assert.Equal(t, model.MetaTranscodedURL, model.CanonicalMetaKey("transcodedurl"))
	assert.Equal(t, "custom", model.CanonicalMetaKey("custom"))
}
