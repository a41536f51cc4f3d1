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

// Package model defines the core data structures for the media gallery.
// This file, `media.go`, holds the representation of a stored media item as
// it is read back from the object store, and the caller-facing view that the
// listing endpoint returns for it.
package model

import "strings"

// Metadata keys written onto stored media items. The object store is the only
// place this state lives, so these names are part of the persisted contract.
const (
	MetaTranscodeJobName       = "transcodeJobName"       // Deterministic job (and output asset) name.
	MetaTranscodeJobID         = "transcodeJobId"         // Job reference assigned by the job service.
	MetaTranscodeTransformName = "transcodeTransformName" // Transform the job was submitted under.
	MetaTranscodedURL          = "transcodedUrl"          // Permanent URL of the relocated output.
	MetaUploadChannel          = "uploadChannel"          // How the object entered the store.

	// UploadChannelAPI marks objects written through the upload endpoint. Those
	// have their transcode submitted inline, so notification triggers skip them.
	UploadChannelAPI = "api"
)

// knownMetaKeys lets stores that lowercase metadata keys (S3 does) hand back
// the canonical spelling.
var knownMetaKeys = map[string]string{
	strings.ToLower(MetaTranscodeJobName):       MetaTranscodeJobName,
	strings.ToLower(MetaTranscodeJobID):         MetaTranscodeJobID,
	strings.ToLower(MetaTranscodeTransformName): MetaTranscodeTransformName,
	strings.ToLower(MetaTranscodedURL):          MetaTranscodedURL,
	strings.ToLower(MetaUploadChannel):          MetaUploadChannel,
	"metatags":                                  "metaTags",
	"peopletags":                                "peopleTags",
}

// CanonicalMetaKey returns the canonical spelling of a known metadata key, or
// the key unchanged when it is not one this package owns.
func CanonicalMetaKey(key string) string {
	if k, ok := knownMetaKeys[strings.ToLower(key)]; ok {
		return k
	}
	return key
}

// MediaItem is a single object in the media store. Its identity is its path.
type MediaItem struct {
	Path        string            // Storage path, unique within the store (e.g. "original/123-clip.mov").
	ContentType string            // MIME type reported by the store.
	Size        int64             // Size in bytes, when the store reports it.
	Metadata    map[string]string // Custom key/value metadata.
}

// Meta returns the metadata value for key, or "" when absent.
func (m *MediaItem) Meta(key string) string {
	if m == nil || m.Metadata == nil {
		return ""
	}
	return m.Metadata[key]
}

// IsImage reports whether the item's content type is an image type.
func (m *MediaItem) IsImage() bool { return IsImage(m.ContentType) }

// IsVideo reports whether the item's content type is a video type.
func (m *MediaItem) IsVideo() bool { return IsVideo(m.ContentType) }

// TranscodeJob returns the transform name and the job reference to poll for
// this item. The service-assigned ID is preferred; the deterministic name is
// the fallback. ok is false when the item carries no job reference.
func (m *MediaItem) TranscodeJob() (transform string, job string, ok bool) {
	name := m.Meta(MetaTranscodeJobName)
	if name == "" {
		return "", "", false
	}
	job = m.Meta(MetaTranscodeJobID)
	if job == "" {
		job = name
	}
	return m.Meta(MetaTranscodeTransformName), job, true
}

// MediaView is what the listing endpoint returns for each item.
type MediaView struct {
	Name          string            `json:"name"`
	ContentType   string            `json:"contentType"`
	URL           string            `json:"url"`
	ThumbnailURL  string            `json:"thumbnailUrl,omitempty"`
	TranscodedURL string            `json:"transcodedUrl,omitempty"` // Empty while the video is still processing.
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Page is one page of a cursor-paginated listing. Done is true exactly when
// NextPage is empty.
type Page struct {
	Files    []*MediaView `json:"files"`
	NextPage string       `json:"nextPage"`
	Done     bool         `json:"done"`
}

// NewPage builds a page from views and the store's continuation token.
func NewPage(views []*MediaView, next string) *Page {
	if views == nil {
		views = make([]*MediaView, 0)
	}
	return &Page{Files: views, NextPage: next, Done: next == ""}
}

// IsImage reports whether contentType names an image.
func IsImage(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/")
}

// IsVideo reports whether contentType names a video.
func IsVideo(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "video/")
}
