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

package services

import (
	"github.com/jaycherian/gcp-go-media-gallery/internal/core/model"
)

// URLResolver derives the caller-facing URLs of a stored item.
type URLResolver struct {
	RawBaseURL string // Base URL of the object store.
	CDNBaseURL string // Optional; used for images only.
	Rules      model.PathRules
}

// PrimaryURL serves images from the CDN when one is configured. Videos and
// anything unrecognized always use the raw store base.
func (r *URLResolver) PrimaryURL(item *model.MediaItem) string {
	if item.IsImage() && r.CDNBaseURL != "" {
		return model.JoinURL(r.CDNBaseURL, item.Path)
	}
	return model.JoinURL(r.RawBaseURL, item.Path)
}

// ThumbnailURL is the primary URL for images and the derived thumbnail path
// for videos. Other types have no thumbnail. Whether the video thumbnail
// exists is not checked.
func (r *URLResolver) ThumbnailURL(item *model.MediaItem) string {
	switch {
	case item.IsImage():
		return r.PrimaryURL(item)
	case item.IsVideo():
		return model.JoinURL(r.RawBaseURL, r.Rules.ThumbnailPath(item.Path))
	default:
		return ""
	}
}

// TranscodedPath is the permanent path of sourcePath's transcoded copy.
func (r *URLResolver) TranscodedPath(sourcePath string) string {
	return r.Rules.TranscodedPath(sourcePath)
}

// TranscodedURL is the URL the transcoded copy of sourcePath will be served from.
func (r *URLResolver) TranscodedURL(sourcePath string) string {
	return model.JoinURL(r.RawBaseURL, r.TranscodedPath(sourcePath))
}
