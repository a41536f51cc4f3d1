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

package model

import (
	"net/url"
	"path"
	"strings"
)

// PathRules holds the deterministic naming rules that map an original upload
// to its transcoded copy and its thumbnail.
type PathRules struct {
	OriginalPrefix      string // e.g. "original/"
	TranscodedPrefix    string // e.g. "transcoded/"
	ThumbnailPrefix     string // e.g. "video_thumbnails/"
	ThumbnailExtension  string // e.g. "jpg"
	TranscodedExtension string // e.g. "mp4"
}

// DefaultPathRules returns the rules used when nothing is configured.
func DefaultPathRules() PathRules {
	return PathRules{
		OriginalPrefix:      "original/",
		TranscodedPrefix:    "transcoded/",
		ThumbnailPrefix:     "video_thumbnails/",
		ThumbnailExtension:  "jpg",
		TranscodedExtension: "mp4",
	}
}

// TranscodedPath maps "original/123-clip.mov" to "transcoded/123-clip.mp4".
func (r PathRules) TranscodedPath(source string) string {
	return rebase(source, r.OriginalPrefix, r.TranscodedPrefix, r.TranscodedExtension)
}

// ThumbnailPath maps "original/123-clip.mov" to "video_thumbnails/123-clip.jpg".
func (r PathRules) ThumbnailPath(source string) string {
	return rebase(source, r.OriginalPrefix, r.ThumbnailPrefix, r.ThumbnailExtension)
}

// IsOriginal reports whether p lives under the original prefix.
func (r PathRules) IsOriginal(p string) bool {
	return r.OriginalPrefix == "" || strings.HasPrefix(p, r.OriginalPrefix)
}

func rebase(p, from, to, ext string) string {
	if from != "" && strings.HasPrefix(p, from) {
		p = to + strings.TrimPrefix(p, from)
	}
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		return p
	}
	base := path.Base(p)
	if e := path.Ext(base); e != "" && e != base {
		p = strings.TrimSuffix(p, e)
	}
	return p + "." + ext
}

// JobName derives the transcode job name from a source URL or path: the last
// path segment with everything from the first '.' removed. Two uploads that
// share a file name share a job name.
func JobName(source string) string {
	if i := strings.IndexAny(source, "?#"); i >= 0 {
		source = source[:i]
	}
	source = strings.TrimRight(source, "/")
	if i := strings.LastIndex(source, "/"); i >= 0 {
		source = source[i+1:]
	}
	if i := strings.Index(source, "."); i >= 0 {
		source = source[:i]
	}
	return source
}

// JoinURL appends an object path to a base URL, escaping each segment.
func JoinURL(base, p string) string {
	segments := strings.Split(strings.TrimLeft(p, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(segments, "/")
}
