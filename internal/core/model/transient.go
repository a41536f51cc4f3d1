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
// This file, `transient.go`, holds values that only live for the duration of a
// pipeline run and are passed between commands in a chain of responsibility.
package model

// Relocation carries the state of one asset relocation through its chain.
// Each step fills in the fields the next one needs.
type Relocation struct {
	JobName          string // Transcode job (and transient asset) name.
	SourcePath       string // Original item that will be stamped with the result.
	AssetContainer   string // Container of the transient asset, set once resolved.
	AssetPrefix      string // Prefix of the transient asset within its container.
	OutputPath       string // Encoded deliverable found inside the asset.
	DestinationPath  string // Permanent path of the transcoded copy.
	DestinationURL   string // Caller-facing URL of the transcoded copy.
	AlreadyRelocated bool   // The asset is gone but the destination exists.
}
