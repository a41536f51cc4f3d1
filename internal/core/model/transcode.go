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

// JobState is the externally owned lifecycle state of a transcode job.
type JobState int

const (
	JobStateUnknown JobState = iota
	JobStateQueued
	JobStateProcessing
	JobStateFinished
	JobStateError
)

func (s JobState) String() string {
	switch s {
	case JobStateQueued:
		return "Queued"
	case JobStateProcessing:
		return "Processing"
	case JobStateFinished:
		return "Finished"
	case JobStateError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further transitions are expected.
func (s JobState) Terminal() bool {
	return s == JobStateFinished || s == JobStateError
}

// DefaultTransformName is the only transform that may be provisioned on demand.
const DefaultTransformName = "default"

// JobHandle identifies a submitted transcode job.
type JobHandle struct {
	Name      string // Deterministic name derived from the source path; also the output asset name.
	Transform string // Transform the job was submitted under.
	ID        string // Service-assigned reference, empty if the service has none.
}

// Metadata returns the key/value pairs stamped onto the source item so a later
// listing can find the job again.
func (h *JobHandle) Metadata() map[string]string {
	m := map[string]string{
		MetaTranscodeJobName:       h.Name,
		MetaTranscodeTransformName: h.Transform,
	}
	if h.ID != "" {
		m[MetaTranscodeJobID] = h.ID
	}
	return m
}

// TransformPreset is the encoding profile behind a transform.
type TransformPreset struct {
	Codec           string
	WidthPixels     int32
	HeightPixels    int32
	BitrateBps      int32
	FrameRate       float64
	EncoderPreset   string // Speed/quality trade-off, e.g. "veryfast".
	AudioCodec      string
	AudioBitrateBps int32
	Container       string
}

// DefaultTransformPreset is a single-bitrate, speed-optimized H.264 profile.
func DefaultTransformPreset() TransformPreset {
	return TransformPreset{
		Codec:           "h264",
		WidthPixels:     1280,
		HeightPixels:    720,
		BitrateBps:      2_500_000,
		FrameRate:       30,
		EncoderPreset:   "veryfast",
		AudioCodec:      "aac",
		AudioBitrateBps: 64_000,
		Container:       "mp4",
	}
}
