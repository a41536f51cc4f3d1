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

import "errors"

var (
	// ErrTransformUnavailable is returned when a named transform does not exist
	// and may not be provisioned on demand.
	ErrTransformUnavailable = errors.New("transform unavailable")
	// ErrTransformCreateFailed is returned when the default transform could not be created.
	ErrTransformCreateFailed = errors.New("transform creation failed")
	// ErrNoTranscodedOutput is returned when a finished job left nothing to relocate.
	ErrNoTranscodedOutput = errors.New("no transcoded output")
	// ErrCopyFailed is returned when a server-side copy did not report success.
	ErrCopyFailed = errors.New("copy did not complete")
	// ErrTranscodingDisabled is returned by components built without a job service.
	ErrTranscodingDisabled = errors.New("transcoding disabled")
	// ErrInvalidFilename is returned by uploads whose name reduces to nothing usable.
	ErrInvalidFilename = errors.New("invalid filename")
)
