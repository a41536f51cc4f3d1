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

package test

import (
	"context"
	"sync"

	"github.com/jaycherian/gcp-go-media-gallery/internal/core/model"
)

// RecordingActivityLog keeps every event it is given.
type RecordingActivityLog struct {
	mu     sync.Mutex
	events []model.ActivityEvent
}

func (l *RecordingActivityLog) Log(_ context.Context, events ...model.ActivityEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, events...)
}

// Events returns the recorded events, optionally only those for action.
func (l *RecordingActivityLog) Events(action string) []model.ActivityEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []model.ActivityEvent
	for _, ev := range l.events {
		if action == "" || ev.Action == action {
			out = append(out, ev)
		}
	}
	return out
}
