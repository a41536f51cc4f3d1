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

package commands_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/jaycherian/gcp-go-media-gallery/internal/core/commands"
	"github.com/jaycherian/gcp-go-media-gallery/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-gallery/internal/core/model"
	test "github.com/jaycherian/gcp-go-media-gallery/internal/testutil"
	"github.com/zeebo/assert"
)

func relocationContext(r *model.Relocation) cor.Context {
	chCtx := cor.NewContext(context.Background())
	chCtx.Add(commands.RelocationParam, r)
	return chCtx
}

func TestLocateScansEveryPage(t *testing.T) {
	_, transient := test.Stores()
	for i := 0; i < 120; i++ {
		transient.Seed(fmt.Sprintf("clip/segment-%03d.ts", i), "video/mp2t", nil)
	}
	transient.Seed("clip/zz-sd.mp4", "video/mp4", nil)

	r := &model.Relocation{JobName: "clip", AssetPrefix: "clip/"}
	chCtx := relocationContext(r)
	cmd := commands.NewTranscodeOutputLocate("locate", transient, "video/mp4", "mp4")
	assert.True(t, cmd.IsExecutable(chCtx))
	cmd.Execute(chCtx)

	test.HandleErr(chCtx.Err(), t)
	assert.Equal(t, r.OutputPath, "clip/zz-sd.mp4")
	assert.That(t, transient.Lists > 2)
}

func TestCopyStepsSkippedOnceRelocated(t *testing.T) {
	media, transient := test.Stores()
	jobs := test.NewFakeJobService(transient)
	chCtx := relocationContext(&model.Relocation{JobName: "clip", AlreadyRelocated: true})

	assert.False(t, commands.NewTranscodeOutputLocate("locate", transient, "video/mp4", "mp4").IsExecutable(chCtx))
	assert.False(t, commands.NewTranscodeOutputCopy("copy", media).IsExecutable(chCtx))
	assert.False(t, commands.NewAssetCleanup("cleanup", jobs).IsExecutable(chCtx))
	assert.True(t, commands.NewSourceStamp("stamp", media).IsExecutable(chCtx))
}
