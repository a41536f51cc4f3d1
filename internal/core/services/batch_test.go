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

package services_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/jaycherian/gcp-go-media-gallery/internal/core/model"
	"github.com/jaycherian/gcp-go-media-gallery/internal/core/services"
	test "github.com/jaycherian/gcp-go-media-gallery/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedOp fails and panics on the names it is told to.
type scriptedOp struct {
	calls   atomic.Int32
	fail    map[string]bool
	panicOn string
}

func (o *scriptedOp) Action() string { return "scripted" }

func (o *scriptedOp) Applies(model.BatchItem) bool { return true }

func (o *scriptedOp) Apply(_ context.Context, item model.BatchItem) error {
	o.calls.Add(1)
	if item.Name == o.panicOn {
		panic("boom")
	}
	if o.fail[item.Name] {
		return errors.New("scripted failure")
	}
	return nil
}

func items(names ...string) []model.BatchItem {
	out := make([]model.BatchItem, len(names))
	for i, n := range names {
		out[i] = model.BatchItem{Name: n}
	}
	return out
}

func newCoordinator(activity services.ActivityLog) *services.BatchOperationCoordinator {
	return services.NewBatchOperationCoordinator(services.PasswordAuthorizer{Secret: test.TestPassword}, 4, activity)
}

func TestBatchDeletePartialFailure(t *testing.T) {
	media, _ := test.Stores()
	media.Seed("a.jpg", "image/jpeg", nil)
	media.Seed("b.jpg", "image/jpeg", nil)
	media.DeleteErr["b.jpg"] = errors.New("permission denied")
	activity := &test.RecordingActivityLog{}

	status, outcome := newCoordinator(activity).Run(context.Background(), items("a.jpg", "b.jpg"), test.TestPassword, services.DeleteOperation{Store: media})

	assert.Equal(t, services.BatchPartialFailure, status)
	assert.Equal(t, http.StatusInternalServerError, status.HTTPStatus())
	assert.Equal(t, []string{"a.jpg"}, outcome.Completed)
	assert.Equal(t, []string{"b.jpg"}, outcome.Failed)
	assert.False(t, media.Has("a.jpg"))
	assert.True(t, media.Has("b.jpg"))

	events := activity.Events(model.ActionDelete)
	require.Len(t, events, 2)
	assert.Equal(t, events[0].RunID, events[1].RunID)
}

func TestBatchDeleteAll(t *testing.T) {
	media, _ := test.Stores()
	media.Seed("a.jpg", "image/jpeg", nil)
	media.Seed("b.jpg", "image/jpeg", nil)

	status, outcome := newCoordinator(nil).Run(context.Background(), items("a.jpg", "b.jpg"), test.TestPassword, services.DeleteOperation{Store: media})

	assert.Equal(t, services.BatchOK, status)
	assert.Equal(t, http.StatusOK, status.HTTPStatus())
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, outcome.Completed)
	assert.Empty(t, outcome.Failed)
	assert.Empty(t, media.Paths())
}

func TestBatchDeleteMissingItemFails(t *testing.T) {
	media, _ := test.Stores()

	status, outcome := newCoordinator(nil).Run(context.Background(), items("gone.jpg"), test.TestPassword, services.DeleteOperation{Store: media})
	assert.Equal(t, services.BatchPartialFailure, status)
	assert.Equal(t, []string{"gone.jpg"}, outcome.Failed)
}

func TestBatchUnauthorizedTouchesNothing(t *testing.T) {
	op := &scriptedOp{}

	for _, password := range []string{"", "wrong"} {
		status, outcome := newCoordinator(nil).Run(context.Background(), items("a.jpg", "b.jpg", "c.jpg"), password, op)
		assert.Equal(t, services.BatchUnauthorized, status)
		assert.Equal(t, http.StatusUnauthorized, status.HTTPStatus())
		assert.Equal(t, []string{"a.jpg", "b.jpg", "c.jpg"}, outcome.Failed)
		assert.Empty(t, outcome.Completed)
	}
	assert.Equal(t, int32(0), op.calls.Load())
}

func TestBatchWithoutSecretRejectsEverything(t *testing.T) {
	op := &scriptedOp{}
	coordinator := services.NewBatchOperationCoordinator(services.PasswordAuthorizer{}, 2, nil)

	status, _ := coordinator.Run(context.Background(), items("a.jpg"), "", op)
	assert.Equal(t, services.BatchUnauthorized, status)
	assert.Equal(t, int32(0), op.calls.Load())
}

func TestBatchEmptyRequest(t *testing.T) {
	op := &scriptedOp{}

	status, outcome := newCoordinator(nil).Run(context.Background(), nil, test.TestPassword, op)
	assert.Equal(t, services.BatchInvalid, status)
	assert.Equal(t, http.StatusBadRequest, status.HTTPStatus())
	assert.Equal(t, 0, outcome.Total())
	assert.Equal(t, int32(0), op.calls.Load())
}

func TestBatchPanicFailsOnlyThatItem(t *testing.T) {
	op := &scriptedOp{panicOn: "b.jpg"}

	status, outcome := newCoordinator(nil).Run(context.Background(), items("a.jpg", "b.jpg", "c.jpg"), test.TestPassword, op)
	assert.Equal(t, services.BatchPartialFailure, status)
	assert.Equal(t, []string{"a.jpg", "c.jpg"}, outcome.Completed)
	assert.Equal(t, []string{"b.jpg"}, outcome.Failed)
}

func TestBatchUnnamedItemFails(t *testing.T) {
	op := &scriptedOp{}

	_, outcome := newCoordinator(nil).Run(context.Background(), items("a.jpg", " "), test.TestPassword, op)
	assert.Equal(t, []string{"a.jpg"}, outcome.Completed)
	assert.Equal(t, []string{" "}, outcome.Failed)
	assert.Equal(t, int32(1), op.calls.Load())
}

func TestBatchCancelledContextFailsItems(t *testing.T) {
	op := &scriptedOp{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	status, outcome := newCoordinator(nil).Run(ctx, items("a.jpg", "b.jpg"), test.TestPassword, op)
	assert.Equal(t, services.BatchPartialFailure, status)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, outcome.Failed)
	assert.Equal(t, int32(0), op.calls.Load())
}

func TestBatchOutcomePartitionsInput(t *testing.T) {
	fail := make(map[string]bool)
	var names []string
	for i := 0; i < 50; i++ {
		name := fmt.Sprintf("%02d.jpg", i)
		names = append(names, name)
		if i%3 == 0 {
			fail[name] = true
		}
	}
	op := &scriptedOp{fail: fail}

	_, outcome := newCoordinator(nil).Run(context.Background(), items(names...), test.TestPassword, op)
	assert.Equal(t, len(names), outcome.Total())
	assert.Len(t, outcome.Failed, len(fail))

	seen := make(map[string]bool)
	for _, n := range append(append([]string{}, outcome.Completed...), outcome.Failed...) {
		assert.False(t, seen[n], "%s reported twice", n)
		seen[n] = true
	}
	for _, n := range outcome.Failed {
		assert.True(t, fail[n])
	}
}

func TestBatchPatch(t *testing.T) {
	media, _ := test.Stores()
	media.Seed("a.jpg", "image/jpeg", map[string]string{model.MetaTranscodedURL: "keep"})
	media.Seed("b.jpg", "image/jpeg", nil)
	media.Seed("c.jpg", "image/jpeg", nil)

	req := []model.BatchItem{
		{Name: "a.jpg", Metadata: map[string]string{"metaTags": `["beach"]`, model.MetaTranscodedURL: "overwrite"}},
		{Name: "b.jpg"},
		{Name: "c.jpg", Metadata: map[string]string{model.MetaTranscodeJobName: "x"}},
	}
	status, outcome := newCoordinator(nil).Run(context.Background(), req, test.TestPassword, services.PatchOperation{Store: media})

	assert.Equal(t, services.BatchOK, status)
	assert.Equal(t, []string{"a.jpg"}, outcome.Completed)
	assert.Equal(t, []string{"b.jpg", "c.jpg"}, outcome.Skipped)
	assert.Empty(t, outcome.Failed)

	meta := media.Metadata("a.jpg")
	assert.Equal(t, `["beach"]`, meta["metaTags"])
	assert.Equal(t, "keep", meta[model.MetaTranscodedURL])
	assert.Empty(t, media.Metadata("c.jpg"))
}

func TestPasswordAuthorizer(t *testing.T) {
	auth := services.PasswordAuthorizer{Secret: "s3cret"}
	assert.True(t, auth.Authorize("s3cret"))
	assert.False(t, auth.Authorize("s3cret "))
	assert.False(t, auth.Authorize(""))
	assert.False(t, services.PasswordAuthorizer{}.Authorize(""))
}
