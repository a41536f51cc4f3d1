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

package cor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jaycherian/gcp-go-media-gallery/internal/core/cor"
	"github.com/zeebo/assert"
)

// appendCommand reads a string from CtxIn and writes it back with a suffix.
type appendCommand struct {
	cor.BaseCommand
	suffix string
	fail   error
	calls  *int
}

func newAppend(name, suffix string, fail error, calls *int) *appendCommand {
	return &appendCommand{BaseCommand: *cor.NewBaseCommand(name), suffix: suffix, fail: fail, calls: calls}
}

func (c *appendCommand) Execute(ctx cor.Context) {
	*c.calls++
	if c.fail != nil {
		c.Fail(ctx, c.fail)
		return
	}
	ctx.Add(c.GetOutputParam(), ctx.Get(c.GetInputParam()).(string)+c.suffix)
	c.Succeed(ctx)
}

// captureCommand stores whatever it receives under "captured".
type captureCommand struct {
	cor.BaseCommand
}

func (c *captureCommand) Execute(ctx cor.Context) {
	ctx.Add("captured", ctx.Get(c.GetInputParam()))
}

func TestChainPipesOutputToInput(t *testing.T) {
	calls := 0
	chain := cor.NewBaseChain("pipe").
		AddCommand(newAppend("a", "-a", nil, &calls)).
		AddCommand(newAppend("b", "-b", nil, &calls)).
		AddCommand(&captureCommand{BaseCommand: *cor.NewBaseCommand("capture")})

	ctx := cor.NewContext(context.Background())
	ctx.Add(cor.CtxIn, "start")
	chain.Execute(ctx)

	assert.False(t, ctx.HasErrors())
	assert.NoError(t, ctx.Err())
	assert.Equal(t, "start-a-b", ctx.Get("captured"))
	assert.Equal(t, 2, calls)
}

func TestChainStopsAfterFailure(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	chain := cor.NewBaseChain("stop").
		AddCommand(newAppend("a", "-a", boom, &calls)).
		AddCommand(newAppend("b", "-b", nil, &calls))

	ctx := cor.NewContext(context.Background())
	ctx.Add(cor.CtxIn, "start")
	chain.Execute(ctx)

	assert.True(t, ctx.HasErrors())
	assert.True(t, errors.Is(ctx.Err(), boom))
	assert.Equal(t, 1, calls)
}

func TestChainContinueOnFailure(t *testing.T) {
	calls := 0
	first, second := errors.New("first"), errors.New("second")
	// A failed command writes no output, so both read a fixed key instead of CtxIn.
	a := newAppend("a", "-a", first, &calls)
	a.InputParamName = "seed"
	b := newAppend("b", "-b", second, &calls)
	b.InputParamName = "seed"
	chain := cor.NewBaseChain("continue").AddCommand(a).AddCommand(b).ContinueOnFailure(true)

	ctx := cor.NewContext(context.Background())
	ctx.Add("seed", "start")
	chain.Execute(ctx)

	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, len(ctx.GetErrors()))
	assert.True(t, errors.Is(ctx.Err(), first))
	assert.True(t, errors.Is(ctx.Err(), second))
}

func TestChainSkipsCommandsWithoutInput(t *testing.T) {
	calls := 0
	chain := cor.NewBaseChain("skip").AddCommand(newAppend("a", "-a", nil, &calls))

	ctx := cor.NewContext(context.Background())
	chain.Execute(ctx)

	assert.Equal(t, 0, calls)
	assert.False(t, ctx.HasErrors())
}

func TestChainHonoursCancellation(t *testing.T) {
	calls := 0
	chain := cor.NewBaseChain("cancel").AddCommand(newAppend("a", "-a", nil, &calls))

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	ctx := cor.NewContext(cancelled)
	ctx.Add(cor.CtxIn, "start")
	chain.Execute(ctx)

	assert.Equal(t, 0, calls)
	assert.True(t, errors.Is(ctx.Err(), context.Canceled))
}
