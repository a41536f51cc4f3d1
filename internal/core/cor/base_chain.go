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

// Package cor (Chain of Responsibility) provides the fundamental building blocks
// for the gallery's pipelines. This file defines `BaseChain`, the default
// implementation of the `Chain` interface.
//
// Logic Flow:
//  1. A span is opened for the whole chain.
//  2. Commands run in order, each under its own child span.
//  3. Once a command records an error the remaining commands are skipped,
//     unless the chain was configured to continue on failure.
//  4. A command whose IsExecutable is false is skipped; that is not a failure.
//  5. After each command its CtxOut value is moved to CtxIn for the next one.
//  6. The chain span is closed with the final status.
package cor

import (
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/codes"
)

// BaseChain holds an ordered list of commands to run sequentially.
type BaseChain struct {
	BaseCommand
	continueOnFailure bool
	commands          []Command
}

// NewBaseChain is the constructor for BaseChain.
//
// Inputs:
//   - name: A string name for this chain instance, used for logging and telemetry.
//
// Outputs:
//   - *BaseChain: A pointer to the newly instantiated chain.
func NewBaseChain(name string) *BaseChain {
	return &BaseChain{BaseCommand: *NewBaseCommand(name)}
}

// ContinueOnFailure sets whether later commands still run after a failure.
func (c *BaseChain) ContinueOnFailure(continueOnFailure bool) Chain {
	c.continueOnFailure = continueOnFailure
	return c
}

// AddCommand appends a command to the chain.
func (c *BaseChain) AddCommand(command Command) Chain {
	c.commands = append(c.commands, command)
	return c
}

// IsExecutable only requires a bound Go context; each command checks its own input.
func (c *BaseChain) IsExecutable(context Context) bool {
	return context != nil && context.GetContext() != nil
}

// Execute runs the chain's commands in order.
//
// Inputs:
//   - chCtx: The shared `cor.Context` for the entire run.
func (c *BaseChain) Execute(chCtx Context) {
	parentCtx := chCtx.GetContext()
	outerCtx, chainSpan := c.Tracer.Start(parentCtx, fmt.Sprintf("%s_execute", c.GetName()))
	defer func() {
		chCtx.SetContext(parentCtx)
		chainSpan.End()
	}()

	for _, command := range c.commands {
		if chCtx.HasErrors() && !c.continueOnFailure {
			slog.DebugContext(outerCtx, "skipping command after failure", "chain", c.GetName(), "command", command.GetName())
			break
		}
		if err := outerCtx.Err(); err != nil {
			chCtx.AddError(c.GetName(), err)
			break
		}

		commandContext, commandSpan := c.Tracer.Start(outerCtx, command.GetName())
		chCtx.SetContext(commandContext)

		if command.IsExecutable(chCtx) {
			before := len(chCtx.GetErrors())
			command.Execute(chCtx)
			if len(chCtx.GetErrors()) > before {
				commandSpan.SetStatus(codes.Error, "command recorded an error")
			} else {
				commandSpan.SetStatus(codes.Ok, "")
			}
		} else {
			commandSpan.AddEvent("skipped: not executable")
		}
		commandSpan.End()
		chCtx.SetContext(outerCtx)

		// Pipe this command's output into the next command's input.
		outputValue := chCtx.Get(CtxOut)
		chCtx.Remove(CtxIn)
		if outputValue != nil {
			chCtx.Add(CtxIn, outputValue)
		}
		chCtx.Remove(CtxOut)
	}

	if chCtx.HasErrors() {
		chainSpan.SetStatus(codes.Error, "chain failed")
		if c.ErrorCounter != nil {
			c.ErrorCounter.Add(outerCtx, 1)
		}
	} else {
		chainSpan.SetStatus(codes.Ok, "")
		if c.SuccessCounter != nil {
			c.SuccessCounter.Add(outerCtx, 1)
		}
	}
}
