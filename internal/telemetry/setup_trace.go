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

// Package telemetry provides utilities for setting up and configuring
// application observability, including logging, tracing, and metrics.
// This file builds the OpenTelemetry providers. With export enabled, spans go
// to Cloud Trace and metrics to Cloud Monitoring; without it the providers
// still run so pipeline spans and counters work locally.
package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	mexporter "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/metric"
	texporter "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/trace"
	"github.com/jaycherian/gcp-go-media-gallery/internal/cloud"
	"go.opentelemetry.io/contrib/detectors/gcp"
	"go.opentelemetry.io/contrib/propagators/autoprop"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

// SetupOpenTelemetry registers the global propagator, tracer provider and
// meter provider for the gallery.
//
// Inputs:
//   - ctx: Used while detecting the resource.
//   - config: Supplies the service name, project and the [telemetry] section.
//
// Returns:
//   - shutdown: Flushes and stops both providers; call it on exit.
//   - err: Resource detection or exporter creation failed.
func SetupOpenTelemetry(ctx context.Context, config *cloud.Config) (shutdown func(context.Context) error, err error) {
	res, err := newResource(ctx, config.Application.Name)
	if err != nil {
		return nil, err
	}
	otel.SetTextMapPropagator(autoprop.NewTextMapPropagator())

	tp, err := NewTracerProvider(res, config)
	if err != nil {
		return nil, err
	}
	mp, err := NewMeterProvider(res, config)
	if err != nil {
		return nil, errors.Join(err, tp.Shutdown(ctx))
	}
	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	slog.InfoContext(ctx, "telemetry providers registered",
		"export", config.Telemetry.Export,
		"sampleRatio", config.Telemetry.TraceSampleRatio)

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}

// newResource describes this process. Partial detection off GCP is expected
// and only logged.
func newResource(ctx context.Context, serviceName string) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithDetectors(gcp.NewDetector()),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(semconv.ServiceNameKey.String(serviceName)),
	)
	if errors.Is(err, resource.ErrPartialResource) || errors.Is(err, resource.ErrSchemaURLConflict) {
		slog.WarnContext(ctx, "partial resource detection", "error", err)
		return res, nil
	}
	return res, err
}

// NewTracerProvider samples new traces at the configured ratio and honors
// the parent's decision for propagated ones.
func NewTracerProvider(res *resource.Resource, config *cloud.Config) (*sdktrace.TracerProvider, error) {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(config.Telemetry.TraceSampleRatio))),
	}
	if config.Telemetry.Export {
		exporter, err := texporter.New(texporter.WithProjectID(config.Application.GoogleProjectId))
		if err != nil {
			return nil, err
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}
	return sdktrace.NewTracerProvider(opts...), nil
}

// NewMeterProvider exports on the configured interval. Without export it has
// no reader and the gallery's counters are no-ops.
func NewMeterProvider(res *resource.Resource, config *cloud.Config) (*metric.MeterProvider, error) {
	opts := []metric.Option{metric.WithResource(res)}
	if config.Telemetry.Export {
		exporter, err := mexporter.New(mexporter.WithProjectID(config.Application.GoogleProjectId))
		if err != nil {
			return nil, err
		}
		interval := time.Duration(config.Telemetry.MetricIntervalSeconds) * time.Second
		if interval <= 0 {
			interval = time.Minute
		}
		opts = append(opts, metric.WithReader(metric.NewPeriodicReader(exporter, metric.WithInterval(interval))))
	}
	return metric.NewMeterProvider(opts...), nil
}
