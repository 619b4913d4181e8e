package main

import (
	"context"
	"time"

	"github.com/dormbill/backend/internal/infrastructure/config"
	"github.com/dormbill/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

type telemetryStack struct {
	log      *zap.Logger
	meters   *telemetry.MeterProvider
	shutdown func()
}

// setupTelemetry starts tracing, metrics, OTLP log export and profiling.
// A provider that cannot start is logged and replaced by its no-op form so
// the server still comes up.
func setupTelemetry(ctx context.Context, cfg *config.Config, base *zap.Logger) telemetryStack {
	tc := cfg.Telemetry
	var closers []func(context.Context) error

	tracer, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           tc.Enabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		SamplingRatio:     tc.SamplingRatio,
		ServiceName:       tc.ServiceName,
		Insecure:          tc.Insecure,
	}, base)
	if err != nil {
		base.Warn("Tracing disabled", zap.Error(err))
		tracer = nil
	} else {
		closers = append(closers, tracer.Shutdown)
	}

	meters, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           tc.Enabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		ExportInterval:    tc.MetricsInterval,
		ServiceName:       tc.ServiceName,
		Insecure:          tc.Insecure,
	}, base)
	if err != nil {
		base.Warn("Metrics disabled", zap.Error(err))
		meters, _ = telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{}, base)
	} else {
		closers = append(closers, meters.Shutdown)
	}

	log := base
	logs, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           tc.Enabled && tc.LogExport,
		CollectorEndpoint: tc.CollectorEndpoint,
		ServiceName:       tc.ServiceName,
		Insecure:          tc.Insecure,
	}, base)
	switch {
	case err != nil:
		base.Warn("Log export disabled", zap.Error(err))
	case logs.IsEnabled():
		// the bridge core follows the base core's level, including runtime changes
		log = telemetry.BridgeLogger(base, telemetry.NewZapOTELCore(tc.ServiceName, logs, base.Core()))
		closers = append(closers, logs.Shutdown)
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           tc.ProfilingEnabled,
		ServerAddress:     tc.PyroscopeServer,
		ApplicationName:   tc.ServiceName,
		ProfileCPU:        true,
		ProfileAllocSpace: true,
		ProfileInuseSpace: true,
		ProfileGoroutines: true,
	}, log)
	if err != nil {
		log.Warn("Profiling disabled", zap.Error(err))
	} else if profiler.IsEnabled() {
		if tracer != nil && tracer.IsEnabled() {
			tracer.EnableSpanProfiles()
		}
		closers = append(closers, func(context.Context) error { return profiler.Stop() })
	}

	return telemetryStack{
		log:    log,
		meters: meters,
		shutdown: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			for i := len(closers) - 1; i >= 0; i-- {
				if err := closers[i](ctx); err != nil {
					base.Warn("Telemetry shutdown failed", zap.Error(err))
				}
			}
		},
	}
}
