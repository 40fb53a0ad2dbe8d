// Package telemetry provides the observability instrumentation of confsync.
//
// It combines structured logging (zerolog), tracing (OpenTelemetry) and
// metrics (Prometheus). A Telemetry value is built once per command from the
// tool settings:
//
//	tel, err := telemetry.NewTelemetry(telemetry.ConfigFromSettings(settings, version))
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	ctx = tel.WithContext(ctx)
//
// # Logging
//
// Logger wraps zerolog.Logger with component loggers and domain fields:
//
//	logger := tel.Logger.NewComponentLogger("import").WithPlanID(plan.ID)
//	logger.Info("Plan built.")
//
// Zerolog exposes the underlying logger for engine.WithLogger and the store
// constructors.
//
// # Tracing
//
// NewTracer installs a global tracer provider, so the spans opened by the
// engine (plan.build, plan.apply, operation.apply) are exported by the
// configured exporter: none, stdout or otlp over gRPC.
//
// # Metrics
//
// Metrics implements engine.MetricsRecorder. The collectors live in a
// private registry and are written in Prometheus text format to the metrics
// file on Shutdown:
//
//	confsync_plan_operations{operation}
//	confsync_validation_findings_total{category}
//	confsync_cycles_broken_total
//	confsync_operations_applied_total{operation,status}
//	confsync_operation_duration_seconds{operation}
//	confsync_apply_duration_seconds{status}
//	confsync_applies_total{status}
package telemetry
