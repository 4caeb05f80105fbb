package main

import (
	"github.com/getsentry/sentry-go"

	"github.com/wavecraft/wavecraft/internal/config"
	"github.com/wavecraft/wavecraft/internal/errors"
	"github.com/wavecraft/wavecraft/internal/events"
	"github.com/wavecraft/wavecraft/internal/metrics"
)

// metricsConsumer forwards asynchronously-published errors into a
// metrics.Recorder, decoupling error telemetry from the call site that
// built the error.
type metricsConsumer struct {
	recorder metrics.Recorder
}

func (c *metricsConsumer) Name() string { return "metrics" }

func (c *metricsConsumer) ProcessEvent(event events.ErrorEvent) error {
	c.recorder.RecordError(event.GetComponent(), event.GetCategory())
	return nil
}

func (c *metricsConsumer) ProcessBatch(evts []events.ErrorEvent) error {
	for _, e := range evts {
		_ = c.ProcessEvent(e)
	}
	return nil
}

func (c *metricsConsumer) SupportsBatching() bool { return true }

// initTelemetry wires the error-event bus to the metrics recorder: every
// EnhancedError built anywhere in the process is forwarded here without the
// call site blocking on or even knowing about Prometheus.
func initTelemetry(recorder metrics.Recorder) error {
	bus, err := events.Initialize(events.DefaultConfig())
	if err != nil || bus == nil {
		return err
	}

	if err := bus.RegisterConsumer(&metricsConsumer{recorder: recorder}); err != nil {
		return err
	}

	return events.InitializeErrorsIntegration(func(publisher any) {
		if p, ok := publisher.(errors.EventPublisher); ok {
			errors.SetEventPublisher(p)
		}
	})
}

// sentryReporter forwards EnhancedErrors built anywhere in the process to
// Sentry, scoped by component/category/context so crashes surfaced through
// the plugin scanner's crash-isolation path (and anywhere else an
// EnhancedError is built) get a remote stack trace without the call site
// importing sentry-go itself.
type sentryReporter struct {
	enabled bool
}

func (r *sentryReporter) Report(ee *errors.EnhancedError) {
	if !r.enabled || ee.IsReported() {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", ee.GetComponent())
		scope.SetTag("category", ee.GetCategory())
		for k, v := range ee.GetContext() {
			scope.SetContext(k, map[string]any{"value": v})
		}
		sentry.CaptureException(ee.GetError())
	})
	ee.MarkReported()
}

// initSentry starts the Sentry client when telemetry.sentryenabled is set
// and a DSN is configured, and installs a sentryReporter as the errors
// package's telemetry sink. With Sentry disabled or no DSN this is a no-op;
// an error from sentry.Init (e.g. a malformed DSN) is returned to the caller.
func initSentry(settings *config.Settings) error {
	if settings == nil || !settings.Telemetry.SentryEnabled || settings.Telemetry.SentryDSN == "" {
		return nil
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              settings.Telemetry.SentryDSN,
		SampleRate:       settings.Telemetry.SentrySampleRate,
		AttachStacktrace: true,
	}); err != nil {
		return err
	}

	errors.SetTelemetryReporter(&sentryReporter{enabled: true})
	return nil
}
