// Package telemetry exports command activity as OpenTelemetry spans and
// Prometheus metrics. Both exporters are command.Observers and are attached
// to a session with session.WithObserver.
package telemetry

import (
	"context"
	"fmt"
	"io"

	"github.com/entrhq/uirunner/pkg/command"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/entrhq/uirunner/pkg/command"

// Span attribute keys.
var (
	AttrCommandID      = attribute.Key("uirunner.command.id")
	AttrCommandName    = attribute.Key("uirunner.command.name")
	AttrCommandAttempt = attribute.Key("uirunner.command.attempt")
	AttrThinkTime      = attribute.Key("uirunner.command.think_ms")
	AttrTransitionTime = attribute.Key("uirunner.command.transition_ms")
	AttrExecutionTime  = attribute.Key("uirunner.command.execution_ms")
	AttrFailureKind    = attribute.Key("uirunner.failure.kind")
	AttrSessionID      = attribute.Key("uirunner.session.id")
)

// TracerProvider owns an SDK tracer provider.
type TracerProvider struct {
	provider *sdktrace.TracerProvider
}

// NewTracerProvider builds a provider exporting spans as JSON to w.
func NewTracerProvider(serviceName string, w io.Writer) (*TracerProvider, error) {
	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", serviceName),
		)),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	return &TracerProvider{provider: provider}, nil
}

// Provider returns the underlying provider.
func (tp *TracerProvider) Provider() trace.TracerProvider {
	return tp.provider
}

// Shutdown flushes pending spans and stops the exporter.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	return tp.provider.Shutdown(ctx)
}

// Tracer turns every command into a span. Nested commands become child
// spans of the command that encloses them.
type Tracer struct {
	tracer    trace.Tracer
	root      context.Context
	sessionID string
	open      []openSpan
}

type openSpan struct {
	id   string
	ctx  context.Context
	span trace.Span
}

// TracerOption configures a Tracer.
type TracerOption func(*Tracer)

// WithParent makes top-level command spans children of the span in ctx.
func WithParent(ctx context.Context) TracerOption {
	return func(t *Tracer) { t.root = ctx }
}

// WithSessionID tags every span with the session id.
func WithSessionID(id string) TracerOption {
	return func(t *Tracer) { t.sessionID = id }
}

// NewTracer returns a command observer emitting spans through tp.
func NewTracer(tp trace.TracerProvider, opts ...TracerOption) *Tracer {
	t := &Tracer{
		tracer: tp.Tracer(tracerName),
		root:   context.Background(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracer) parent() context.Context {
	if n := len(t.open); n > 0 {
		return t.open[n-1].ctx
	}
	return t.root
}

func (t *Tracer) CommandStarted(cmd command.Command) {
	attrs := []attribute.KeyValue{
		AttrCommandID.String(cmd.ID),
		AttrCommandName.String(cmd.Name),
		AttrCommandAttempt.Int(cmd.Attempts),
	}
	if t.sessionID != "" {
		attrs = append(attrs, AttrSessionID.String(t.sessionID))
	}
	ctx, span := t.tracer.Start(t.parent(), cmd.Name,
		trace.WithTimestamp(cmd.Start),
		trace.WithAttributes(attrs...),
	)
	t.open = append(t.open, openSpan{id: cmd.ID, ctx: ctx, span: span})
}

func (t *Tracer) CommandFinished(cmd command.Command) {
	idx := -1
	for i := len(t.open) - 1; i >= 0; i-- {
		if t.open[i].id == cmd.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	span := t.open[idx].span
	t.open = append(t.open[:idx], t.open[idx+1:]...)

	span.SetAttributes(
		AttrThinkTime.Int64(cmd.ThinkTime.Milliseconds()),
		AttrTransitionTime.Int64(cmd.TransitionTime.Milliseconds()),
		AttrExecutionTime.Int64(cmd.ExecutionTime.Milliseconds()),
	)
	if cmd.Failure != nil {
		span.SetAttributes(AttrFailureKind.String(cmd.Failure.Kind))
		err := cmd.Failure.Cause
		if err == nil {
			err = cmd.Failure
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, cmd.Failure.Message)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(cmd.Stop))
}

var _ command.Observer = (*Tracer)(nil)
