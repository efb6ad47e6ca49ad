package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/hupe1980/serenitystar/core"
	"github.com/hupe1980/serenitystar/internal/transport"
	"github.com/hupe1980/serenitystar/knowledge"
	"github.com/hupe1980/serenitystar/logging"
	"github.com/hupe1980/serenitystar/stream"
)

// Options configures the scopes and the handles they create.
type Options struct {
	Logger logging.Logger
	Tracer trace.Tracer
	// StrictStream surfaces undecodable stream frames as synthetic
	// ErrorEvents instead of skipping them.
	StrictStream bool
}

// executor runs agent executions for every kind. It is shared by all handles
// created from the same client and holds no per-handle state.
type executor struct {
	tc        *transport.Client
	knowledge *knowledge.Service
	logger    logging.Logger
	tracer    trace.Tracer
	strict    bool
}

func newExecutor(tc *transport.Client, ks *knowledge.Service, optFns ...func(o *Options)) *executor {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Tracer == nil {
		opts.Tracer = noop.NewTracerProvider().Tracer("serenitystar")
	}
	return &executor{tc: tc, knowledge: ks, logger: opts.Logger, tracer: opts.Tracer, strict: opts.StrictStream}
}

// target names the agent an execution is sent to.
type target struct {
	kind    Kind
	code    string
	version *int
}

func (t target) validate() error {
	if t.code == "" {
		return core.NewValidationError("agentCode", "must not be empty")
	}
	if t.version != nil && *t.version <= 0 {
		return core.NewValidationError("agentVersion", "must be positive")
	}
	return nil
}

func (t target) executePath() string {
	p := "agent/" + t.code + "/execute"
	if t.version != nil {
		p += "/" + strconv.Itoa(*t.version)
	}
	return p
}

func (e *executor) startSpan(ctx context.Context, t target, streaming bool) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("serenitystar.agent.code", t.code),
		attribute.String("serenitystar.agent.kind", string(t.kind)),
		attribute.Bool("serenitystar.stream", streaming),
	}
	if t.version != nil {
		attrs = append(attrs, attribute.Int("serenitystar.agent.version", *t.version))
	}
	return e.tracer.Start(ctx, "serenitystar.agent.execute", trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// execute performs a non-streaming execution. The frame is built and
// validated before anything is sent.
func (e *executor) execute(ctx context.Context, t target, b FrameBuilder) (*core.AgentResult, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	frame, err := b.BuildFrame(false)
	if err != nil {
		return nil, err
	}

	ctx, span := e.startSpan(ctx, t, false)
	start := time.Now()
	result, err := e.post(ctx, t, frame, b)
	logging.LogAgentCall(e.logger, t.code, string(t.kind), false, time.Since(start), err)
	if err == nil && result.InstanceID != "" {
		span.SetAttributes(attribute.String("serenitystar.instance_id", result.InstanceID))
	}
	endSpan(span, err)
	return result, err
}

func (e *executor) post(ctx context.Context, t target, frame Frame, b FrameBuilder) (*core.AgentResult, error) {
	resp, err := e.tc.PostJSON(ctx, t.executePath(), nil, frame)
	if err != nil {
		dispatchedOnHTTPError(err, b)
		return nil, fmt.Errorf("execute %s %s: %w", t.kind, t.code, err)
	}
	b.OnDispatched()

	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("execute %s %s: read response: %w", t.kind, t.code, err)
	}
	result, err := core.DecodeAgentResult(body)
	if err != nil {
		return nil, fmt.Errorf("execute %s %s: %w", t.kind, t.code, err)
	}
	return result, nil
}

// stream performs a streaming execution. On success the returned reader owns
// the response body; the span and the call log entry are completed when the
// reader ends. observe, when set, sees every event the caller pulls.
func (e *executor) stream(ctx context.Context, t target, b FrameBuilder, observe func(core.StreamEvent)) (*stream.Reader, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	frame, err := b.BuildFrame(true)
	if err != nil {
		return nil, err
	}

	ctx, span := e.startSpan(ctx, t, true)
	start := time.Now()
	resp, err := e.tc.PostJSONStream(ctx, t.executePath(), nil, frame)
	if err != nil {
		dispatchedOnHTTPError(err, b)
		err = fmt.Errorf("stream %s %s: %w", t.kind, t.code, err)
		logging.LogAgentCall(e.logger, t.code, string(t.kind), true, time.Since(start), err)
		endSpan(span, err)
		return nil, err
	}
	b.OnDispatched()

	return stream.NewReader(ctx, resp.Body, func(o *stream.Options) {
		o.Logger = e.logger
		o.Strict = e.strict
		o.OnEvent = func(ev core.StreamEvent) {
			if stop, ok := ev.(core.StopEvent); ok {
				if id := stop.ContinuityID(); id != "" {
					span.SetAttributes(attribute.String("serenitystar.instance_id", id))
				}
			}
			if observe != nil {
				observe(ev)
			}
		}
		o.OnClose = func(err error) {
			logging.LogAgentCall(e.logger, t.code, string(t.kind), true, time.Since(start), err)
			endSpan(span, err)
		}
	}), nil
}

// dispatchedOnHTTPError releases single-use state when the service answered,
// even with an error status: the request reached it. Transport failures and
// cancellation before a response leave the state untouched.
func dispatchedOnHTTPError(err error, b FrameBuilder) {
	var he *core.HTTPError
	if errors.As(err, &he) {
		b.OnDispatched()
	}
}
