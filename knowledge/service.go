package knowledge

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/hupe1980/serenitystar/core"
	"github.com/hupe1980/serenitystar/internal/transport"
	"github.com/hupe1980/serenitystar/logging"
)

const basePath = "volatileknowledge"

// ServiceOptions configures a Service.
type ServiceOptions struct {
	Logger logging.Logger
	Tracer trace.Tracer
}

// Service uploads volatile knowledge and polls its status. It holds no
// association state and is safe for concurrent use; use a Scope to bind
// uploads to the next execution of a handle.
type Service struct {
	tc     *transport.Client
	logger logging.Logger
	tracer trace.Tracer
}

// NewService constructs a Service on top of a transport client.
func NewService(tc *transport.Client, optFns ...func(o *ServiceOptions)) *Service {
	opts := ServiceOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Tracer == nil {
		opts.Tracer = noop.NewTracerProvider().Tracer("serenitystar")
	}
	return &Service{tc: tc, logger: opts.Logger, tracer: opts.Tracer}
}

// Upload sends one item. The request is validated before any network call.
func (s *Service) Upload(ctx context.Context, req UploadRequest, optFns ...func(o *UploadOptions)) (*Knowledge, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	opts := DefaultUploadOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	form := &transport.Multipart{}
	if req.File != nil {
		ct, err := ContentType(req.FileName)
		if err != nil {
			return nil, err
		}
		form.AddFile("File", req.FileName, ct, req.File)
	} else {
		form.AddField("Content", req.Content)
	}
	if req.CallbackURL != "" {
		form.AddField("CallbackUrl", req.CallbackURL)
	}

	query := url.Values{}
	query.Set("processEmbeddings", strconv.FormatBool(opts.ProcessEmbeddings))
	query.Set("noExpiration", strconv.FormatBool(opts.NoExpiration))
	if opts.ExpirationDays != nil {
		query.Set("expirationDays", strconv.Itoa(*opts.ExpirationDays))
	}

	ctx, span := s.tracer.Start(ctx, "serenitystar.knowledge.upload", trace.WithAttributes(
		attribute.Bool("serenitystar.knowledge.file", req.File != nil),
		attribute.String("serenitystar.knowledge.file_name", req.FileName),
	))
	defer span.End()

	start := time.Now()
	k, err := s.upload(ctx, query, form)
	logging.LogUpload(s.logger, req.FileName, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("serenitystar.knowledge.id", k.ID.String()))
	return k, nil
}

func (s *Service) upload(ctx context.Context, query url.Values, form *transport.Multipart) (*Knowledge, error) {
	resp, err := s.tc.PostMultipart(ctx, basePath, query, form)
	if err != nil {
		return nil, fmt.Errorf("upload volatile knowledge: %w", err)
	}
	var k Knowledge
	if err := transport.DecodeJSON(resp, &k); err != nil {
		return nil, fmt.Errorf("upload volatile knowledge: %w", err)
	}
	k.Status = Status(strings.ToLower(string(k.Status)))
	return &k, nil
}

// GetStatus fetches the current state of an uploaded item.
func (s *Service) GetStatus(ctx context.Context, id uuid.UUID) (*Knowledge, error) {
	if id == uuid.Nil {
		return nil, core.NewValidationError("id", "must not be empty")
	}
	resp, err := s.tc.Get(ctx, basePath+"/"+id.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("get volatile knowledge %s: %w", id, err)
	}
	var k Knowledge
	if err := transport.DecodeJSON(resp, &k); err != nil {
		return nil, fmt.Errorf("get volatile knowledge %s: %w", id, err)
	}
	k.Status = Status(strings.ToLower(string(k.Status)))
	return &k, nil
}

// WaitReady polls GetStatus every interval until the item reaches a final
// state or ctx is done.
func (s *Service) WaitReady(ctx context.Context, id uuid.UUID, interval time.Duration) (*Knowledge, error) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		k, err := s.GetStatus(ctx, id)
		if err != nil {
			return nil, err
		}
		if k.Status.Final() {
			return k, nil
		}
		select {
		case <-ctx.Done():
			return k, ctx.Err()
		case <-ticker.C:
		}
	}
}
