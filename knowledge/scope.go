package knowledge

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DefaultUploadConcurrency bounds UploadAll when no limit is given.
const DefaultUploadConcurrency = 4

// Scope accumulates the ids of items uploaded for the next execution of one
// handle (an activity, a conversation or a proxy). The owning handle reads
// the queue when it builds its request and clears it as soon as the request
// has been dispatched, so every upload is sent exactly once.
//
// A Scope is not safe for concurrent use.
type Scope struct {
	svc     *Service
	pending []uuid.UUID
}

// NewScope creates an empty scope backed by svc.
func NewScope(svc *Service) *Scope { return &Scope{svc: svc} }

// Upload sends an item and, on success, queues its id for the next execution.
// An invalid request fails before any network call and leaves the queue
// untouched.
func (s *Scope) Upload(ctx context.Context, req UploadRequest, optFns ...func(o *UploadOptions)) (*Knowledge, error) {
	k, err := s.svc.Upload(ctx, req, optFns...)
	if err != nil {
		return nil, err
	}
	s.pending = append(s.pending, k.ID)
	return k, nil
}

// UploadAll sends several items with at most limit uploads in flight
// (DefaultUploadConcurrency when limit <= 0). Every request is validated
// before anything is sent. The ids of successful uploads are queued in
// request order, even when another upload failed; the first error is
// returned and the remaining uploads are cancelled.
func (s *Scope) UploadAll(ctx context.Context, reqs []UploadRequest, limit int, optFns ...func(o *UploadOptions)) ([]*Knowledge, error) {
	for _, req := range reqs {
		if err := req.Validate(); err != nil {
			return nil, err
		}
	}
	if limit <= 0 {
		limit = DefaultUploadConcurrency
	}

	results := make([]*Knowledge, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, req := range reqs {
		g.Go(func() error {
			k, err := s.svc.Upload(gctx, req, optFns...)
			if err != nil {
				return err
			}
			results[i] = k
			return nil
		})
	}
	err := g.Wait()

	for _, k := range results {
		if k != nil {
			s.pending = append(s.pending, k.ID)
		}
	}
	return results, err
}

// GetStatus is a read-through call; it does not touch the queue.
func (s *Scope) GetStatus(ctx context.Context, id uuid.UUID) (*Knowledge, error) {
	return s.svc.GetStatus(ctx, id)
}

// Add queues an id uploaded elsewhere (for example through the standalone
// Service).
func (s *Scope) Add(ids ...uuid.UUID) { s.pending = append(s.pending, ids...) }

// IDs returns the pending ids as strings, in upload order.
func (s *Scope) IDs() []string {
	if len(s.pending) == 0 {
		return nil
	}
	out := make([]string, len(s.pending))
	for i, id := range s.pending {
		out[i] = id.String()
	}
	return out
}

// Len returns the number of pending ids.
func (s *Scope) Len() int { return len(s.pending) }

// Clear empties the queue. Clearing an empty queue is a no-op.
func (s *Scope) Clear() { s.pending = nil }
