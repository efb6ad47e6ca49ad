package stream

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"iter"
	"sync"
	"time"

	"github.com/hupe1980/serenitystar/core"
	"github.com/hupe1980/serenitystar/logging"
)

var (
	dataPrefix   = []byte("data: ")
	doneSentinel = []byte("[DONE]")
)

// Options configures a Reader.
type Options struct {
	// Logger receives debug entries for skipped frames.
	Logger logging.Logger
	// Strict surfaces undecodable frames as synthetic ErrorEvents instead of
	// skipping them.
	Strict bool
	// OnEvent observes every event right before Next returns it.
	OnEvent func(core.StreamEvent)
	// OnClose is called exactly once when the sequence ends, with the error
	// reported by Err (nil for a clean end).
	OnClose func(err error)
}

// Reader turns a streaming response body into a forward-only sequence of
// StreamEvents. The first event is always a StartEvent. The sequence ends at
// the [DONE] sentinel, at end of input, after a terminal event, or when the
// context is cancelled.
//
//	r := stream.NewReader(ctx, resp.Body)
//	defer r.Close()
//	for r.Next() {
//		handle(r.Current())
//	}
//	if err := r.Err(); err != nil { ... }
//
// A Reader is not safe for concurrent use.
type Reader struct {
	ctx  context.Context
	body io.ReadCloser
	br   *bufio.Reader
	opts Options

	stopCancel func() bool

	cur      core.StreamEvent
	err      error
	result   *core.AgentResult
	started  bool
	terminal bool
	stopped  bool
	done     bool

	closeOnce sync.Once
	closeErr  error
}

// NewReader wraps body. The reader owns the body and closes it when the
// sequence ends or Close is called. Cancelling ctx closes the body, which
// unblocks a pending read.
func NewReader(ctx context.Context, body io.ReadCloser, optFns ...func(o *Options)) *Reader {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	r := &Reader{
		ctx:  ctx,
		body: body,
		br:   bufio.NewReader(body),
		opts: opts,
	}
	r.stopCancel = context.AfterFunc(ctx, func() { _ = r.closeBody() })
	return r
}

// Next advances to the next event and reports whether one is available.
func (r *Reader) Next() bool {
	if r.done {
		return false
	}
	if err := r.ctx.Err(); err != nil {
		r.finish(err)
		return false
	}
	if r.terminal {
		r.finish(nil)
		return false
	}
	if !r.started {
		r.started = true
		return r.emit(core.StartEvent{StartTime: time.Now().UTC()})
	}

	for {
		line, readErr := r.br.ReadBytes('\n')
		if len(line) > 0 {
			ev, end := r.parseLine(line)
			if end {
				r.finish(nil)
				return false
			}
			if ev != nil {
				return r.emit(ev)
			}
		}
		if readErr != nil {
			if ctxErr := r.ctx.Err(); ctxErr != nil {
				r.finish(ctxErr)
			} else if errors.Is(readErr, io.EOF) {
				r.finish(nil)
			} else {
				r.finish(readErr)
			}
			return false
		}
	}
}

// Current returns the event produced by the last successful call to Next.
func (r *Reader) Current() core.StreamEvent { return r.cur }

// Err returns the error that ended the sequence, if any. A cancelled context
// yields ctx.Err(). Reaching the end of input without a StopEvent is not an
// error; use Stopped to detect it.
func (r *Reader) Err() error { return r.err }

// Stopped reports whether a StopEvent was observed.
func (r *Reader) Stopped() bool { return r.stopped }

// Result returns the result carried by the StopEvent, or nil if none was
// observed yet.
func (r *Reader) Result() *core.AgentResult { return r.result }

// Close releases the underlying body. It is safe to call more than once and
// after the sequence has ended.
func (r *Reader) Close() error {
	if !r.done {
		r.finish(nil)
	}
	return r.closeErr
}

// All adapts the reader to a range-over-func sequence. A final (nil, err)
// pair is yielded when the sequence ended with an error. The reader is
// closed when iteration stops.
func (r *Reader) All() iter.Seq2[core.StreamEvent, error] {
	return func(yield func(core.StreamEvent, error) bool) {
		defer func() { _ = r.Close() }()
		for r.Next() {
			if !yield(r.Current(), nil) {
				return
			}
		}
		if err := r.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// Collect drains the reader and returns every event. It is mainly useful in
// tests and small scripts.
func Collect(r *Reader) ([]core.StreamEvent, error) {
	var events []core.StreamEvent
	for ev, err := range r.All() {
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// parseLine returns the event for one raw line, or nil when the line carries
// none. end reports the [DONE] sentinel.
func (r *Reader) parseLine(line []byte) (ev core.StreamEvent, end bool) {
	line = bytes.TrimRight(line, "\r\n")
	if len(bytes.TrimSpace(line)) == 0 || !bytes.HasPrefix(line, dataPrefix) {
		return nil, false
	}
	payload := bytes.TrimSpace(line[len(dataPrefix):])
	if bytes.Equal(payload, doneSentinel) {
		return nil, true
	}

	ev, err := DecodeFrame(payload)
	if err != nil {
		r.opts.Logger.Debug("Skipping stream frame", "error", err.Error(), "payload_size", len(payload))
		if r.opts.Strict {
			return core.ErrorEvent{Message: err.Error(), Synthetic: true}, false
		}
		return nil, false
	}
	if _, ok := ev.(core.StartEvent); ok {
		// The opening StartEvent is produced locally.
		return nil, false
	}
	if e, ok := ev.(core.ErrorEvent); ok && e.Synthetic {
		r.opts.Logger.Debug("Unsupported stream frame", "type", e.RawType)
	}
	return ev, false
}

func (r *Reader) emit(ev core.StreamEvent) bool {
	r.cur = ev
	if stop, ok := ev.(core.StopEvent); ok {
		r.stopped = true
		r.result = stop.Result
	}
	if core.IsTerminal(ev) {
		r.terminal = true
	}
	if r.opts.OnEvent != nil {
		r.opts.OnEvent(ev)
	}
	return true
}

func (r *Reader) finish(err error) {
	r.done = true
	r.cur = nil
	r.err = err
	r.stopCancel()
	r.closeErr = r.closeBody()
	if r.opts.OnClose != nil {
		r.opts.OnClose(err)
	}
}

func (r *Reader) closeBody() error {
	var err error
	r.closeOnce.Do(func() { err = r.body.Close() })
	return err
}
