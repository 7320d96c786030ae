package receiver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"iter"
	"net"
	"sync"
	"time"

	"github.com/backkem/ssdp/pkg/header"
	"github.com/backkem/ssdp/pkg/message"
	"github.com/backkem/ssdp/pkg/metrics"
	"github.com/benbjohnson/clock"
	"github.com/pion/logging"
	"go.uber.org/multierr"
)

// Filter decides whether an accepted message is yielded. Returning false
// drops it.
type Filter func(m *message.Message) bool

// Config configures a Receiver.
type Config struct {
	// Timeout bounds the receiver's lifetime, measured from New.
	// Zero means no deadline.
	Timeout time.Duration

	// Clock supplies the deadline timer. If nil, the real clock is used.
	Clock clock.Clock

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory

	// Registry is attached to every yielded message for typed header access.
	// If nil, header.Default is used.
	Registry *header.Registry

	// Metrics records datagram outcomes. May be nil.
	Metrics *metrics.Metrics

	// Filter is applied to every message that parsed as the expected kind.
	Filter Filter
}

type datagram struct {
	data []byte
	from net.Addr
}

// Receiver yields the messages of kind K that arrive on a set of sockets.
// It owns the sockets and closes them once it is exhausted.
//
// A Receiver is meant for a single consumer. Close may be called from any
// goroutine.
type Receiver[K message.Kind] struct {
	conns    []net.PacketConn
	items    chan datagram
	done     chan struct{}
	dead     chan struct{}
	timer    *clock.Timer
	deadline <-chan time.Time
	kind     string

	log      logging.LeveledLogger
	metrics  *metrics.Metrics
	registry *header.Registry
	filter   Filter

	wg        sync.WaitGroup
	mu        sync.Mutex
	exhausted bool
	closeErr  error
}

// New starts receiving on conns. Each socket gets its own reader, which
// holds at most one datagram until Next takes it; ready sockets are
// therefore served in turn.
func New[K message.Kind](conns []net.PacketConn, config Config) *Receiver[K] {
	var k K
	r := &Receiver[K]{
		conns:    conns,
		items:    make(chan datagram),
		done:     make(chan struct{}),
		dead:     make(chan struct{}),
		kind:     k.MessageType().String(),
		metrics:  config.Metrics,
		registry: config.Registry,
		filter:   config.Filter,
	}

	if config.LoggerFactory != nil {
		r.log = config.LoggerFactory.NewLogger("ssdp-receiver")
	}

	if config.Timeout > 0 {
		clk := config.Clock
		if clk == nil {
			clk = clock.New()
		}
		r.timer = clk.Timer(config.Timeout)
		r.deadline = r.timer.C
	}

	r.wg.Add(len(conns))
	for _, conn := range conns {
		go r.read(conn)
	}
	go func() {
		r.wg.Wait()
		close(r.dead)
	}()

	if r.log != nil {
		r.log.Debugf("receiving %s on %d sockets, timeout %v", r.kind, len(conns), config.Timeout)
	}

	return r
}

func (r *Receiver[K]) read(conn net.PacketConn) {
	defer r.wg.Done()

	buf := make([]byte, message.MaxDatagramSize)
	for {
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			select {
			case <-r.done:
			default:
				if r.log != nil {
					r.log.Debugf("socket %s stopped: %v", conn.LocalAddr(), err)
				}
			}
			return
		}

		select {
		case r.items <- datagram{data: bytes.Clone(buf[:n]), from: from}:
		case <-r.done:
			return
		}
	}
}

// Next blocks until a message of kind K arrives and returns it.
// Datagrams that are malformed, of another kind or rejected by the filter
// are dropped. Once the deadline passes, ctx ends, every socket has failed
// or Close is called, Next returns ErrExhausted, and keeps doing so.
func (r *Receiver[K]) Next(ctx context.Context) (*message.Typed[K], error) {
	for {
		if r.Exhausted() {
			return nil, ErrExhausted
		}

		select {
		case d := <-r.items:
			if m := r.accept(d); m != nil {
				return m, nil
			}
		case <-r.deadline:
			r.exhaust("deadline passed")
		case <-r.dead:
			r.exhaust("all sockets failed")
		case <-r.done:
		case <-ctx.Done():
			r.exhaust("context done")
			return nil, fmt.Errorf("%w: %w", ErrExhausted, ctx.Err())
		}
	}
}

func (r *Receiver[K]) accept(d datagram) *message.Typed[K] {
	m, err := message.ParseTyped[K](d.data, d.from)
	if err != nil {
		result := metrics.ResultMalformed
		if errors.Is(err, message.ErrKindMismatch) {
			result = metrics.ResultMismatch
		}
		r.metrics.Received(r.kind, result)
		if r.log != nil {
			r.log.Tracef("dropping datagram from %v: %v", d.from, err)
		}
		return nil
	}

	m.Message().SetRegistry(r.registry)

	if r.filter != nil && !r.filter(m.Message()) {
		r.metrics.Received(r.kind, metrics.ResultFiltered)
		if r.log != nil {
			r.log.Tracef("filtered %s from %v", r.kind, d.from)
		}
		return nil
	}

	r.metrics.Received(r.kind, metrics.ResultAccepted)
	if r.log != nil {
		r.log.Tracef("received %s from %v", r.kind, d.from)
	}
	return m
}

// All returns an iterator over the remaining messages. Iteration ends when
// the receiver is exhausted.
func (r *Receiver[K]) All(ctx context.Context) iter.Seq[*message.Typed[K]] {
	return func(yield func(*message.Typed[K]) bool) {
		for {
			m, err := r.Next(ctx)
			if err != nil {
				return
			}
			if !yield(m) {
				return
			}
		}
	}
}

// Collect drains the receiver into a slice.
func (r *Receiver[K]) Collect(ctx context.Context) []*message.Typed[K] {
	var out []*message.Typed[K]
	for m := range r.All(ctx) {
		out = append(out, m)
	}
	return out
}

// Exhausted reports whether the receiver has stopped.
func (r *Receiver[K]) Exhausted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.exhausted
}

// Close stops the receiver, closes its sockets and waits for its readers to
// exit. It is safe to call more than once.
func (r *Receiver[K]) Close() error {
	r.exhaust("closed")
	<-r.dead

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closeErr
}

func (r *Receiver[K]) exhaust(reason string) {
	r.mu.Lock()
	if r.exhausted {
		r.mu.Unlock()
		return
	}
	r.exhausted = true
	close(r.done)
	if r.timer != nil {
		r.timer.Stop()
	}

	var errs error
	for _, conn := range r.conns {
		if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = multierr.Append(errs, err)
		}
	}
	r.closeErr = errs
	r.mu.Unlock()

	if r.log != nil {
		r.log.Debugf("%s receiver exhausted: %s", r.kind, reason)
	}
}
