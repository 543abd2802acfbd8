package realtime

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"

	"crwn/internal/observability"
)

// Drivers accepted by New.
const (
	DriverRedis = "redis"
	DriverNATS  = "nats"
	DriverLocal = "local"
)

// ErrClosed is returned when subscribing to a closed feed.
var ErrClosed = errors.New("realtime feed closed")

// Feed publishes changes and delivers them to subscribers.
type Feed interface {
	Driver() string
	Publish(ctx context.Context, change Change) error
	// Subscribe delivers matching changes to handler until the subscription is
	// closed or ctx is cancelled.
	Subscribe(ctx context.Context, table string, filter Filter, handler Handler) (Subscription, error)
	Close() error
}

// Subscription is an active Subscribe call.
type Subscription interface {
	Unsubscribe() error
}

// deliver runs handler, recovering and logging a panic so the subscriber loop survives.
func deliver(table string, handler Handler, c Change) {
	defer func() {
		if r := recover(); r != nil {
			observability.GlobalLogger.Error("panic in realtime subscriber",
				slog.String("table", table),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	handler(c)
	observability.RealtimeEventsDelivered.WithLabelValues(table).Inc()
}

const localBuffer = 64

// LocalFeed delivers changes within the process.
type LocalFeed struct {
	mu     sync.RWMutex
	subs   map[*localSub]struct{}
	closed bool
}

// NewLocalFeed creates an in-process feed.
func NewLocalFeed() *LocalFeed {
	return &LocalFeed{subs: make(map[*localSub]struct{})}
}

func (f *LocalFeed) Driver() string { return DriverLocal }

func (f *LocalFeed) Publish(_ context.Context, change Change) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for s := range f.subs {
		if s.table != change.Table || !s.filter.Matches(change) {
			continue
		}
		select {
		case s.ch <- change:
		default:
			observability.GlobalLogger.Warn("realtime subscriber buffer full, dropping change",
				slog.String("table", change.Table))
		}
	}
	observability.RealtimeEventsPublished.WithLabelValues(change.Table, DriverLocal).Inc()
	return nil
}

func (f *LocalFeed) Subscribe(ctx context.Context, table string, filter Filter, handler Handler) (Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	s := &localSub{
		table:  table,
		filter: filter,
		ch:     make(chan Change, localBuffer),
		cancel: cancel,
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		cancel()
		return nil, ErrClosed
	}
	f.subs[s] = struct{}{}
	f.mu.Unlock()

	go func() {
		defer f.remove(s)
		for {
			select {
			case <-ctx.Done():
				return
			case c := <-s.ch:
				deliver(table, handler, c)
			}
		}
	}()
	return s, nil
}

func (f *LocalFeed) remove(s *localSub) {
	f.mu.Lock()
	delete(f.subs, s)
	f.mu.Unlock()
}

// Close stops every subscription.
func (f *LocalFeed) Close() error {
	f.mu.Lock()
	f.closed = true
	subs := make([]*localSub, 0, len(f.subs))
	for s := range f.subs {
		subs = append(subs, s)
	}
	f.mu.Unlock()
	for _, s := range subs {
		_ = s.Unsubscribe()
	}
	return nil
}

type localSub struct {
	table  string
	filter Filter
	ch     chan Change
	cancel context.CancelFunc
}

func (s *localSub) Unsubscribe() error {
	s.cancel()
	return nil
}
