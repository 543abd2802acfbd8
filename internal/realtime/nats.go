package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"crwn/internal/observability"

	"github.com/nats-io/nats.go"
)

// NATSFeed routes changes over NATS subjects realtime.<table> and
// realtime.<table>.<column>.<value>.
type NATSFeed struct {
	nc *nats.Conn
}

// ConnectNATS dials url and returns a feed that owns the connection.
func ConnectNATS(url string) (*NATSFeed, error) {
	nc, err := nats.Connect(url,
		nats.Name("crwn-realtime"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				observability.GlobalLogger.Warn("nats disconnected", slog.String("error", err.Error()))
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NATSFeed{nc: nc}, nil
}

func (f *NATSFeed) Driver() string { return DriverNATS }

func (f *NATSFeed) Publish(_ context.Context, change Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}
	if err := f.nc.Publish(natsSubject(change.Table, Filter{}), payload); err != nil {
		return fmt.Errorf("publish %s change: %w", change.Table, err)
	}
	for col, val := range change.keys {
		if err := f.nc.Publish(natsSubject(change.Table, Filter{Column: col, Value: val}), payload); err != nil {
			return fmt.Errorf("publish %s change: %w", change.Table, err)
		}
	}
	observability.RealtimeEventsPublished.WithLabelValues(change.Table, DriverNATS).Inc()
	return nil
}

func (f *NATSFeed) Subscribe(ctx context.Context, table string, filter Filter, handler Handler) (Subscription, error) {
	ns, err := f.nc.Subscribe(natsSubject(table, filter), func(msg *nats.Msg) {
		var c Change
		if err := json.Unmarshal(msg.Data, &c); err != nil {
			observability.GlobalLogger.Warn("dropping malformed realtime payload",
				slog.String("subject", msg.Subject),
				slog.String("error", err.Error()),
			)
			return
		}
		if filter.Matches(c) {
			deliver(table, handler, c)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", table, err)
	}
	if err := f.nc.Flush(); err != nil {
		_ = ns.Unsubscribe()
		return nil, fmt.Errorf("subscribe %s: %w", table, err)
	}

	s := &natsSub{sub: ns, stop: make(chan struct{})}
	go func() {
		select {
		case <-ctx.Done():
			_ = s.Unsubscribe()
		case <-s.stop:
		}
	}()
	return s, nil
}

// Close drains the connection.
func (f *NATSFeed) Close() error {
	return f.nc.Drain()
}

type natsSub struct {
	sub  *nats.Subscription
	stop chan struct{}
	once sync.Once
	err  error
}

func (s *natsSub) Unsubscribe() error {
	s.once.Do(func() {
		close(s.stop)
		s.err = s.sub.Unsubscribe()
	})
	return s.err
}

var subjectReplacer = strings.NewReplacer(".", "_", " ", "_", "*", "_", ">", "_")

func natsSubject(table string, filter Filter) string {
	subject := "realtime." + subjectReplacer.Replace(table)
	if filter.IsZero() {
		return subject
	}
	return subject + "." + subjectReplacer.Replace(filter.Column) + "." + subjectReplacer.Replace(filter.Value)
}
