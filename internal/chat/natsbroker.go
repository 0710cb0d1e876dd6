package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NATSBroker is a Broker backed by a NATS server, for deployments
// running more than one API instance. Each thread maps to its own
// subject so subscriptions stay cheap.
type NATSBroker struct {
	conn   *nats.Conn
	logger *zap.Logger
}

// NewNATSBroker connects to the given NATS URL.
func NewNATSBroker(url string, logger *zap.Logger) (*NATSBroker, error) {
	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &NATSBroker{conn: conn, logger: logger}, nil
}

// subject derives the per-thread subject. Member IDs are UUIDs, so
// replacing the key separator is enough to keep subject tokens intact.
func subject(key ThreadKey) string {
	return "skillswap.chat." + strings.ReplaceAll(key.String(), ":", ".")
}

// subscriberChan guards a subscriber channel so delivery and close
// cannot race. NATS runs message callbacks on its own goroutine and
// Unsubscribe does not wait for one in flight, so the close must hold
// the same lock a delivery holds or a late callback sends on a closed
// channel and panics.
type subscriberChan struct {
	mu     sync.Mutex
	ch     chan Message
	closed bool
}

func newSubscriberChan() *subscriberChan {
	return &subscriberChan{ch: make(chan Message, subscriberBuffer)}
}

// deliver offers msg without blocking. The message is dropped if the
// subscriber is behind or already cancelled.
func (s *subscriberChan) deliver(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- msg:
	default:
	}
}

func (s *subscriberChan) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// Publish sends the message to the thread's subject. Failures are
// logged, not surfaced: live updates are opportunistic and the store
// remains the source of truth.
func (b *NATSBroker) Publish(key ThreadKey, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		b.logger.Error("marshal chat event", zap.Error(err))
		return
	}
	if err := b.conn.Publish(subject(key), data); err != nil {
		b.logger.Warn("publish chat event",
			zap.String("thread", key.String()),
			zap.Error(err),
		)
	}
}

// Subscribe listens on the thread's subject until cancelled.
func (b *NATSBroker) Subscribe(key ThreadKey) (<-chan Message, CancelFunc, error) {
	sc := newSubscriberChan()
	sub, err := b.conn.Subscribe(subject(key), func(m *nats.Msg) {
		var msg Message
		if err := json.Unmarshal(m.Data, &msg); err != nil {
			b.logger.Warn("drop malformed chat event", zap.Error(err))
			return
		}
		sc.deliver(msg)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("subscribe thread %s: %w", key, err)
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			if err := sub.Unsubscribe(); err != nil {
				b.logger.Warn("unsubscribe thread", zap.Error(err))
			}
			sc.close()
		})
	}
	return sc.ch, cancel, nil
}

// Ping reports whether the connection is currently established.
func (b *NATSBroker) Ping(_ context.Context) error {
	if !b.conn.IsConnected() {
		return fmt.Errorf("nats: not connected (status %s)", b.conn.Status())
	}
	return nil
}

// Close drains the underlying connection.
func (b *NATSBroker) Close() {
	if err := b.conn.Drain(); err != nil {
		b.logger.Warn("drain nats connection", zap.Error(err))
	}
}
