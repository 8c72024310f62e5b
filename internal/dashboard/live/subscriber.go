// Package live manages the push-stream subscription that feeds the
// dashboard in live mode.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jpillora/backoff"

	"fridge_monitor"
	"fridge_monitor/internal/logger"
)

const (
	writeWait        = 10 * time.Second
	idleWait         = 70 * time.Second // server pings every 54s
	handshakeTimeout = 5 * time.Second
	maxMsgSize       = 1 << 12 // 4 KB, one record per message
)

// Callbacks receive subscription events. Both run on the subscription's
// reader goroutine and must not call Subscription.Close.
type Callbacks struct {
	// OnRecord receives each decoded record.
	OnRecord func(fridge_monitor.Record)
	// OnClosed runs once when the stream ends. err is nil after Close and
	// wraps fridge_monitor.ErrNetwork after a transport failure.
	OnClosed func(err error)
}

// Subscriber dials the push endpoint.
type Subscriber struct {
	url    string
	dialer *websocket.Dialer
	log    *logger.Logger

	reconnect    bool
	backoffBase  time.Duration
	backoffLimit time.Duration
}

// Option configures a Subscriber.
type Option func(*Subscriber)

// WithLogger attaches a logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Subscriber) { s.log = l.Component("live") }
}

// WithDialer replaces the websocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(s *Subscriber) {
		if d != nil {
			s.dialer = d
		}
	}
}

// WithReconnect turns on reconnects after transport failures, waiting base,
// 2*base, 4*base... up to limit between attempts. Off by default: a dropped
// stream stays closed until the caller subscribes again.
func WithReconnect(base, limit time.Duration) Option {
	return func(s *Subscriber) {
		if base <= 0 || limit < base {
			return
		}
		s.reconnect = true
		s.backoffBase = base
		s.backoffLimit = limit
	}
}

// New returns a Subscriber for the ws:// or wss:// url.
func New(url string, opts ...Option) *Subscriber {
	s := &Subscriber{
		url:    url,
		dialer: &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscription is an open push stream.
type Subscription struct {
	sub *Subscriber
	cb  Callbacks

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool

	cancel context.CancelFunc
	done   chan struct{}
}

// Subscribe opens the stream. The returned subscription lives until Close is
// called, ctx is cancelled, or the stream fails without reconnect enabled.
func (s *Subscriber) Subscribe(ctx context.Context, cb Callbacks) (*Subscription, error) {
	conn, err := s.dial(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		sub:    s,
		cb:     cb,
		conn:   conn,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go sub.readLoop(ctx)
	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.done:
		}
	}()
	s.log.Infow("live_subscribed", "url", s.url)
	return sub, nil
}

func (s *Subscriber) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, resp, err := s.dialer.DialContext(ctx, s.url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", fridge_monitor.ErrNetwork, s.url, err)
	}
	configureConn(conn)
	return conn, nil
}

// configureConn applies read limits and keeps the read deadline alive on pings.
func configureConn(conn *websocket.Conn) {
	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(idleWait))
	conn.SetPingHandler(func(appData string) error {
		_ = conn.SetReadDeadline(time.Now().Add(idleWait))
		err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})
}

// Close tears the connection down and waits for the reader to exit. No
// OnRecord call happens after Close returns. Safe to call more than once.
func (s *Subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.closed = true
	conn := s.conn
	s.mu.Unlock()

	s.cancel()
	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client closing"),
			time.Now().Add(writeWait))
		_ = conn.Close()
	}
	<-s.done
}

// Done is closed once the reader goroutine has exited.
func (s *Subscription) Done() <-chan struct{} { return s.done }

func (s *Subscription) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Subscription) currentConn() *websocket.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

func (s *Subscription) readLoop(ctx context.Context) {
	defer close(s.done)
	log := s.sub.log

	var endErr error
	defer func() {
		if s.cb.OnClosed != nil {
			s.cb.OnClosed(endErr)
		}
	}()

	for {
		conn := s.currentConn()
		err := s.readConn(conn)
		_ = conn.Close()
		if s.isClosed() || ctx.Err() != nil {
			return
		}
		log.Warnw("live_stream_failed", "err", err)

		if !s.sub.reconnect {
			endErr = fmt.Errorf("%w: %w", fridge_monitor.ErrNetwork, err)
			return
		}
		if !s.redial(ctx) {
			return
		}
	}
}

// readConn reads until the connection fails, delivering each record.
func (s *Subscription) readConn(conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		_ = conn.SetReadDeadline(time.Now().Add(idleWait))

		rec, err := DecodeRecord(data)
		if err != nil {
			s.sub.log.Warnw("live_message_dropped", "err", err, "bytes", len(data))
			continue
		}
		s.deliver(rec)
	}
}

// deliver hands rec to OnRecord unless the subscription is already closed.
// Holding mu across the callback is what lets Close guarantee silence.
func (s *Subscription) deliver(rec fridge_monitor.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.cb.OnRecord == nil {
		return
	}
	s.cb.OnRecord(rec)
}

// redial retries the connection with exponential backoff until it succeeds
// or the subscription ends.
func (s *Subscription) redial(ctx context.Context) bool {
	b := s.sub.newBackoff()
	for {
		delay := b.Duration()
		s.sub.log.Infow("live_reconnect_scheduled", "delay", delay, "attempt", b.Attempt())
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return false
		}

		conn, err := s.sub.dial(ctx)
		if err != nil {
			s.sub.log.Warnw("live_reconnect_failed", "err", err, "attempt", b.Attempt())
			continue
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			_ = conn.Close()
			return false
		}
		s.conn = conn
		s.mu.Unlock()
		s.sub.log.Infow("live_reconnected", "url", s.sub.url)
		return true
	}
}

// newBackoff waits base, 2*base, 4*base... capped at the configured limit.
func (s *Subscriber) newBackoff() *backoff.Backoff {
	return &backoff.Backoff{
		Min:    s.backoffBase,
		Max:    s.backoffLimit,
		Factor: 2,
	}
}

// wireRecord mirrors Record with pointers so missing required keys are caught.
type wireRecord struct {
	FridgeID       *int     `json:"fridge_id"`
	InstrumentName string   `json:"instrument_name"`
	ParameterName  string   `json:"parameter_name"`
	AppliedValue   *float64 `json:"applied_value"`
	Timestamp      *int64   `json:"timestamp"`
}

// DecodeRecord parses one push message. Errors wrap fridge_monitor.ErrDecode.
func DecodeRecord(data []byte) (fridge_monitor.Record, error) {
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return fridge_monitor.Record{}, fmt.Errorf("%w: %w", fridge_monitor.ErrDecode, err)
	}
	if w.FridgeID == nil || w.Timestamp == nil || w.AppliedValue == nil {
		return fridge_monitor.Record{}, fmt.Errorf("%w: missing fridge_id, applied_value or timestamp", fridge_monitor.ErrDecode)
	}
	return fridge_monitor.Record{
		FridgeID:       *w.FridgeID,
		InstrumentName: w.InstrumentName,
		ParameterName:  w.ParameterName,
		AppliedValue:   *w.AppliedValue,
		Timestamp:      *w.Timestamp,
	}, nil
}
