// Package conn owns the WebSocket lifecycle for one room view: dialing,
// failure detection, bounded reconnect with linear backoff, and delivery
// of decoded frames as a single ordered event stream.
package conn

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"nhooyr.io/websocket"

	"github.com/christopherjohns/parley/internal/wire"
)

const (
	// sendBufferSize is the number of outbound frames that can be queued.
	sendBufferSize = 16

	// writeTimeout is the max time to wait for a single write to complete.
	writeTimeout = 5 * time.Second

	// defaultBaseDelay is the unit of the linear reconnect backoff.
	defaultBaseDelay = 2 * time.Second

	// defaultMaxAttempts caps reconnects per outage; after that the
	// connection stays visibly down until the view is reopened.
	defaultMaxAttempts = 5

	// readLimit bounds a single inbound frame.
	readLimit = 1 << 20
)

// State is the connection lifecycle state.
type State int32

const (
	StateClosed State = iota
	StateConnecting
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "connected"
	default:
		return "disconnected"
	}
}

// Event is one entry in the manager's ordered event stream. Exactly one
// consumer is expected; events arrive in the order they occurred.
type Event interface {
	isEvent()
}

// StateChange reports a lifecycle transition. Attempt is the reconnect
// attempt the transition belongs to, zero outside of reconnects.
type StateChange struct {
	State   State
	Attempt int
}

// FrameReceived carries one decoded inbound frame.
type FrameReceived struct {
	Frame wire.Frame
}

func (StateChange) isEvent()   {}
func (FrameReceived) isEvent() {}

// DialFunc establishes the transport. Swapped out in tests.
type DialFunc func(ctx context.Context, url string) (*websocket.Conn, error)

func defaultDial(ctx context.Context, url string) (*websocket.Conn, error) {
	ws, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	ws.SetReadLimit(readLimit)
	return ws, nil
}

// Manager owns the single transport handle for a room view. No other
// component holds or closes the socket; they send through Send and read
// connection state through State.
type Manager struct {
	url         string
	dial        DialFunc
	baseDelay   time.Duration
	maxAttempts int

	state  atomic.Int32
	events chan Event

	mu         sync.Mutex
	ws         *websocket.Conn
	send       chan []byte
	cancel     context.CancelFunc
	pumpCancel context.CancelFunc
	started    bool
	closed     bool

	dropped atomic.Int64
}

// Option configures a Manager.
type Option func(*Manager)

// WithDialFunc replaces the transport dialer.
func WithDialFunc(d DialFunc) Option {
	return func(m *Manager) { m.dial = d }
}

// WithBaseDelay sets the unit of the linear reconnect backoff.
func WithBaseDelay(d time.Duration) Option {
	return func(m *Manager) { m.baseDelay = d }
}

// WithMaxAttempts sets how many reconnects are tried per outage.
func WithMaxAttempts(n int) Option {
	return func(m *Manager) { m.maxAttempts = n }
}

// NewManager creates a manager for the room-scoped endpoint url.
func NewManager(url string, opts ...Option) *Manager {
	m := &Manager{
		url:         url,
		dial:        defaultDial,
		baseDelay:   defaultBaseDelay,
		maxAttempts: defaultMaxAttempts,
		events:      make(chan Event, 32),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Events returns the ordered event stream. The channel is closed when
// the connection is permanently down: after Disconnect, a remote normal
// closure, or an exhausted reconnect budget.
func (m *Manager) Events() <-chan Event {
	return m.events
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	return State(m.state.Load())
}

// IsOpen reports whether frames can currently be sent.
func (m *Manager) IsOpen() bool {
	return m.State() == StateOpen
}

// Dropped returns the number of outbound frames discarded because the
// send buffer was full.
func (m *Manager) Dropped() int64 {
	return m.dropped.Load()
}

// RetryDelay returns the backoff before reconnect attempt n (1-based).
// Delays grow linearly: base, 2*base, 3*base, ...
func RetryDelay(attempt int, base time.Duration) time.Duration {
	return time.Duration(attempt) * base
}

// Connect starts the connection loop. It returns immediately; progress
// is reported on the event stream.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return errors.New("conn: already started")
	}
	if m.closed {
		return errors.New("conn: already disconnected")
	}
	m.started = true
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	go m.run(runCtx)
	return nil
}

// Disconnect closes the transport with the normal status code and
// suppresses any further reconnect.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	ws := m.ws
	cancel := m.cancel
	m.mu.Unlock()

	if ws != nil {
		ws.Close(websocket.StatusNormalClosure, "client disconnect")
	}
	if cancel != nil {
		cancel()
	}
}

// run is the connection loop: dial, pump, decide whether to retry.
// It is the only goroutine that ever touches the transport handle,
// which guarantees at most one live handle at a time.
func (m *Manager) run(ctx context.Context) {
	defer close(m.events)

	attempt := 0
	for {
		m.setState(StateConnecting, attempt)
		ws, err := m.dial(ctx, m.url)
		if err != nil {
			if ctx.Err() != nil {
				m.setState(StateClosed, attempt)
				return
			}
			log.Warn().Err(err).Str("url", m.url).Msg("conn: dial failed")
			m.setState(StateClosed, attempt)
			if !m.waitRetry(ctx, &attempt) {
				return
			}
			continue
		}

		m.attach(ws)
		attempt = 0
		m.setState(StateOpen, 0)

		code := m.readLoop(ctx, ws)
		m.detach()
		ws.CloseNow()
		m.setState(StateClosed, attempt)

		if ctx.Err() != nil || code == websocket.StatusNormalClosure {
			return
		}
		log.Warn().Int("code", int(code)).Msg("conn: abnormal closure")
		if !m.waitRetry(ctx, &attempt) {
			return
		}
	}
}

// waitRetry sleeps out the backoff before the next reconnect attempt.
// It returns false when the budget is exhausted or the loop is cancelled.
func (m *Manager) waitRetry(ctx context.Context, attempt *int) bool {
	*attempt++
	if *attempt > m.maxAttempts {
		log.Error().Int("attempts", m.maxAttempts).Msg("conn: giving up after repeated failures")
		return false
	}

	delay := RetryDelay(*attempt, m.baseDelay)
	log.Info().Int("attempt", *attempt).Dur("delay", delay).Msg("conn: scheduling reconnect")

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// attach installs a freshly dialed socket and starts its write pump.
func (m *Manager) attach(ws *websocket.Conn) {
	pumpCtx, cancel := context.WithCancel(context.Background())
	send := make(chan []byte, sendBufferSize)

	m.mu.Lock()
	m.ws = ws
	m.send = send
	prevCancel := m.pumpCancel
	m.pumpCancel = cancel
	m.mu.Unlock()

	if prevCancel != nil {
		prevCancel()
	}
	go m.writePump(pumpCtx, ws, send)
}

// detach forgets the current socket and stops its write pump.
func (m *Manager) detach() {
	m.mu.Lock()
	m.ws = nil
	m.send = nil
	cancel := m.pumpCancel
	m.pumpCancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// readLoop decodes inbound frames in arrival order and forwards them on
// the event stream. Malformed and unknown frames are logged and skipped;
// they never take the connection down.
func (m *Manager) readLoop(ctx context.Context, ws *websocket.Conn) websocket.StatusCode {
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			return websocket.CloseStatus(err)
		}

		f, err := wire.Decode(data)
		if err != nil {
			var unknown *wire.UnknownTypeError
			if errors.As(err, &unknown) {
				log.Warn().Str("frame_type", unknown.Type).Msg("conn: ignoring unknown frame type")
			} else {
				log.Warn().Err(err).Msg("conn: ignoring malformed frame")
			}
			continue
		}

		select {
		case m.events <- FrameReceived{Frame: f}:
		case <-ctx.Done():
			return websocket.StatusNormalClosure
		}
	}
}

// Send queues a frame for delivery. It returns false when the
// connection is not open or the send buffer is full (slow socket).
func (m *Manager) Send(f wire.Frame) bool {
	data, err := wire.Encode(f)
	if err != nil {
		log.Error().Err(err).Msg("conn: encode outbound frame")
		return false
	}

	m.mu.Lock()
	send := m.send
	m.mu.Unlock()
	if send == nil || !m.IsOpen() {
		return false
	}

	select {
	case send <- data:
		return true
	default:
		m.dropped.Add(1)
		log.Warn().Msg("conn: send buffer full, dropping frame")
		return false
	}
}

// writePump drains the send channel onto the socket. It exits when its
// socket is detached or a write fails.
func (m *Manager) writePump(ctx context.Context, ws *websocket.Conn, send <-chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-send:
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := ws.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				log.Warn().Err(err).Msg("conn: write failed")
				return
			}
		}
	}
}

func (m *Manager) setState(s State, attempt int) {
	m.state.Store(int32(s))
	m.events <- StateChange{State: s, Attempt: attempt}
}
