package sse

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zarko379/iMangarr-ng/internal/id"
)

const (
	eventBuffer  = 256
	clientBuffer = 32
	historySize  = 50
)

// Client is one open event stream.
type Client struct {
	ID          string
	ConnectedAt time.Time
	EventChan   chan Event
	Done        chan struct{}
}

func (c *Client) close() {
	close(c.Done)
	close(c.EventChan)
}

// history keeps the last historySize non-heartbeat events, oldest first.
type history struct {
	mu     sync.RWMutex
	events []Event
}

func (h *history) add(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
	if over := len(h.events) - historySize; over > 0 {
		h.events = slices.Delete(h.events, 0, over)
	}
}

func (h *history) latest(n int) []Event {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n = min(n, len(h.events))
	out := slices.Clone(h.events[len(h.events)-n:])
	slices.Reverse(out)
	return out
}

func (h *history) after(eventID string) []Event {
	h.mu.RLock()
	defer h.mu.RUnlock()
	i := slices.IndexFunc(h.events, func(e Event) bool { return e.ID == eventID })
	if i < 0 {
		return nil
	}
	return slices.Clone(h.events[i+1:])
}

// Manager fans events out to connected clients and remembers the most recent
// ones for the activity page.
type Manager struct {
	logger    *slog.Logger
	heartbeat time.Duration

	mu      sync.RWMutex
	clients map[string]*Client

	past history

	events   chan Event
	quit     chan struct{}
	quitOnce sync.Once
	started  atomic.Bool
	stopped  chan struct{}
}

// NewManager returns a manager with a 30 second heartbeat.
func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		logger:    logger,
		heartbeat: 30 * time.Second,
		clients:   make(map[string]*Client),
		events:    make(chan Event, eventBuffer),
		quit:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
}

// Start broadcasts queued events until ctx is done or Shutdown is called.
// Later calls return immediately.
func (m *Manager) Start(ctx context.Context) {
	if !m.started.CompareAndSwap(false, true) {
		return
	}
	defer close(m.stopped)
	defer m.dropClients()

	ticker := time.NewTicker(m.heartbeat)
	defer ticker.Stop()

	m.logger.Info("SSE manager started")
	for {
		select {
		case e := <-m.events:
			m.broadcast(e)
		case <-ticker.C:
			m.broadcast(NewHeartbeatEvent())
		case <-m.quit:
			m.drain()
			return
		case <-ctx.Done():
			m.logger.Info("SSE manager stopping")
			return
		}
	}
}

// drain delivers whatever was queued before Shutdown.
func (m *Manager) drain() {
	for {
		select {
		case e := <-m.events:
			m.broadcast(e)
		default:
			return
		}
	}
}

// Shutdown stops accepting events, delivers the queued ones and disconnects
// every client. It returns ctx.Err() if the loop does not finish in time.
func (m *Manager) Shutdown(ctx context.Context) error {
	first := false
	m.quitOnce.Do(func() {
		close(m.quit)
		first = true
	})
	if !first {
		return nil
	}

	if !m.started.Load() {
		m.dropClients()
		return nil
	}

	select {
	case <-m.stopped:
		m.logger.Info("SSE manager shut down")
		return nil
	case <-ctx.Done():
		m.logger.Warn("SSE manager did not drain before the deadline")
		return ctx.Err()
	}
}

// Emit queues an Event. Anything else is logged and ignored, as are events
// emitted after Shutdown or while the queue is full.
func (m *Manager) Emit(event any) {
	e, ok := event.(Event)
	if !ok {
		m.logger.Error("ignoring emitted value that is not an sse.Event")
		return
	}

	select {
	case <-m.quit:
		return
	default:
	}

	select {
	case m.events <- e:
	default:
		m.logger.Error("SSE queue full, dropping event", slog.String("event_type", string(e.Type)))
	}
}

// Connect registers a new client.
func (m *Manager) Connect() (*Client, error) {
	clientID, err := id.Generate(id.PrefixSSEClient)
	if err != nil {
		return nil, err
	}
	c := &Client{
		ID:          clientID,
		ConnectedAt: time.Now(),
		EventChan:   make(chan Event, clientBuffer),
		Done:        make(chan struct{}),
	}

	m.mu.Lock()
	m.clients[c.ID] = c
	n := len(m.clients)
	m.mu.Unlock()

	m.logger.Info("SSE client connected", slog.String("client_id", c.ID), slog.Int("clients", n))
	return c, nil
}

// Disconnect removes a client. Unknown ids are ignored.
func (m *Manager) Disconnect(clientID string) {
	m.mu.Lock()
	c, ok := m.clients[clientID]
	delete(m.clients, clientID)
	n := len(m.clients)
	m.mu.Unlock()
	if !ok {
		return
	}

	c.close()
	m.logger.Info("SSE client disconnected",
		slog.String("client_id", clientID),
		slog.Duration("connected_for", time.Since(c.ConnectedAt)),
		slog.Int("clients", n))
}

// ClientCount returns the number of open streams.
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// Recent returns up to n of the latest non-heartbeat events, newest first.
func (m *Manager) Recent(n int) []Event {
	return m.past.latest(n)
}

// Since returns the remembered events after eventID, oldest first. An unknown
// id yields nil.
func (m *Manager) Since(eventID string) []Event {
	return m.past.after(eventID)
}

// broadcast hands event to every client; a client with a full buffer misses it.
func (m *Manager) broadcast(e Event) {
	beat := e.Type == EventHeartbeat
	if !beat {
		m.past.add(e)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	missed := 0
	for _, c := range m.clients {
		select {
		case c.EventChan <- e:
		default:
			missed++
			m.logger.Warn("client too slow, event skipped",
				slog.String("client_id", c.ID),
				slog.String("event_type", string(e.Type)))
		}
	}

	if !beat {
		m.logger.Debug("event broadcast",
			slog.String("event_type", string(e.Type)),
			slog.Int("clients", len(m.clients)),
			slog.Int("missed", missed))
	}
}

func (m *Manager) dropClients() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.clients {
		c.close()
	}
	clear(m.clients)
}
