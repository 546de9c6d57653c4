package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"servicemarket/internal/chatsync"
	"servicemarket/internal/domain/entity"
	"servicemarket/internal/domain/service"
	"servicemarket/internal/infrastructure/ratelimit"
	"servicemarket/pkg/logger"
)

// Manager tracks the live connections of every user. A user may hold
// several sockets at once, and all of them share one notification
// tracker so a new message is announced once per user.
type Manager struct {
	store   chatsync.Store
	push    service.Notifier
	limiter *ratelimit.RateLimiter

	mu       sync.RWMutex
	clients  map[string]map[*Client]struct{}
	trackers map[string]*chatsync.NotificationTracker

	// idleSince holds the time the last socket of a user closed.
	idleSince map[string]time.Time
}

var _ service.Notifier = (*Manager)(nil)

// NewManager builds a manager. push may be nil when no push channel is
// configured.
func NewManager(store chatsync.Store, push service.Notifier, limiter *ratelimit.RateLimiter) *Manager {
	return &Manager{
		store:     store,
		push:      push,
		limiter:   limiter,
		clients:   make(map[string]map[*Client]struct{}),
		trackers:  make(map[string]*chatsync.NotificationTracker),
		idleSince: make(map[string]time.Time),
	}
}

// Connect attaches conn to userID, starts its session and its pumps. The
// connection lives until the peer goes away or Shutdown is called.
func (m *Manager) Connect(userID string, conn *websocket.Conn) *Client {
	client := newClient(userID, conn)
	ctx, cancel := context.WithCancel(context.Background())

	notifiers := chatsync.Notifiers{m}
	if m.push != nil {
		notifiers = append(notifiers, m.push)
	}

	session := NewSession(SessionConfig{
		Store:    m.store,
		UserID:   userID,
		Notifier: notifiers,
		Tracker:  m.tracker(userID),
		Limiter:  m.limiter,
		Emit:     client.Emit,
	})
	client.session = session

	m.register(client)

	if err := session.Start(ctx); err != nil {
		session.sendError("SUBSCRIPTION_FAILED", "Failed to load conversations")
	}

	go client.writePump()
	go client.readPump(session.Handle, func() {
		cancel()
		session.Close()
		m.unregister(client)
	})
	return client
}

func (m *Manager) tracker(userID string) *chatsync.NotificationTracker {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.idleSince, userID)
	t, ok := m.trackers[userID]
	if !ok {
		t = chatsync.NewNotificationTracker()
		m.trackers[userID] = t
	}
	return t
}

// CleanupTrackers drops the notification trackers of users who have had
// no open socket for longer than maxIdle.
func (m *Manager) CleanupTrackers(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for uid, since := range m.idleSince {
		if len(m.clients[uid]) > 0 {
			delete(m.idleSince, uid)
			continue
		}
		if since.Before(cutoff) {
			delete(m.trackers, uid)
			delete(m.idleSince, uid)
			removed++
		}
	}
	return removed
}

// StartCleanupRoutine runs CleanupTrackers every interval until stop is
// closed.
func (m *Manager) StartCleanupRoutine(interval, maxIdle time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if n := m.CleanupTrackers(maxIdle); n > 0 {
					logger.Debug("Dropped %d idle notification trackers", n)
				}
			case <-stop:
				return
			}
		}
	}()
}

func (m *Manager) register(c *Client) {
	m.mu.Lock()
	set, ok := m.clients[c.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		m.clients[c.UserID] = set
	}
	set[c] = struct{}{}
	n := len(set)
	m.mu.Unlock()

	logger.Info("Websocket client registered: %s (%d open)", c.UserID, n)
}

func (m *Manager) unregister(c *Client) {
	m.mu.Lock()
	if set, ok := m.clients[c.UserID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(m.clients, c.UserID)
			m.idleSince[c.UserID] = time.Now()
		}
	}
	m.mu.Unlock()

	c.closeSend()
	logger.Info("Websocket client unregistered: %s", c.UserID)
}

// ConnectionCount returns the number of open sockets of userID.
func (m *Manager) ConnectionCount(userID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients[userID])
}

// SendToUser queues msg on every socket of userID.
func (m *Manager) SendToUser(userID string, msg WSMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		logger.Error("Failed to marshal websocket message %s: %v", msg.Type, err)
		return
	}

	m.mu.RLock()
	targets := make([]*Client, 0, len(m.clients[userID]))
	for c := range m.clients[userID] {
		targets = append(targets, c)
	}
	m.mu.RUnlock()

	for _, c := range targets {
		c.enqueue(payload)
	}
}

// Notify pushes n to every open socket of its user.
func (m *Manager) Notify(_ context.Context, n entity.Notification) error {
	m.SendToUser(n.UserID, newMessage(MessageTypeNotification, n))
	return nil
}

// Shutdown closes every connection. Their pumps unwind on their own.
func (m *Manager) Shutdown() {
	m.mu.RLock()
	var all []*Client
	for _, set := range m.clients {
		for c := range set {
			all = append(all, c)
		}
	}
	m.mu.RUnlock()

	for _, c := range all {
		c.conn.Close()
	}
}
