package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"servicemarket/internal/domain/entity"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func startServer(t *testing.T, m *Manager) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		m.Connect(r.URL.Query().Get("uid"), conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url, uid string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url+"?uid="+uid, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readType(t *testing.T, conn *websocket.Conn) (string, json.RawMessage) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	return msg.Type, msg.Data
}

func TestManager_PingPong(t *testing.T) {
	m := NewManager(newStubStore(), nil, nil)
	conn := dial(t, startServer(t, m), "u1")

	require.NoError(t, conn.WriteJSON(map[string]string{"type": MessageTypePing}))
	msgType, _ := readType(t, conn)
	assert.Equal(t, MessageTypePong, msgType)
}

func TestManager_NotifyReachesEverySocketOfUser(t *testing.T) {
	m := NewManager(newStubStore(), nil, nil)
	url := startServer(t, m)
	a := dial(t, url, "u1")
	b := dial(t, url, "u1")

	require.Eventually(t, func() bool { return m.ConnectionCount("u1") == 2 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, m.Notify(context.Background(), entity.Notification{UserID: "u1", ChatID: "c1", Body: "hi"}))

	for _, conn := range []*websocket.Conn{a, b} {
		msgType, data := readType(t, conn)
		assert.Equal(t, MessageTypeNotification, msgType)
		var n entity.Notification
		require.NoError(t, json.Unmarshal(data, &n))
		assert.Equal(t, "c1", n.ChatID)
	}
}

func TestManager_UnregistersOnClose(t *testing.T) {
	m := NewManager(newStubStore(), nil, nil)
	conn := dial(t, startServer(t, m), "u1")

	require.Eventually(t, func() bool { return m.ConnectionCount("u1") == 1 }, 2*time.Second, 10*time.Millisecond)
	conn.Close()
	assert.Eventually(t, func() bool { return m.ConnectionCount("u1") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestManager_SharesTrackerPerUser(t *testing.T) {
	m := NewManager(newStubStore(), nil, nil)
	assert.Same(t, m.tracker("u1"), m.tracker("u1"))
	assert.NotSame(t, m.tracker("u1"), m.tracker("u2"))
}

func TestManager_DropsIdleTrackers(t *testing.T) {
	m := NewManager(newStubStore(), nil, nil)
	conn := dial(t, startServer(t, m), "u1")

	require.Eventually(t, func() bool { return m.ConnectionCount("u1") == 1 }, 2*time.Second, 10*time.Millisecond)
	kept := m.tracker("u1")
	assert.Zero(t, m.CleanupTrackers(0))

	conn.Close()
	require.Eventually(t, func() bool { return m.ConnectionCount("u1") == 0 }, 2*time.Second, 10*time.Millisecond)

	assert.Zero(t, m.CleanupTrackers(time.Hour))
	assert.Same(t, kept, m.tracker("u1"))

	m.mu.Lock()
	m.idleSince["u1"] = time.Now().Add(-2 * time.Hour)
	m.mu.Unlock()

	assert.Equal(t, 1, m.CleanupTrackers(time.Hour))
	m.mu.RLock()
	_, ok := m.trackers["u1"]
	m.mu.RUnlock()
	assert.False(t, ok)
}

func TestClient_EnqueueAfterCloseIsDropped(t *testing.T) {
	c := newClient("u1", nil)
	c.closeSend()
	assert.NotPanics(t, func() { c.Emit(newMessage(MessageTypePong, nil)) })
}
