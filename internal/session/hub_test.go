package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trussvision/trussvision/backend-go/internal/typeid"
)

func startHub(t *testing.T, cfg HubConfig) (*Hub, string) {
	t.Helper()
	hub := NewHub(cfg, nil)
	go hub.Run()
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Stop()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func readMessage(t *testing.T, ctx context.Context, conn *websocket.Conn) Message {
	t.Helper()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var m Message
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestHubServesSession(t *testing.T) {
	hub, url := startHub(t, HubConfig{Session: Options{Width: 800, Height: 600}})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	welcome := readMessage(t, ctx, conn)
	require.Equal(t, TypeWelcome, welcome.Type)
	var wp WelcomePayload
	require.NoError(t, json.Unmarshal(welcome.Payload, &wp))
	assert.NoError(t, typeid.Validate(wp.SessionID, typeid.PrefixSession))
	assert.NotEmpty(t, wp.ClientID)

	state := readMessage(t, ctx, conn)
	assert.Equal(t, TypeState, state.Type)
	assert.Greater(t, state.Seq, welcome.Seq)
	assert.Equal(t, TypeFrame, readMessage(t, ctx, conn).Type)

	assert.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	data, err := json.Marshal(Message{Type: TypeModeSet, Payload: json.RawMessage(`{"mode":"add-member"}`)})
	require.NoError(t, err)
	require.NoError(t, conn.Write(ctx, websocket.MessageText, data))

	state = readMessage(t, ctx, conn)
	require.Equal(t, TypeState, state.Type)
	var sp StatePayload
	require.NoError(t, json.Unmarshal(state.Payload, &sp))
	assert.Equal(t, "add-member", string(sp.State.Mode))

	conn.Close(websocket.StatusNormalClosure, "")
	assert.Eventually(t, func() bool { return hub.Count() == 0 }, time.Second, 10*time.Millisecond)
}

func TestHubRejectsOverLimit(t *testing.T) {
	hub, url := startHub(t, HubConfig{MaxSessions: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	first, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer first.Close(websocket.StatusNormalClosure, "")
	assert.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	_, resp, err := websocket.Dial(ctx, url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHubStopClosesSessions(t *testing.T) {
	hub, url := startHub(t, HubConfig{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conns := make([]*websocket.Conn, 2)
	for i := range conns {
		conn, _, err := websocket.Dial(ctx, url, nil)
		require.NoError(t, err)
		conns[i] = conn
	}
	assert.Eventually(t, func() bool { return hub.Count() == 2 }, time.Second, 10*time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		hub.Stop()
		close(stopped)
	}()

	for _, conn := range conns {
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				assert.Equal(t, websocket.StatusGoingAway, websocket.CloseStatus(err))
				break
			}
		}
	}

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after the close handshakes")
	}
	assert.Eventually(t, func() bool { return hub.Count() == 0 }, time.Second, 10*time.Millisecond)
}
