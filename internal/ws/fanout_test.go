package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CrewChat/entity"
)

// tokenAuth authenticates every token as a user whose ID is the token.
type tokenAuth struct{}

func (tokenAuth) AuthenticateByToken(token string) (*entity.UserAuth, error) {
	return &entity.UserAuth{UserID: token}, nil
}

const fanoutEvents = 400 // well past the hub's send buffer

// fanoutSink floods the hub with deliveries for "reader" whenever the user
// "trigger" connects, the way a presence change can refresh the list of
// every subscribed user.
type fanoutSink struct {
	hub  *Hub
	done chan struct{}
}

func (f *fanoutSink) Connected(userID string) {
	if userID != "trigger" {
		return
	}
	for i := 0; i < fanoutEvents; i++ {
		f.hub.SendToUsers([]string{"reader"}, "noise", i)
	}
	close(f.done)
}

func (f *fanoutSink) Disconnected(userID string) {}
func (f *fanoutSink) Heartbeat(userID string)    {}

// A connect whose presence callback fans out more events than the hub
// buffers must still complete, and delivery must keep flowing afterwards.
func TestConnectSurvivesPresenceFanout(t *testing.T) {
	hub := NewHub(slog.Default())
	sink := &fanoutSink{hub: hub, done: make(chan struct{})}
	hub.SetPresence(sink)
	go hub.Run()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, tokenAuth{}, slog.Default(), w, r)
	}))
	defer srv.Close()

	dial := func(token string) *websocket.Conn {
		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?token=" + token
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		return conn
	}

	reader := dial("reader")
	defer reader.Close()

	trigger := dial("trigger")
	defer trigger.Close()

	select {
	case <-sink.done:
	case <-time.After(5 * time.Second):
		t.Fatal("presence fan-out did not complete, hub stalled")
	}

	// Everything queued during the fan-out precedes this marker.
	hub.SendToUsers([]string{"reader"}, "marker", nil)

	noise := 0
	for {
		require.NoError(t, reader.SetReadDeadline(time.Now().Add(5*time.Second)))
		_, raw, err := reader.ReadMessage()
		require.NoError(t, err)
		var ev Event
		require.NoError(t, json.Unmarshal(raw, &ev))
		if ev.Type == "marker" {
			break
		}
		noise++
	}
	assert.Equal(t, fanoutEvents, noise)
}
