package ws

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	userID         string
	conversationID string
}

type fakeHandler struct {
	markRead  []recordedCall
	typing    []recordedCall
	opened    []recordedCall
	closed    []string
	loadOlder []string
}

func (f *fakeHandler) HandleConnect(userID string)    {}
func (f *fakeHandler) HandleDisconnect(userID string) {}

func (f *fakeHandler) HandleMarkRead(userID, conversationID string) error {
	f.markRead = append(f.markRead, recordedCall{userID, conversationID})
	return nil
}

func (f *fakeHandler) HandleTyping(userID, conversationID string) {
	f.typing = append(f.typing, recordedCall{userID, conversationID})
}

func (f *fakeHandler) HandleOpenConversation(userID, conversationID string) error {
	f.opened = append(f.opened, recordedCall{userID, conversationID})
	return nil
}

func (f *fakeHandler) HandleCloseConversation(userID string) {
	f.closed = append(f.closed, userID)
}

func (f *fakeHandler) HandleLoadOlder(userID string) error {
	f.loadOlder = append(f.loadOlder, userID)
	return nil
}

type fakeSink struct {
	heartbeats []string
}

func (f *fakeSink) Connected(userID string)    {}
func (f *fakeSink) Disconnected(userID string) {}
func (f *fakeSink) Heartbeat(userID string)    { f.heartbeats = append(f.heartbeats, userID) }

func TestHandleClientMessageDispatch(t *testing.T) {
	hub := NewHub(slog.Default())
	handler := &fakeHandler{}
	sink := &fakeSink{}
	hub.SetHandler(handler)
	hub.SetPresence(sink)

	hub.HandleClientMessage("alice", []byte(`{"type":"heartbeat"}`))
	assert.Equal(t, []string{"alice"}, sink.heartbeats)

	hub.HandleClientMessage("alice", []byte(`{"type":"mark_read","data":{"conversation_id":"c1"}}`))
	require.Len(t, handler.markRead, 1)
	assert.Equal(t, recordedCall{"alice", "c1"}, handler.markRead[0])

	hub.HandleClientMessage("bob", []byte(`{"type":"typing","data":{"conversation_id":"c2"}}`))
	require.Len(t, handler.typing, 1)
	assert.Equal(t, recordedCall{"bob", "c2"}, handler.typing[0])

	hub.HandleClientMessage("alice", []byte(`{"type":"open_conversation","data":{"conversation_id":"c3"}}`))
	require.Len(t, handler.opened, 1)
	assert.Equal(t, recordedCall{"alice", "c3"}, handler.opened[0])

	hub.HandleClientMessage("alice", []byte(`{"type":"load_older"}`))
	assert.Equal(t, []string{"alice"}, handler.loadOlder)

	hub.HandleClientMessage("alice", []byte(`{"type":"close_conversation"}`))
	assert.Equal(t, []string{"alice"}, handler.closed)
}

func TestHandleClientMessageIgnoresMalformed(t *testing.T) {
	hub := NewHub(slog.Default())
	handler := &fakeHandler{}
	hub.SetHandler(handler)

	hub.HandleClientMessage("alice", []byte(`not json`))
	hub.HandleClientMessage("alice", []byte(`{"type":"mark_read","data":{}}`))
	hub.HandleClientMessage("alice", []byte(`{"type":"unknown"}`))

	assert.Empty(t, handler.markRead)
	assert.Empty(t, handler.typing)
}
