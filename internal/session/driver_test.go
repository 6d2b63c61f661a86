package session

import (
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"postbox/internal/models"
)

type inboundFrame struct {
	messageType int
	data        []byte
}

// fakeConn feeds scripted frames to the driver and records what it writes.
type fakeConn struct {
	in chan inboundFrame

	mu     sync.Mutex
	out    []models.WSMessage
	closed bool
}

func newFakeConn() *fakeConn { return &fakeConn{in: make(chan inboundFrame, 16)} }

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	frame, ok := <-f.in
	if !ok {
		return 0, nil, io.EOF
	}
	return frame.messageType, frame.data, nil
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	var msg models.WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return err
	}
	f.mu.Lock()
	f.out = append(f.out, msg)
	f.mu.Unlock()
	return nil
}

func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (f *fakeConn) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeConn) text(s string) { f.in <- inboundFrame{websocket.TextMessage, []byte(s)} }

func (f *fakeConn) written() []models.WSMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.WSMessage(nil), f.out...)
}

func TestServeLifecycle(t *testing.T) {
	room := NewRoom("r1", "lobby", true, nil)
	alice, aliceCap := capturedClient()
	room.Join(profile("alice"), alice)
	aliceCap.reset()

	conn := newFakeConn()
	conn.text(`{"message_type":"NewMessage","message":{"message":"hello","author":"bob","created_at":"2024-01-02T03:04:05"}}`)
	conn.text(`{not json`)
	conn.in <- inboundFrame{websocket.BinaryMessage, []byte{0x01}}
	conn.text(`{"message_type":"UserList","users":["mallory"]}`)
	conn.text(`{"message_type":"ChangeUserName","user_name":"bobby"}`)
	close(conn.in)

	done := make(chan struct{})
	go func() {
		Serve(room, profile("bob"), NewClient(conn, 0), nil)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Serve did not return after end of stream")
	}

	got := aliceCap.list()
	if len(got) != 5 {
		t.Fatalf("expected 5 frames for alice, got %d: %#v", len(got), got)
	}
	assertUserList(t, got[0], "alice", "bob")
	if got[1].Message == nil || got[1].Message.Message != "hello" {
		t.Fatalf("expected chat relay, got %#v", got[1])
	}
	if got[2].Message == nil || got[2].Message.Message != "User bob changed user name to bobby" {
		t.Fatalf("expected rename announcement, got %#v", got[2])
	}
	assertUserList(t, got[3], "alice", "bobby")
	assertUserList(t, got[4], "alice")

	own := conn.written()
	if len(own) != 5 {
		t.Fatalf("expected 5 frames for bob, got %d: %#v", len(own), own)
	}
	assertUserList(t, own[0], "alice", "bob")
	assertUserName(t, own[1], "bob")
	assertUserList(t, own[4], "alice", "bobby")

	if room.Len() != 1 {
		t.Fatalf("expected bob to have left, got %d participants", room.Len())
	}
	conn.mu.Lock()
	defer conn.mu.Unlock()
	if !conn.closed {
		t.Fatalf("expected connection to be closed")
	}
}

func TestServeLastParticipantLeavesEmptyRoom(t *testing.T) {
	room := NewRoom("r1", "lobby", false, nil)
	conn := newFakeConn()
	close(conn.in)

	Serve(room, profile("solo"), NewClient(conn, 0), nil)

	if room.Len() != 0 {
		t.Fatalf("expected empty room, got %d", room.Len())
	}
	if n := len(conn.written()); n != 2 {
		t.Fatalf("expected only the join frames, got %d", n)
	}
}
