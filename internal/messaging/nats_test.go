package messaging

import (
	"encoding/json"
	"testing"

	"github.com/lockstep/watch-party/internal/room"
)

func TestNewEventNotice(t *testing.T) {
	ev := room.Event{
		ID:   "1700000000000-7",
		Type: room.KindChatMessage,
		Data: room.ChatMessage{ID: "m1", Username: "alice", Text: "hi", Timestamp: 1700000000000},
		At:   1700000000000,
	}

	notice, err := NewEventNotice("ABC", ev)
	if err != nil {
		t.Fatalf("NewEventNotice: %v", err)
	}
	if notice.RoomCode != "ABC" || notice.ID != ev.ID || notice.At != ev.At {
		t.Errorf("notice = %+v", notice)
	}
	if notice.Type != string(room.KindChatMessage) {
		t.Errorf("type = %q", notice.Type)
	}

	// The data payload must decode back into the original message.
	var msg room.ChatMessage
	if err := json.Unmarshal(notice.Data, &msg); err != nil {
		t.Fatalf("decoding notice data: %v", err)
	}
	if msg.Username != "alice" || msg.Text != "hi" {
		t.Errorf("decoded message = %+v", msg)
	}
}

func TestNewEventNoticeRejectsUnmarshalableData(t *testing.T) {
	ev := room.Event{
		ID:   "1-1",
		Type: room.KindPlayerSync,
		Data: make(chan int), // not JSON-encodable
		At:   1,
	}
	if _, err := NewEventNotice("ABC", ev); err == nil {
		t.Fatal("expected an error for unencodable event data")
	}
}
