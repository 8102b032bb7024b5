package core

import (
	"context"
	"testing"
	"time"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()
	return mustEventMatching(t, ch, kind, func(*Event) bool { return true })
}

func mustEventMatching(t *testing.T, ch <-chan *Event, kind EventKind, match func(*Event) bool) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind && match(ev) {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

func mustRoster(t *testing.T, ch <-chan *Event, count int) *Roster {
	t.Helper()
	ev := mustEventMatching(t, ch, EventRoster, func(ev *Event) bool { return ev.Roster.Count == count })
	return ev.Roster
}

// drain returns whatever is queued on ch right now.
func drain(ch <-chan *Event) []*Event {
	var out []*Event
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

func startHub(t *testing.T, deleter RoomDeleter) *Hub {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	hub := NewHub(deleter, nil)
	go hub.Run(ctx)
	return hub
}

func joinClient(t *testing.T, hub *Hub, id, room string) *Client {
	t.Helper()

	c := NewClient(id, Session{ID: "sess-" + id, Color: "#" + id + id + id}, room)
	if err := hub.RegisterClient(c); err != nil {
		t.Fatalf("register %s: %v", id, err)
	}
	return c
}

type deleteCall struct {
	room string
	by   Session
}

type recordingDeleter struct {
	calls chan deleteCall
	err   error
}

func newRecordingDeleter() *recordingDeleter {
	return &recordingDeleter{calls: make(chan deleteCall, 8)}
}

func (d *recordingDeleter) DeleteRoom(_ context.Context, roomID string, by Session) error {
	d.calls <- deleteCall{room: roomID, by: by}
	return d.err
}

func (d *recordingDeleter) mustCall(t *testing.T) deleteCall {
	t.Helper()
	select {
	case call := <-d.calls:
		return call
	case <-time.After(2 * time.Second):
		t.Fatalf("expected room deletion call")
		return deleteCall{}
	}
}

func (d *recordingDeleter) mustNotCall(t *testing.T, wait time.Duration) {
	t.Helper()
	select {
	case call := <-d.calls:
		t.Fatalf("unexpected room deletion call: %+v", call)
	case <-time.After(wait):
	}
}
