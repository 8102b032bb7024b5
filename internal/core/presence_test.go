package core

import "testing"

func TestMembershipJoinLeave(t *testing.T) {
	m := NewMembership()
	a := NewClient("conn-a", Session{}, "r1")
	b := NewClient("conn-b", Session{}, "r1")
	a.seq, b.seq = 1, 2

	if !m.Join(a, "r1") || !m.Join(b, "r1") {
		t.Fatalf("expected first joins to succeed")
	}
	if m.Join(a, "r1") {
		t.Fatalf("expected repeated join to be a no-op")
	}
	if got := m.MemberCount("r1"); got != 2 {
		t.Fatalf("expected 2 members, got %d", got)
	}
	if ids := m.MemberIDs("r1"); len(ids) != 2 || ids[0] != "conn-a" || ids[1] != "conn-b" {
		t.Fatalf("unexpected member ids: %v", ids)
	}

	if !m.Leave("conn-a", "r1") {
		t.Fatalf("expected leave to remove member")
	}
	if m.Leave("conn-a", "r1") {
		t.Fatalf("expected second leave to be a no-op")
	}
	if m.Has("r1", "conn-a") || !m.Has("r1", "conn-b") {
		t.Fatalf("unexpected membership after leave")
	}

	m.Leave("conn-b", "r1")
	if m.Room("r1") != nil {
		t.Fatalf("expected empty room group to be dropped")
	}
}

func TestMembershipUnknownRoom(t *testing.T) {
	m := NewMembership()

	if ids := m.MemberIDs("ghost"); ids == nil || len(ids) != 0 {
		t.Fatalf("expected empty non-nil ids, got %v", ids)
	}
	if m.MemberCount("") != 0 {
		t.Fatalf("expected zero members for empty room id")
	}
	if m.Leave("x", "ghost") {
		t.Fatalf("expected leave of unknown room to report false")
	}
}

func TestPresenceRosterAndFallbackLabel(t *testing.T) {
	m := NewMembership()
	p := NewPresence(m)

	colored := NewClient("abcdef123", Session{}, "r1")
	unlabeled := NewClient("zyxwvu987", Session{}, "r1")
	colored.seq, unlabeled.seq = 1, 2
	m.Join(colored, "r1")
	m.Join(unlabeled, "r1")

	p.Register("abcdef123", "#627801")
	p.Register("abcdef123", "#627801")
	p.Register("zyxwvu987", "")

	roster := p.RosterOf("r1")
	if roster.RoomID != "r1" || roster.Count != 2 {
		t.Fatalf("unexpected roster: %+v", roster)
	}
	if roster.Members[0].Label != "#627801" {
		t.Fatalf("expected color label, got %q", roster.Members[0].Label)
	}
	if roster.Members[1].Label != "zyxwv" {
		t.Fatalf("expected fallback label, got %q", roster.Members[1].Label)
	}

	p.Unregister("abcdef123")
	p.Unregister("never-registered")
	if got := p.Label("abcdef123"); got != "abcde" {
		t.Fatalf("expected fallback after unregister, got %q", got)
	}
	if got := p.Label("abc"); got != "abc" {
		t.Fatalf("expected short id as its own label, got %q", got)
	}
}

func TestPresenceEmptyRoster(t *testing.T) {
	p := NewPresence(NewMembership())

	roster := p.RosterOf("nobody-here")
	if roster.Count != 0 || roster.Members == nil || len(roster.Members) != 0 {
		t.Fatalf("expected empty roster, got %+v", roster)
	}
}
