package core

// fallbackLabelLen is how much of a connection id is shown when no color is known.
const fallbackLabelLen = 5

// RosterMember is one entry of a room roster.
type RosterMember struct {
	ConnectionID string
	Label        string
}

// Roster is the live participant list of a room.
type Roster struct {
	RoomID  string
	Count   int
	Members []RosterMember
}

// Presence maps connection ids to display labels and builds rosters from
// the membership table. Like Membership it belongs to the hub goroutine.
type Presence struct {
	labels  map[string]string
	members *Membership
}

// NewPresence creates a presence registry reading rosters from members.
func NewPresence(members *Membership) *Presence {
	return &Presence{
		labels:  make(map[string]string),
		members: members,
	}
}

// Register records the color of a connection. Calling it again overwrites.
func (p *Presence) Register(connID, color string) {
	if color == "" {
		return
	}
	p.labels[connID] = color
}

// Unregister forgets a connection. Unknown ids are ignored.
func (p *Presence) Unregister(connID string) {
	delete(p.labels, connID)
}

// Label returns the display label of a connection.
func (p *Presence) Label(connID string) string {
	if label, ok := p.labels[connID]; ok {
		return label
	}
	if len(connID) > fallbackLabelLen {
		return connID[:fallbackLabelLen]
	}
	return connID
}

// RosterOf builds the roster of roomID. It never fails; unknown rooms yield an empty roster.
func (p *Presence) RosterOf(roomID string) *Roster {
	ids := p.members.MemberIDs(roomID)
	members := make([]RosterMember, 0, len(ids))
	for _, id := range ids {
		members = append(members, RosterMember{ConnectionID: id, Label: p.Label(id)})
	}
	return &Roster{RoomID: roomID, Count: len(members), Members: members}
}
