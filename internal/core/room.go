package core

import "sort"

// Room groups the clients joined to the same room id.
type Room struct {
	ID      string
	clients map[string]*Client
}

// NewRoom constructs a room with no clients.
func NewRoom(id string) *Room {
	return &Room{
		ID:      id,
		clients: make(map[string]*Client),
	}
}

// AddClient inserts a client into the room. Returns true if newly added.
func (r *Room) AddClient(c *Client) bool {
	if _, exists := r.clients[c.ID]; exists {
		return false
	}
	r.clients[c.ID] = c
	return true
}

// RemoveClient deletes a client from the room. Returns true if removed.
func (r *Room) RemoveClient(id string) bool {
	if _, exists := r.clients[id]; !exists {
		return false
	}
	delete(r.clients, id)
	return true
}

// Clients returns the members in join order.
func (r *Room) Clients() []*Client {
	out := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// Broadcast sends an event to all clients in the room.
func (r *Room) Broadcast(event *Event) {
	for _, client := range r.clients {
		client.send(event)
	}
}

// Len returns the number of clients in the room.
func (r *Room) Len() int {
	return len(r.clients)
}

// Empty returns true if no clients are in the room.
func (r *Room) Empty() bool {
	return len(r.clients) == 0
}

// Membership is the authoritative record of which connection is in which room.
// It is owned by the hub goroutine and is not safe for concurrent use.
type Membership struct {
	rooms map[string]*Room
}

// NewMembership returns an empty membership table.
func NewMembership() *Membership {
	return &Membership{rooms: make(map[string]*Room)}
}

// Join adds the client to roomID's group. An empty roomID is a valid group.
func (m *Membership) Join(c *Client, roomID string) bool {
	room, ok := m.rooms[roomID]
	if !ok {
		room = NewRoom(roomID)
		m.rooms[roomID] = room
	}
	return room.AddClient(c)
}

// Leave removes the connection from roomID's group and drops empty groups.
func (m *Membership) Leave(connID, roomID string) bool {
	room, ok := m.rooms[roomID]
	if !ok {
		return false
	}
	removed := room.RemoveClient(connID)
	if room.Empty() {
		delete(m.rooms, roomID)
	}
	return removed
}

// Room returns the group for roomID, or nil if nobody is in it.
func (m *Membership) Room(roomID string) *Room {
	return m.rooms[roomID]
}

// Member returns the client with connID if it is in roomID.
func (m *Membership) Member(roomID, connID string) (*Client, bool) {
	room, ok := m.rooms[roomID]
	if !ok {
		return nil, false
	}
	c, ok := room.clients[connID]
	return c, ok
}

// Has reports whether connID is currently a member of roomID.
func (m *Membership) Has(roomID, connID string) bool {
	_, ok := m.Member(roomID, connID)
	return ok
}

// MemberIDs returns the connection ids in roomID in join order; empty for unknown rooms.
func (m *Membership) MemberIDs(roomID string) []string {
	room, ok := m.rooms[roomID]
	if !ok {
		return []string{}
	}
	clients := room.Clients()
	ids := make([]string, 0, len(clients))
	for _, c := range clients {
		ids = append(ids, c.ID)
	}
	return ids
}

// MemberCount returns the number of connections in roomID.
func (m *Membership) MemberCount(roomID string) int {
	room, ok := m.rooms[roomID]
	if !ok {
		return 0
	}
	return room.Len()
}
