package core

import (
	"context"
	"sort"
)

// handleUnregister removes a connection and, when it was the last one in its
// room, asks the deleter to drop the room. The recount happens in this same
// hub step, so two near-simultaneous disconnects cannot both observe zero.
func (h *Hub) handleUnregister(ctx context.Context, c *Client) {
	if existing, ok := h.clients[c.ID]; !ok || existing != c {
		return
	}
	delete(h.clients, c.ID)
	defer func() {
		c.close()
		close(c.Events)
	}()

	if c.Channel == ChannelLobby {
		delete(h.lobby, c.ID)
		h.log.Debug().Str("conn_id", c.ID).Msg("lobby client disconnected")
		return
	}

	roomID := c.Room
	label := h.presence.Label(c.ID)
	removed := h.members.Leave(c.ID, roomID)
	h.presence.Unregister(c.ID)
	remaining := h.members.MemberCount(roomID)

	h.log.Debug().
		Str("conn_id", c.ID).
		Str("room_id", roomID).
		Int("members", remaining).
		Msg("client left room")

	h.broadcastRoster(roomID)

	if !removed {
		return
	}
	if remaining == 0 {
		h.deleteRoom(ctx, roomID, c.Session)
		return
	}
	h.broadcast(roomID, &Event{Kind: EventExit, Room: roomID, Notice: exitNotice(label)})
}

// deleteRoom fires the deletion call once, off the hub goroutine.
// Failures are logged and not retried.
func (h *Hub) deleteRoom(ctx context.Context, roomID string, by Session) {
	if roomID == "" {
		h.log.Debug().Msg("connection without room left, nothing to delete")
		return
	}
	if h.deleter == nil {
		return
	}

	h.log.Info().Str("room_id", roomID).Str("color", by.Color).Msg("room is empty, deleting")

	h.deletions.Add(1)
	go func() {
		defer h.deletions.Done()
		delCtx := context.WithoutCancel(ctx)
		if h.deleteTimeout > 0 {
			var cancel context.CancelFunc
			delCtx, cancel = context.WithTimeout(delCtx, h.deleteTimeout)
			defer cancel()
		}
		if err := h.deleter.DeleteRoom(delCtx, roomID, by); err != nil {
			h.log.Warn().Err(err).Str("room_id", roomID).Msg("failed to delete empty room")
		}
	}()
}

// drainClients runs the leave step for every connection still attached when
// the hub stops, in join order, so occupied rooms are deleted as well.
func (h *Hub) drainClients(ctx context.Context) {
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].seq < clients[j].seq })

	for _, c := range clients {
		h.handleUnregister(ctx, c)
	}
	h.log.Debug().Int("clients", len(clients)).Msg("hub stopped, connections drained")
}
