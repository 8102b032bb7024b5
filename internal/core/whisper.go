package core

// whisper validates a private message and delivers it to the target and,
// as an echo, to the sender. Nothing else in the room sees it.
func (h *Hub) whisper(sender *Client, cmd *Command) {
	roomID := sender.Room

	if cmd.To == "" || cmd.Text == "" {
		h.whisperError(sender, MsgWhisperMissing)
		return
	}
	target, ok := h.members.Member(roomID, cmd.To)
	if !ok {
		h.whisperError(sender, MsgWhisperNotHere)
		return
	}
	if target.ID == sender.ID {
		h.whisperError(sender, MsgWhisperSelf)
		return
	}

	event := &Event{
		Kind: EventWhisper,
		Room: roomID,
		Whisper: &Whisper{
			User:    h.presence.Label(sender.ID),
			Chat:    cmd.Text,
			FromID:  sender.ID,
			ToID:    target.ID,
			RoomID:  roomID,
			Private: true,
		},
	}
	target.send(event)
	sender.send(event)
}

func (h *Hub) whisperError(sender *Client, msg string) {
	h.log.Debug().Str("conn_id", sender.ID).Str("room_id", sender.Room).Str("reason", msg).Msg("whisper rejected")
	sender.send(&Event{Kind: EventWhisperError, Room: sender.Room, Error: coreError(ErrCodeBadRequest, msg)})
}
