package http

import (
	"encoding/json"

	"github.com/vovakirdan/gifchat-server/internal/core"
	"github.com/vovakirdan/gifchat-server/internal/proto"
	"github.com/vovakirdan/gifchat-server/internal/store"
)

func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeWho:
		return &core.Command{Kind: core.CommandWho}, nil, nil
	case proto.InboundTypeWhisper:
		var data proto.WhisperSendData
		if len(inbound.Data) > 0 {
			if err := json.Unmarshal(inbound.Data, &data); err != nil {
				return nil, nil, err
			}
		}
		// Empty fields are reported by the core as whisper:error.
		return &core.Command{
			Kind: core.CommandWhisper,
			To:   data.To,
			Text: data.Chat,
		}, nil, nil
	default:
		return nil, &proto.Error{Code: "invalid_message", Msg: "unknown message type"}, nil
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventRoster:
		return eventOutbound(proto.EventParticipants, participantsFromRoster(event.Room, event.Roster))
	case core.EventWhisper:
		w := event.Whisper
		return eventOutbound(proto.EventWhisper, proto.Whisper{
			User:    w.User,
			Chat:    w.Chat,
			FromID:  w.FromID,
			ToID:    w.ToID,
			RoomID:  w.RoomID,
			Private: w.Private,
		})
	case core.EventWhisperError:
		msg := ""
		if event.Error != nil {
			msg = event.Error.Message
		}
		return eventOutbound(proto.EventWhisperError, proto.WhisperError{Message: msg})
	case core.EventJoin:
		return eventOutbound(proto.EventJoin, proto.Notice{User: event.Notice.User, Chat: event.Notice.Chat})
	case core.EventExit:
		return eventOutbound(proto.EventExit, proto.Notice{User: event.Notice.User, Chat: event.Notice.Chat})
	case core.EventChat:
		return eventOutbound(proto.EventChat, chatFromStore(event.Chat))
	case core.EventNewRoom:
		return eventOutbound(proto.EventNewRoom, roomSummary(event.Info))
	case core.EventRemoveRoom:
		return eventOutbound(proto.EventRemoveRoom, proto.RemoveRoom{RoomID: event.Room})
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

func eventOutbound(name string, data any) proto.Outbound {
	return proto.Outbound{Type: proto.OutboundTypeEvent, Event: name, Data: data}
}

func participantsFromRoster(roomID string, roster *core.Roster) proto.Participants {
	out := proto.Participants{RoomID: roomID, Members: []proto.Participant{}}
	if roster == nil {
		return out
	}
	out.RoomID = roster.RoomID
	out.Count = roster.Count
	for _, m := range roster.Members {
		out.Members = append(out.Members, proto.Participant{ConnectionID: m.ConnectionID, Label: m.Label})
	}
	return out
}

func chatFromStore(chat *store.Chat) proto.Chat {
	return proto.Chat{
		ID:        chat.ID,
		RoomID:    chat.RoomID,
		User:      chat.User,
		Chat:      chat.Text,
		GIF:       chat.GIF,
		CreatedAt: chat.CreatedAt.UnixMilli(),
	}
}

func roomSummary(room *store.Room) proto.RoomSummary {
	return proto.RoomSummary{
		ID:          room.ID,
		Title:       room.Title,
		Max:         room.Max,
		Owner:       room.Owner,
		HasPassword: room.HasPassword(),
		CreatedAt:   room.CreatedAt.UnixMilli(),
	}
}
