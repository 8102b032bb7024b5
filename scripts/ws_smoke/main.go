package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/gifchat-server/internal/proto"
)

type outbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

// run creates a room, connects two participants, whispers between them,
// disconnects both and checks that the room was deleted.
func run() error {
	server := flag.String("server", "http://localhost:8005", "server base URL")
	title := flag.String("title", "smoke test", "title of the temporary room")
	text := flag.String("text", "hello from smoke test", "whisper text to send")
	timeout := flag.Duration("timeout", 10*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	roomID, err := createRoom(*server, *title)
	if err != nil {
		return err
	}
	fmt.Printf("Created room %s\n", roomID)

	roomURL := *server + "/room/" + roomID
	first, err := dial(ctx, *server, roomURL)
	if err != nil {
		return err
	}
	defer first.Close(websocket.StatusNormalClosure, "bye")
	if _, err := waitRoster(ctx, first, 1); err != nil {
		return err
	}

	second, err := dial(ctx, *server, roomURL)
	if err != nil {
		return err
	}
	defer second.Close(websocket.StatusNormalClosure, "bye")

	roster, err := waitRoster(ctx, first, 2)
	if err != nil {
		return err
	}
	target := roster.Members[1]
	fmt.Printf("Participants: %s, %s\n", roster.Members[0].Label, target.Label)

	payload, err := json.Marshal(proto.WhisperSendData{To: target.ConnectionID, Chat: *text})
	if err != nil {
		return fmt.Errorf("marshal whisper: %w", err)
	}
	if err := wsjson.Write(ctx, first, proto.Inbound{Type: proto.InboundTypeWhisper, Data: payload}); err != nil {
		return fmt.Errorf("send whisper: %w", err)
	}

	out, err := waitEvent(ctx, second, proto.EventWhisper)
	if err != nil {
		return err
	}
	var whisper proto.Whisper
	if err := json.Unmarshal(out.Data, &whisper); err != nil {
		return fmt.Errorf("unmarshal whisper: %w", err)
	}
	fmt.Printf("Whisper: from=%s to=%s user=%s chat=%q\n", whisper.FromID, whisper.ToID, whisper.User, whisper.Chat)

	_ = second.Close(websocket.StatusNormalClosure, "bye")
	_ = first.Close(websocket.StatusNormalClosure, "bye")

	for {
		resp, err := http.Get(roomURL)
		if err != nil {
			return fmt.Errorf("check room: %w", err)
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusNotFound {
			fmt.Println("Room deleted after last participant left")
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.New("room was not deleted in time")
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func createRoom(server, title string) (string, error) {
	body, err := json.Marshal(map[string]any{"title": title})
	if err != nil {
		return "", err
	}
	resp, err := http.Post(server+"/room", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create room: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("create room: status %d", resp.StatusCode)
	}
	var room proto.RoomSummary
	if err := json.NewDecoder(resp.Body).Decode(&room); err != nil {
		return "", fmt.Errorf("decode room: %w", err)
	}
	return room.ID, nil
}

func dial(ctx context.Context, server, referer string) (*websocket.Conn, error) {
	header := http.Header{}
	header.Set("Referer", referer)
	wsURL := strings.Replace(server, "http", "ws", 1) + "/ws/chat"
	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	return conn, nil
}

func waitEvent(ctx context.Context, conn *websocket.Conn, event string) (outbound, error) {
	for {
		var out outbound
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			return out, fmt.Errorf("read: %w", err)
		}
		if out.Error != nil {
			fmt.Printf("Error: %s %s\n", out.Error.Code, out.Error.Msg)
		}
		if out.Event == event {
			return out, nil
		}
	}
}

func waitRoster(ctx context.Context, conn *websocket.Conn, count int) (proto.Participants, error) {
	for {
		out, err := waitEvent(ctx, conn, proto.EventParticipants)
		if err != nil {
			return proto.Participants{}, err
		}
		var roster proto.Participants
		if err := json.Unmarshal(out.Data, &roster); err != nil {
			return roster, fmt.Errorf("unmarshal participants: %w", err)
		}
		if roster.Count == count {
			return roster, nil
		}
	}
}
