package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/gifchat-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	server := flag.String("server", "http://localhost:8005", "server base URL")
	room := flag.String("room", "", "room id to join")
	flag.Parse()

	if *room == "" {
		return errors.New("-room is required")
	}

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	jar, err := cookiejar.New(nil)
	if err != nil {
		return fmt.Errorf("cookie jar: %w", err)
	}
	client := &http.Client{Jar: jar}

	// Fetching the session sets the cookie that carries our color.
	var session struct {
		Color string `json:"color"`
	}
	if err := getJSON(client, *server+"/session", &session); err != nil {
		return fmt.Errorf("session: %w", err)
	}

	roomURL := *server + "/room/" + url.PathEscape(*room)
	header := http.Header{}
	header.Set("Referer", roomURL)
	if base, err := url.Parse(*server); err == nil {
		for _, c := range jar.Cookies(base) {
			header.Add("Cookie", c.String())
		}
	}

	wsURL := strings.Replace(*server, "http", "ws", 1) + "/ws/chat"
	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	fmt.Printf("Connected to room %s as %s\n", *room, session.Color)
	fmt.Println("Type to chat, /who for participants, /w <connection-id> <text> to whisper. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn, client, roomURL)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var outbound struct {
			Type  string          `json:"type"`
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
			Error *proto.Error    `json:"error"`
		}
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			// Treat expected shutdowns quietly.
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		if outbound.Type == proto.OutboundTypeError && outbound.Error != nil {
			fmt.Printf("! %s: %s\n", outbound.Error.Code, outbound.Error.Msg)
			continue
		}

		switch outbound.Event {
		case proto.EventParticipants:
			var evt proto.Participants
			if err := json.Unmarshal(outbound.Data, &evt); err != nil {
				log.Printf("unmarshal participants: %v", err)
				continue
			}
			fmt.Printf("-- %d in room:", evt.Count)
			for _, m := range evt.Members {
				fmt.Printf(" %s(%s)", m.Label, m.ConnectionID)
			}
			fmt.Println()
		case proto.EventJoin, proto.EventExit:
			var evt proto.Notice
			if err := json.Unmarshal(outbound.Data, &evt); err != nil {
				log.Printf("unmarshal notice: %v", err)
				continue
			}
			fmt.Printf("-- %s\n", evt.Chat)
		case proto.EventChat:
			var evt proto.Chat
			if err := json.Unmarshal(outbound.Data, &evt); err != nil {
				log.Printf("unmarshal chat: %v", err)
				continue
			}
			if evt.GIF != "" {
				fmt.Printf("%s: [gif /gif/%s]\n", evt.User, evt.GIF)
				continue
			}
			fmt.Printf("%s: %s\n", evt.User, evt.Chat)
		case proto.EventWhisper:
			var evt proto.Whisper
			if err := json.Unmarshal(outbound.Data, &evt); err != nil {
				log.Printf("unmarshal whisper: %v", err)
				continue
			}
			fmt.Printf("%s (whisper %s -> %s): %s\n", evt.User, evt.FromID, evt.ToID, evt.Chat)
		case proto.EventWhisperError:
			var evt proto.WhisperError
			if err := json.Unmarshal(outbound.Data, &evt); err == nil {
				fmt.Printf("! whisper failed: %s\n", evt.Message)
			}
		default:
			fmt.Printf("event=%s data=%s\n", outbound.Event, outbound.Data)
		}
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn, client *http.Client, roomURL string) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}

			var err error
			switch {
			case text == "/who":
				err = wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeWho})
			case strings.HasPrefix(text, "/w "):
				to, msg, _ := strings.Cut(strings.TrimPrefix(text, "/w "), " ")
				payload, marshalErr := json.Marshal(proto.WhisperSendData{To: to, Chat: msg})
				if marshalErr != nil {
					log.Printf("marshal whisper: %v", marshalErr)
					return
				}
				err = wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeWhisper, Data: payload})
			default:
				err = postChat(client, roomURL, text)
			}
			if err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
}

func getJSON(client *http.Client, target string, into any) error {
	resp, err := client.Get(target)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(into)
}

func postChat(client *http.Client, roomURL, text string) error {
	body, err := json.Marshal(map[string]string{"chat": text})
	if err != nil {
		return err
	}
	resp, err := client.Post(roomURL+"/chat", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("post chat: status %d", resp.StatusCode)
	}
	return nil
}
