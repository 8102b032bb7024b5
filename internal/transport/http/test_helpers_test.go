package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/gifchat-server/internal/auth"
	"github.com/vovakirdan/gifchat-server/internal/config"
	"github.com/vovakirdan/gifchat-server/internal/core"
	"github.com/vovakirdan/gifchat-server/internal/proto"
	"github.com/vovakirdan/gifchat-server/internal/service/rooms"
	"github.com/vovakirdan/gifchat-server/internal/store/sqlite"
	"github.com/vovakirdan/gifchat-server/internal/upload"
)

type testEnv struct {
	ts      *httptest.Server
	cfg     *config.Config
	auth    *auth.Service
	uploads *upload.Storage
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithLog(t, io.Discard)
}

// newTestEnvWithLog is newTestEnv with every component logging JSON lines to w.
func newTestEnvWithLog(t *testing.T, w io.Writer) *testEnv {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	uploads, err := upload.New(t.TempDir(), 1024)
	if err != nil {
		t.Fatalf("failed to create upload storage: %v", err)
	}

	cfg := config.Default()
	cfg.MaxUploadBytes = uploads.MaxBytes()
	cfg.WhisperRateLimit = 4

	logger := zerolog.New(w)
	roomService := rooms.New(st, uploads, &logger)
	hub := core.NewHub(roomService, &logger, core.WithDeleteTimeout(time.Second))
	roomService.Attach(hub)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		hub.Wait()
	})
	go hub.Run(ctx)

	authService := auth.NewService(&auth.JWTConfig{
		Secret: []byte("test-secret"),
		Issuer: "test",
		TTL:    time.Hour,
	})

	server := NewServer(hub, roomService, authService, uploads, &cfg, &logger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, cfg: &cfg, auth: authService, uploads: uploads}
}

// newClient returns an HTTP client that keeps its session cookie.
func (e *testEnv) newClient(t *testing.T) *stdhttp.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &stdhttp.Client{Jar: jar, Timeout: 5 * time.Second}
}

func (e *testEnv) do(t *testing.T, client *stdhttp.Client, method, path string, body any) (*stdhttp.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := stdhttp.NewRequest(method, e.ts.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.send(t, client, req)
}

func (e *testEnv) send(t *testing.T, client *stdhttp.Client, req *stdhttp.Request) (*stdhttp.Response, []byte) {
	t.Helper()

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func (e *testEnv) createRoom(t *testing.T, client *stdhttp.Client, req CreateRoomRequest) proto.RoomSummary {
	t.Helper()

	resp, body := e.do(t, client, stdhttp.MethodPost, "/room", req)
	if resp.StatusCode != stdhttp.StatusCreated {
		t.Fatalf("create room: status %d: %s", resp.StatusCode, body)
	}
	var room proto.RoomSummary
	if err := json.Unmarshal(body, &room); err != nil {
		t.Fatalf("unmarshal room: %v", err)
	}
	return room
}

func (e *testEnv) roomURL(roomID string) string {
	return e.ts.URL + "/room/" + roomID
}

// dialChat opens a chat websocket whose Referer points at roomID.
// The cookie of client, if any, is forwarded.
func (e *testEnv) dialChat(t *testing.T, ctx context.Context, client *stdhttp.Client, roomID string) *websocket.Conn {
	t.Helper()

	header := stdhttp.Header{}
	header.Set("Referer", e.roomURL(roomID))
	if client != nil && client.Jar != nil {
		req, _ := stdhttp.NewRequest(stdhttp.MethodGet, e.ts.URL, nil)
		for _, cookie := range client.Jar.Cookies(req.URL) {
			req.AddCookie(cookie)
		}
		if cookie := req.Header.Get("Cookie"); cookie != "" {
			header.Set("Cookie", cookie)
		}
	}

	return e.dial(t, ctx, "/ws/chat", header)
}

// dialLobby opens a lobby websocket and returns once the hub has registered it.
// Lobby connections answer any command with an error frame, which is used as the barrier.
func (e *testEnv) dialLobby(t *testing.T, ctx context.Context) *websocket.Conn {
	t.Helper()

	conn := e.dial(t, ctx, "/ws/lobby", nil)
	sendInbound(t, ctx, conn, proto.InboundTypeWho, nil)
	readUntil(t, ctx, conn, func(o wireOutbound) bool { return o.Type == proto.OutboundTypeError })
	return conn
}

func (e *testEnv) dial(t *testing.T, ctx context.Context, path string, header stdhttp.Header) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(e.ts.URL, "http", "ws", 1) + path
	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		t.Fatalf("dial %s: %v", path, err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

type wireOutbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

// readUntil reads frames until one matches, failing on timeout.
func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, match func(wireOutbound) bool) wireOutbound {
	t.Helper()

	for {
		var out wireOutbound
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			t.Fatalf("read ws frame: %v", err)
		}
		if match(out) {
			return out
		}
	}
}

func readEvent(t *testing.T, ctx context.Context, conn *websocket.Conn, event string, into any) {
	t.Helper()

	out := readUntil(t, ctx, conn, func(o wireOutbound) bool {
		return o.Type == proto.OutboundTypeEvent && o.Event == event
	})
	if into != nil {
		if err := json.Unmarshal(out.Data, into); err != nil {
			t.Fatalf("unmarshal %s: %v", event, err)
		}
	}
}

// readParticipants waits for a roster with the given member count.
func readParticipants(t *testing.T, ctx context.Context, conn *websocket.Conn, count int) proto.Participants {
	t.Helper()

	var roster proto.Participants
	readUntil(t, ctx, conn, func(o wireOutbound) bool {
		if o.Event != proto.EventParticipants {
			return false
		}
		roster = proto.Participants{}
		if err := json.Unmarshal(o.Data, &roster); err != nil {
			t.Fatalf("unmarshal participants: %v", err)
		}
		return roster.Count == count
	})
	return roster
}

func sendInbound(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string, data any) {
	t.Helper()

	inbound := proto.Inbound{Type: typ}
	if data != nil {
		payload, err := json.Marshal(data)
		if err != nil {
			t.Fatalf("marshal inbound: %v", err)
		}
		inbound.Data = payload
	}
	if err := wsjson.Write(ctx, conn, inbound); err != nil {
		t.Fatalf("write inbound: %v", err)
	}
}
