package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ravisabhani/live-poll-battle/internal/events"
	"github.com/ravisabhani/live-poll-battle/internal/metrics"
	"github.com/ravisabhani/live-poll-battle/internal/poll"
	"github.com/ravisabhani/live-poll-battle/internal/rooms"
	"github.com/ravisabhani/live-poll-battle/internal/session"
	"github.com/ravisabhani/live-poll-battle/internal/wshub"
)

// newTestServer wires the full stack on a fake clock so no timer fires unless
// a test advances it.
func newTestServer(t *testing.T) (*Server, *httptest.Server, *clockwork.FakeClock) {
	t.Helper()
	fc := clockwork.NewFakeClock()
	store := rooms.New(rooms.Config{VoteDuration: 60, IdleTTL: time.Hour}, fc)
	hub := wshub.NewHub()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg, store.Len)

	srv := &Server{
		Rooms:          store,
		Hub:            hub,
		Sessions:       session.New(store, hub, m),
		Metrics:        m,
		AllowedOrigins: []string{"*"},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/create-room", srv.handleCreateRoom)
	mux.HandleFunc("/ws", srv.handleWS)
	mux.HandleFunc("/healthz", srv.handleHealth)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return srv, ts, fc
}

func createRoom(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp, err := http.Post(ts.URL+"/create-room", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	var body createRoomResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.RoomCode == "" {
		t.Fatal("empty room code in response")
	}
	return body.RoomCode
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, ts.URL+"/ws", nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, ev events.ClientEvent) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatal(err)
	}
}

func recv(t *testing.T, conn *websocket.Conn) events.ServerEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ev events.ServerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("unmarshal %q: %v", data, err)
	}
	return ev
}

func TestHandleCreateRoom(t *testing.T) {
	srv, ts, _ := newTestServer(t)

	code := createRoom(t, ts)

	if len(code) != 6 {
		t.Errorf("room code length = %d, want 6", len(code))
	}
	if _, err := srv.Rooms.Get(code); err != nil {
		t.Errorf("created room not resolvable: %v", err)
	}
}

func TestHandleCreateRoom_MethodNotAllowed(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/create-room")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusMethodNotAllowed)
	}
}

func TestHandleHealth(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"status":"ok"}` {
		t.Errorf("body = %s, want {\"status\":\"ok\"}", body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts, _ := newTestServer(t)
	createRoom(t, ts)

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "pollbattle_rooms_created_total 1") {
		t.Errorf("metrics output missing rooms_created counter:\n%s", body)
	}
}

func TestWebSocket_JoinUnknownRoom(t *testing.T) {
	_, ts, _ := newTestServer(t)
	conn := dialWS(t, ts)

	send(t, conn, events.ClientEvent{Type: events.TypeJoinRoom, RoomCode: "ZZZZZZ", Username: "alice"})

	got := recv(t, conn)
	if got.Type != events.TypeErrorRoom {
		t.Fatalf("event type = %q, want %q", got.Type, events.TypeErrorRoom)
	}
	if got.Message != "Room not found." {
		t.Errorf("message = %q, want %q", got.Message, "Room not found.")
	}
}

func TestWebSocket_JoinVoteFlow(t *testing.T) {
	_, ts, _ := newTestServer(t)
	code := createRoom(t, ts)

	c1 := dialWS(t, ts)
	send(t, c1, events.ClientEvent{Type: events.TypeJoinRoom, RoomCode: code, Username: "alice"})

	got := recv(t, c1)
	if got.Type != events.TypeVotesUpdated || *got.Votes != (poll.Snapshot{}) {
		t.Fatalf("join snapshot = %+v, want zeroed votes-updated", got)
	}

	send(t, c1, events.ClientEvent{Type: events.TypeVote, RoomCode: code, Option: poll.OptionA})
	got = recv(t, c1)
	if got.Type != events.TypeVotesUpdated || *got.Votes != (poll.Snapshot{OptionA: 1}) {
		t.Fatalf("vote broadcast = %+v, want optionA=1", got)
	}

	// A repeat vote produces no event; the next message c1 sees is the
	// snapshot from re-joining, with the tally unchanged.
	send(t, c1, events.ClientEvent{Type: events.TypeVote, RoomCode: code, Option: poll.OptionB})
	send(t, c1, events.ClientEvent{Type: events.TypeJoinRoom, RoomCode: code, Username: "alice"})
	got = recv(t, c1)
	if got.Type != events.TypeVotesUpdated || *got.Votes != (poll.Snapshot{OptionA: 1}) {
		t.Fatalf("after repeat vote = %+v, want unchanged optionA=1", got)
	}

	// A second participant votes; both connections see the new tally.
	c2 := dialWS(t, ts)
	send(t, c2, events.ClientEvent{Type: events.TypeJoinRoom, RoomCode: code, Username: "bob"})
	for _, conn := range []*websocket.Conn{c1, c2} {
		got = recv(t, conn)
		if got.Type != events.TypeVotesUpdated || *got.Votes != (poll.Snapshot{OptionA: 1}) {
			t.Fatalf("join snapshot = %+v, want optionA=1", got)
		}
	}

	send(t, c2, events.ClientEvent{Type: events.TypeVote, RoomCode: code, Option: poll.OptionB})
	for _, conn := range []*websocket.Conn{c1, c2} {
		got = recv(t, conn)
		if got.Type != events.TypeVotesUpdated || *got.Votes != (poll.Snapshot{OptionA: 1, OptionB: 1}) {
			t.Fatalf("vote broadcast = %+v, want optionA=1 optionB=1", got)
		}
	}
}

func TestWebSocket_TimerBroadcast(t *testing.T) {
	_, ts, fc := newTestServer(t)
	code := createRoom(t, ts)

	conn := dialWS(t, ts)
	send(t, conn, events.ClientEvent{Type: events.TypeJoinRoom, RoomCode: code, Username: "alice"})
	if got := recv(t, conn); got.Type != events.TypeVotesUpdated {
		t.Fatalf("first event = %q, want votes-updated", got.Type)
	}

	// Sleepers: the store sweeper and the room countdown started by the join.
	fc.BlockUntil(2)
	fc.Advance(time.Second)

	got := recv(t, conn)
	if got.Type != events.TypeTimer {
		t.Fatalf("event type = %q, want %q", got.Type, events.TypeTimer)
	}
	if got.RemainingSeconds == nil || *got.RemainingSeconds != 59 {
		t.Errorf("remainingSeconds = %v, want 59", got.RemainingSeconds)
	}
}
