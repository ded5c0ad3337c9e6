package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/holdemtable/internal/game"
	"github.com/lox/holdemtable/internal/session"
)

const wait = 5 * time.Second

type fixture struct {
	srv     *httptest.Server
	hub     *Hub
	manager *session.Manager
	ctx     context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zerolog.Nop()
	hub := NewHub(logger)
	m := session.NewManager(session.WithSink(hub), session.WithLogger(logger), session.WithSeed(5))

	tbl, err := game.NewTable("main", game.Config{
		Capacity: 4, Mode: game.ModeBlinds, SmallBlind: 5, BigBlind: 10, InitialChips: 1000,
	})
	require.NoError(t, err)
	_, err = m.Add(tbl)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	srv := httptest.NewServer(New(m, hub, logger))
	t.Cleanup(func() {
		hub.CloseAll()
		srv.Close()
		cancel()
		<-done
	})
	return &fixture{srv: srv, hub: hub, manager: m, ctx: ctx}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.srv.URL+path, &buf)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealthAndTables(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/tables", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tables := decode[[]tableSummary](t, resp)
	require.Len(t, tables, 1)
	assert.Equal(t, tableSummary{ID: "main", Stage: "idle", Players: 0, MaxPlayers: 4}, tables[0])
}

func TestSeatsAndRoster(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/tables/main/seats/0", joinRequest{Name: "ann"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = f.do(t, http.MethodPost, "/tables/main/seats/0", joinRequest{Name: "bob"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "seat_occupied", decode[errorResponse](t, resp).Code)
	resp = f.do(t, http.MethodPost, "/tables/main/seats/9", joinRequest{Name: "bob"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = f.do(t, http.MethodPost, "/tables/main/seats/1", joinRequest{Name: "hal", Bot: "genius"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = f.do(t, http.MethodPost, "/tables/main/seats/1", joinRequest{Name: "hal", Bot: "advanced", Chips: 400})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/tables/main/roster", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	roster := decode[game.Roster](t, resp)
	assert.True(t, roster.Success)
	assert.Equal(t, 4, roster.MaxPlayers)
	assert.Equal(t, []game.RosterEntry{
		{Position: 0, ID: "ann", Name: "ann", Chips: 1000},
		{Position: 1, ID: "hal", Name: "hal", Chips: 400, Bot: true, Tier: "advanced"},
	}, roster.Players)

	resp = f.do(t, http.MethodGet, "/tables/nope/roster", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	missing := decode[game.Roster](t, resp)
	assert.False(t, missing.Success)
	assert.Empty(t, missing.Players)

	resp = f.do(t, http.MethodDelete, "/tables/main/seats/0", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = f.do(t, http.MethodDelete, "/tables/main/seats/0", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestPlayHandOverHTTP(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/tables/main/start", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "insufficient_players", decode[errorResponse](t, resp).Code)

	f.do(t, http.MethodPost, "/tables/main/seats/0", joinRequest{Name: "ann"})
	f.do(t, http.MethodPost, "/tables/main/seats/1", joinRequest{Name: "bob"})

	resp = f.do(t, http.MethodPost, "/tables/main/start", nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/tables/main?seat=0", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap := decode[session.Snapshot](t, resp)
	assert.Equal(t, session.StageInHand, snap.Stage)
	assert.Equal(t, 0, snap.Actor)
	assert.Len(t, snap.Seats[0].Hole, 2)
	assert.Nil(t, snap.Seats[1].Hole)
	assert.NotEmpty(t, snap.Legal)

	resp = f.do(t, http.MethodGet, "/tables/main/equity?seat=0&simulations=100", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	eq := decode[equityResponse](t, resp)
	assert.Equal(t, 100, eq.Simulations)

	resp = f.do(t, http.MethodPost, "/tables/main/actions", map[string]any{"seat": 1, "kind": "check"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "not_your_turn", decode[errorResponse](t, resp).Code)
	resp = f.do(t, http.MethodPost, "/tables/main/actions", map[string]any{"seat": 0, "kind": "dance"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = f.do(t, http.MethodPost, "/tables/main/actions", map[string]any{"seat": 0, "kind": "fold"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.Eventually(t, func() bool {
		resp := f.do(t, http.MethodGet, "/tables/main/history", nil)
		return len(decode[[]game.HandRecord](t, resp)) == 1
	}, wait, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		resp := f.do(t, http.MethodDelete, "/tables/main", nil)
		return resp.StatusCode == http.StatusNoContent
	}, wait, 10*time.Millisecond)
	resp = f.do(t, http.MethodGet, "/tables/main", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func dial(t *testing.T, f *fixture, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/tables/main/ws" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

type frame struct {
	Type      string          `json:"type"`
	TableID   string          `json:"table_id"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
}

// readUntil reads frames until one of type typ arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(wait)))
	for {
		var fr frame
		require.NoError(t, conn.ReadJSON(&fr))
		if fr.Type == typ {
			return fr
		}
	}
}

func TestWebSocketPlay(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	ann := dial(t, f, "")
	state := readUntil(t, ann, FrameState)
	assert.Equal(t, "main", state.TableID)
	require.Eventually(t, func() bool { return f.hub.Subscribers("main") == 1 }, wait, time.Millisecond)

	require.NoError(t, ann.WriteJSON(Command{Type: CmdJoin, RequestID: "j1", Data: json.RawMessage(`{"name":"ann","seat":0}`)}))
	ack := readUntil(t, ann, FrameAck)
	assert.Equal(t, "j1", ack.RequestID)

	watcher := dial(t, f, "")
	readUntil(t, watcher, FrameState)
	require.NoError(t, watcher.WriteJSON(Command{Type: CmdJoin, Data: json.RawMessage(`{"name":"bo","seat":0}`)}))
	errFrame := readUntil(t, watcher, FrameError)
	var e errorResponse
	require.NoError(t, json.Unmarshal(errFrame.Data, &e))
	assert.Equal(t, "seat_occupied", e.Code)

	require.NoError(t, watcher.WriteJSON(Command{Type: CmdJoin, Data: json.RawMessage(`{"name":"bo","seat":1}`)}))
	readUntil(t, watcher, FrameAck)

	require.NoError(t, ann.WriteJSON(Command{Type: CmdStart, RequestID: "s1"}))
	started := readUntil(t, ann, game.EventHandStarted)
	var hs game.HandStarted
	require.NoError(t, json.Unmarshal(started.Data, &hs))
	assert.Equal(t, 1, hs.HandNumber)

	req := readUntil(t, watcher, game.EventActionRequested)
	var ar game.ActionRequested
	require.NoError(t, json.Unmarshal(req.Data, &ar))
	assert.Equal(t, 0, ar.Seat)

	// The seat comes from the connection, not the payload.
	require.NoError(t, ann.WriteJSON(Command{Type: CmdAction, Data: json.RawMessage(`{"seat":1,"kind":"fold"}`)}))
	settled := readUntil(t, watcher, game.EventHandSettled)
	var hsd game.HandSettled
	require.NoError(t, json.Unmarshal(settled.Data, &hsd))
	require.Len(t, hsd.Record.Winners, 1)
	assert.Equal(t, 1, hsd.Record.Winners[0].Seat)

	require.NoError(t, ann.WriteJSON(Command{Type: "dance", RequestID: "x"}))
	bad := readUntil(t, ann, FrameError)
	assert.Equal(t, "x", bad.RequestID)

	require.NoError(t, ann.WriteJSON(Command{Type: CmdLeave}))
	readUntil(t, ann, FrameAck)
	roster, err := f.manager.Roster("main")
	require.NoError(t, err)
	require.Len(t, roster.Players, 1)
	assert.Equal(t, "bo", roster.Players[0].Name)
}

func TestWebSocketUnknownTable(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/tables/nope/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSlowClientIsDropped(t *testing.T) {
	t.Parallel()

	hub := NewHub(zerolog.Nop())
	c := &client{send: make(chan []byte, 1), tableID: "main", seat: -1, done: make(chan struct{})}
	hub.clients["main"] = map[*client]struct{}{c: {}}
	c.send <- []byte("full")

	hub.Publish("main", game.PotUpdated{HandNumber: 1, Total: 15})
	assert.Zero(t, hub.Subscribers("main"))
	select {
	case <-c.done:
	default:
		t.Fatal("slow client should be closed")
	}
}

func TestCreateTable(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/tables", createTableRequest{ID: "heads-up", MaxPlayers: 2, SmallBlind: 1, BigBlind: 2})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, tableSummary{ID: "heads-up", Stage: "idle", MaxPlayers: 2}, decode[tableSummary](t, resp))

	resp = f.do(t, http.MethodPost, "/tables", createTableRequest{ID: "heads-up", MaxPlayers: 2})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/tables", createTableRequest{MaxPlayers: 5})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/tables", createTableRequest{GameMode: "ante", AntePercent: 0.02})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[tableSummary](t, resp)
	assert.Len(t, created.ID, 26)

	assert.Equal(t, []string{created.ID, "heads-up", "main"}, f.manager.Tables())
}
