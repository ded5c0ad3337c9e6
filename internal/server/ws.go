package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lox/holdemtable/internal/game"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192

	sendBuffer = 256
)

// Command types a client may send.
const (
	CmdState  = "state"
	CmdStart  = "start"
	CmdAction = "action"
	CmdJoin   = "join"
	CmdLeave  = "leave"
)

// Frame types sent only to the requesting client.
const (
	FrameState = "state"
	FrameAck   = "ack"
	FrameError = "error"
)

// Command is a client request over the socket.
type Command struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

type client struct {
	conn    *websocket.Conn
	send    chan []byte
	tableID string
	seat    int
	logger  zerolog.Logger

	closeOnce sync.Once
	done      chan struct{}
}

// enqueue hands frame to the writer. It reports false when the client's
// buffer is full or it is already closed.
func (c *client) enqueue(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

// handleWebSocket subscribes the connection to a table's events. The
// optional ?seat=N query binds it to a seat for private state.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	tableID := chi.URLParam(r, "table")
	seat, err := queryInt(r, "seat", -1)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	snap, err := s.manager.Snapshot(tableID, seat)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to upgrade connection")
		return
	}
	c := &client{
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		tableID: tableID,
		seat:    seat,
		logger:  s.logger.With().Str("table_id", tableID).Int("seat", seat).Logger(),
		done:    make(chan struct{}),
	}

	s.reply(c, Envelope{Type: FrameState, TableID: tableID, Data: snap})
	s.hub.add(c)
	go s.writePump(c)
	s.readPump(r.Context(), c)
}

// readPump handles incoming commands until the connection fails.
func (s *Server) readPump(ctx context.Context, c *client) {
	defer func() {
		s.hub.remove(c)
		c.close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var cmd Command
		if err := c.conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn().Err(err).Msg("websocket closed unexpectedly")
			}
			return
		}
		s.handleCommand(ctx, c, cmd)
	}
}

// writePump sends queued frames and keeps the connection alive.
func (s *Server) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Debug().Err(err).Msg("failed to write frame")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}

func (s *Server) reply(c *client, env Envelope) {
	frame, err := json.Marshal(env)
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to encode reply")
		return
	}
	if !c.enqueue(frame) {
		c.close()
	}
}

func (s *Server) handleCommand(ctx context.Context, c *client, cmd Command) {
	c.logger.Debug().Str("type", cmd.Type).Msg("received command")

	err := s.dispatch(ctx, c, cmd)
	if err != nil {
		_, code := statusFor(err)
		s.reply(c, Envelope{
			Type:      FrameError,
			TableID:   c.tableID,
			RequestID: cmd.RequestID,
			Data:      errorResponse{Error: err.Error(), Code: code},
		})
		return
	}
	if cmd.Type != CmdState {
		s.reply(c, Envelope{Type: FrameAck, TableID: c.tableID, RequestID: cmd.RequestID})
	}
}

func (s *Server) dispatch(ctx context.Context, c *client, cmd Command) error {
	switch cmd.Type {
	case CmdState:
		snap, err := s.manager.Snapshot(c.tableID, c.seat)
		if err != nil {
			return err
		}
		s.reply(c, Envelope{Type: FrameState, TableID: c.tableID, RequestID: cmd.RequestID, Data: snap})
		return nil

	case CmdStart:
		return s.manager.StartHand(ctx, c.tableID)

	case CmdAction:
		var a game.Action
		if err := json.Unmarshal(cmd.Data, &a); err != nil {
			return fmt.Errorf("%w: %v", errBadRequest, err)
		}
		if c.seat >= 0 {
			a.Seat = c.seat
		}
		return s.manager.SubmitAction(ctx, c.tableID, a)

	case CmdJoin:
		var req struct {
			joinRequest
			Seat int `json:"seat"`
		}
		if err := json.Unmarshal(cmd.Data, &req); err != nil {
			return fmt.Errorf("%w: %v", errBadRequest, err)
		}
		if req.Name == "" {
			return fmt.Errorf("%w: name is required", errBadRequest)
		}
		if req.ID == "" {
			req.ID = req.Name
		}
		occ := game.Occupant{ID: req.ID, Name: req.Name, Bot: req.Bot}
		if err := s.manager.JoinSeat(ctx, c.tableID, req.Seat, occ, req.Chips); err != nil {
			return err
		}
		if !occ.IsBot() {
			c.seat = req.Seat
		}
		return nil

	case CmdLeave:
		if c.seat < 0 {
			return fmt.Errorf("%w: connection is not seated", errBadRequest)
		}
		if err := s.manager.LeaveSeat(ctx, c.tableID, c.seat); err != nil {
			return err
		}
		c.seat = -1
		return nil
	}
	return fmt.Errorf("%w: unknown command %q", errBadRequest, cmd.Type)
}
