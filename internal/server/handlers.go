package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lox/holdemtable/internal/bot"
	"github.com/lox/holdemtable/internal/config"
	"github.com/lox/holdemtable/internal/game"
	"github.com/lox/holdemtable/internal/session"
	"github.com/lox/holdemtable/internal/tableid"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// statusFor maps engine errors to HTTP statuses and stable codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, game.ErrUnknownTable):
		return http.StatusNotFound, "unknown_table"
	case errors.Is(err, game.ErrTableClosed):
		return http.StatusGone, "table_closed"
	case errors.Is(err, game.ErrNotYourTurn):
		return http.StatusConflict, "not_your_turn"
	case errors.Is(err, game.ErrIllegalAction):
		return http.StatusBadRequest, "illegal_action"
	case errors.Is(err, game.ErrInvalidSeat):
		return http.StatusBadRequest, "invalid_seat"
	case errors.Is(err, game.ErrSeatOccupied):
		return http.StatusConflict, "seat_occupied"
	case errors.Is(err, game.ErrSeatEmpty):
		return http.StatusConflict, "seat_empty"
	case errors.Is(err, game.ErrAlreadySeated):
		return http.StatusConflict, "already_seated"
	case errors.Is(err, game.ErrHandInProgress):
		return http.StatusConflict, "hand_in_progress"
	case errors.Is(err, game.ErrNoHand):
		return http.StatusConflict, "no_hand"
	case errors.Is(err, game.ErrInsufficientPlayers):
		return http.StatusConflict, "insufficient_players"
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "bad_request"
	}
	return http.StatusInternalServerError, "internal"
}

var errBadRequest = errors.New("bad request")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Code: code})
}

func intParam(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", errBadRequest, name)
	}
	return v, nil
}

// queryInt reads an optional integer query parameter.
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", errBadRequest, name)
	}
	return v, nil
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxMessageSize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "tables": len(s.manager.Tables())})
}

func (s *Server) handleTables(w http.ResponseWriter, _ *http.Request) {
	ids := s.manager.Tables()
	out := make([]tableSummary, 0, len(ids))
	for _, id := range ids {
		snap, err := s.manager.Snapshot(id, -1)
		if err != nil {
			continue
		}
		out = append(out, tableSummary{
			ID:         id,
			Stage:      string(snap.Stage),
			HandNumber: snap.HandNumber,
			Players:    len(snap.Roster.Players),
			MaxPlayers: snap.Roster.MaxPlayers,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type tableSummary struct {
	ID         string `json:"id"`
	Stage      string `json:"stage"`
	HandNumber int    `json:"hand_number"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"max_players"`
}

type createTableRequest struct {
	ID           string  `json:"id,omitempty"`
	MaxPlayers   int     `json:"max_players,omitempty"`
	GameMode     string  `json:"game_mode,omitempty"`
	SmallBlind   int     `json:"small_blind,omitempty"`
	BigBlind     int     `json:"big_blind,omitempty"`
	AntePercent  float64 `json:"ante_percent,omitempty"`
	InitialChips int     `json:"initial_chips,omitempty"`
	AutoStart    string  `json:"auto_start,omitempty"`
}

// handleCreateTable opens a new table. Omitted settings take the same
// defaults as a table block in the config file.
func (s *Server) handleCreateTable(w http.ResponseWriter, r *http.Request) {
	var req createTableRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.ID == "" {
		req.ID = tableid.New()
	}

	cfg := config.Default()
	cfg.Tables = []config.TableConfig{{
		ID:           req.ID,
		MaxPlayers:   req.MaxPlayers,
		GameMode:     req.GameMode,
		SmallBlind:   req.SmallBlind,
		BigBlind:     req.BigBlind,
		AntePercent:  req.AntePercent,
		InitialChips: req.InitialChips,
		AutoStart:    req.AutoStart,
	}}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	tables, err := cfg.BuildTables()
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	timing := s.timing
	timing.AutoStart, _ = cfg.Tables[0].AutoStartDelay()
	if _, err := s.manager.Add(tables[0], session.WithConfig(timing)); err != nil {
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "table_exists"})
		return
	}
	s.logger.Info().Str("table_id", req.ID).Msg("table created")
	writeJSON(w, http.StatusCreated, tableSummary{
		ID:         req.ID,
		Stage:      string(session.StageIdle),
		MaxPlayers: len(tables[0].Seats),
	})
}

// handleState returns the table snapshot. ?seat=N shows that seat's hole
// cards and, on its turn, its legal actions.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	seat, err := queryInt(r, "seat", -1)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	snap, err := s.manager.Snapshot(chi.URLParam(r, "table"), seat)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleRoster(w http.ResponseWriter, r *http.Request) {
	roster, err := s.manager.Roster(chi.URLParam(r, "table"))
	if err != nil {
		status, code := statusFor(err)
		writeJSON(w, status, struct {
			game.Roster
			Error string `json:"error"`
			Code  string `json:"code"`
		}{roster, err.Error(), code})
		return
	}
	writeJSON(w, http.StatusOK, roster)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	records, err := s.manager.History(r.Context(), chi.URLParam(r, "table"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if records == nil {
		records = []game.HandRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

type equityResponse struct {
	Seat        int     `json:"seat"`
	Simulations int     `json:"simulations"`
	Win         float64 `json:"win"`
	Tie         float64 `json:"tie"`
	Equity      float64 `json:"equity"`
}

func (s *Server) handleEquity(w http.ResponseWriter, r *http.Request) {
	seat, err := queryInt(r, "seat", -1)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sims, err := queryInt(r, "simulations", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.manager.Equity(r.Context(), chi.URLParam(r, "table"), seat, sims)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, equityResponse{
		Seat:        seat,
		Simulations: res.Simulations,
		Win:         res.WinRate(),
		Tie:         res.TieRate(),
		Equity:      res.Equity(),
	})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.StartHand(r.Context(), chi.URLParam(r, "table")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	var a game.Action
	if err := decodeBody(r, &a); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.manager.SubmitAction(r.Context(), chi.URLParam(r, "table"), a); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type joinRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Bot   string `json:"bot,omitempty"`
	Chips int    `json:"chips,omitempty"`
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	seat, err := intParam(r, "seat")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req joinRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Name == "" {
		s.writeError(w, r, fmt.Errorf("%w: name is required", errBadRequest))
		return
	}
	if req.ID == "" {
		req.ID = req.Name
	}
	if req.Bot != "" {
		if _, err := bot.ParseTier(req.Bot); err != nil {
			s.writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}
	}
	occ := game.Occupant{ID: req.ID, Name: req.Name, Bot: req.Bot}
	if err := s.manager.JoinSeat(r.Context(), chi.URLParam(r, "table"), seat, occ, req.Chips); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	seat, err := intParam(r, "seat")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.manager.LeaveSeat(r.Context(), chi.URLParam(r, "table"), seat); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.CloseTable(r.Context(), chi.URLParam(r, "table")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
