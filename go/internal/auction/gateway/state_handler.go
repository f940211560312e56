package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/bidroom/go/internal/auction/lobby"
	"github.com/mcdev12/bidroom/go/internal/auction/protocol"
)

// StateHandler serves read-only room state over HTTP.
type StateHandler struct {
	lobby *lobby.Lobby
}

// NewStateHandler creates a new state handler.
func NewStateHandler(l *lobby.Lobby) *StateHandler {
	return &StateHandler{lobby: l}
}

// RoomListResponse is the body of GET /api/rooms.
type RoomListResponse struct {
	Rooms []protocol.RoomSummary `json:"rooms"`
}

// HandleListRooms handles GET /api/rooms.
func (h *StateHandler) HandleListRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, RoomListResponse{Rooms: h.lobby.List()})
}

// HandleGetRoomState handles GET /api/rooms/{code}/state.
func (h *StateHandler) HandleGetRoomState(w http.ResponseWriter, r *http.Request) {
	code := lobby.NormalizeCode(r.PathValue("code"))
	if code == "" {
		http.Error(w, "room code is required", http.StatusBadRequest)
		return
	}

	rm, ok := h.lobby.Get(code)
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, rm.Snapshot())
}

// RegisterStateRoutes registers state-related HTTP routes.
func (h *StateHandler) RegisterStateRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/rooms", h.HandleListRooms)
	mux.HandleFunc("GET /api/rooms/{code}/state", h.HandleGetRoomState)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
