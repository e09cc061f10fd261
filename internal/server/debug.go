package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"isekai-server/internal/domain"
	"isekai-server/internal/engine"
	"isekai-server/internal/engine/view"
	"isekai-server/pkg/api"
	"isekai-server/pkg/terrain"
)

// DebugHandler предоставляет доступ к внутреннему состоянию движка
type DebugHandler struct {
	Service *engine.GameService
}

func NewDebugHandler(s *engine.GameService) *DebugHandler {
	return &DebugHandler{Service: s}
}

// RegisterRoutes регистрирует debug-эндпоинты
func (h *DebugHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/debug/world", h.handleWorld).Methods(http.MethodGet)
	r.HandleFunc("/debug/zones", h.handleZones).Methods(http.MethodGet)
}

type worldDump struct {
	Players     int               `json:"players"`
	Hostiles    int               `json:"hostiles"`
	Connections int               `json:"connections"`
	Target      int               `json:"target_hostiles"`
	State       api.PlayersState  `json:"state"`
	Enemies     api.HostilesState `json:"enemies"`
}

// /debug/world - счетчики и полные снимки игроков и врагов
func (h *DebugHandler) handleWorld(w http.ResponseWriter, r *http.Request) {
	players, hostiles, conns := h.Service.Counts()
	writeJSON(w, worldDump{
		Players:     players,
		Hostiles:    hostiles,
		Connections: conns,
		Target:      h.Service.Config().World.TargetHostiles,
		State:       view.Players(h.Service.World().SnapshotPlayers()),
		Enemies:     view.Hostiles(h.Service.World().SnapshotHostiles()),
	})
}

type zoneView struct {
	Name     string       `json:"name"`
	Area     terrain.Rect `json:"area"`
	Types    []string     `json:"types"`
	MinLevel int          `json:"min_level"`
	MaxLevel int          `json:"max_level"`
}

// /debug/zones - зоны спавна и город
func (h *DebugHandler) handleZones(w http.ResponseWriter, r *http.Request) {
	zones := h.Service.Spawner().Zones()
	out := struct {
		City  terrain.Rect `json:"city"`
		Zones []zoneView   `json:"zones"`
	}{City: terrain.City, Zones: make([]zoneView, 0, len(zones))}

	for _, z := range zones {
		out.Zones = append(out.Zones, zoneView{
			Name:     z.Name,
			Area:     z.Area,
			Types:    typeNames(z.Types),
			MinLevel: z.MinLevel,
			MaxLevel: z.MaxLevel,
		})
	}
	writeJSON(w, out)
}

func typeNames(types []domain.HostileType) []string {
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, t.String())
	}
	return names
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
