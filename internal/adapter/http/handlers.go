package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wakequeue/wakequeue/internal/core/domain"
	"github.com/wakequeue/wakequeue/internal/core/port"
	"github.com/wakequeue/wakequeue/internal/core/service"
	"go.uber.org/zap"
)

type Handler struct {
	tasks      *service.TaskService
	devices    *service.DeviceService
	agents     port.AgentRegistry
	seen       port.PresenceCache
	agentToken string
	log        *zap.Logger
}

// NewHandler wires the request surface. agents and seen may be nil in
// deployments without Redis; the corresponding endpoints then degrade.
func NewHandler(
	tasks *service.TaskService,
	devices *service.DeviceService,
	agents port.AgentRegistry,
	seen port.PresenceCache,
	agentToken string,
	log *zap.Logger,
) *Handler {
	return &Handler{
		tasks:      tasks,
		devices:    devices,
		agents:     agents,
		seen:       seen,
		agentToken: agentToken,
		log:        log,
	}
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ownerID is the optional principal attribution supplied by the fronting
// auth layer. Empty in the anonymous deployment variant.
func ownerID(r *http.Request) string {
	return r.Header.Get("X-Owner-ID")
}

func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.ListTasks(r.Context(), ownerID(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func (h *Handler) createTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MACAddress string `json:"mac_address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, errMalformedBody)
		return
	}

	task, err := h.tasks.CreateTask(r.Context(), req.MACAddress, ownerID(r), "")
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{"task": task})
}

func (h *Handler) updateTaskStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, errMalformedBody)
		return
	}
	if req.ID == "" {
		h.writeError(w, domain.ErrTaskNotFound)
		return
	}

	task, err := h.tasks.ApplyStatus(r.Context(), req.ID, req.Status)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"task": task})
}

func (h *Handler) notify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID         string `json:"id"`
		MACAddress string `json:"mac_address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, errMalformedBody)
		return
	}

	task, err := h.tasks.ApplyNotify(r.Context(), req.ID, req.MACAddress)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if h.seen != nil {
		if err := h.seen.MarkSeen(task.MACAddress); err != nil {
			h.log.Warn("Failed to record presence", zap.String("mac", task.MACAddress), zap.Error(err))
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"task": task})
}

func (h *Handler) listPending(w http.ResponseWriter, r *http.Request) {
	pending, err := h.tasks.ListPending(r.Context(), 0)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if pending == nil {
		pending = []*domain.ClaimedTask{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"tasks": pending})
}

func (h *Handler) claimPending(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Limit int `json:"limit"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, errMalformedBody)
			return
		}
	}

	claimed, err := h.tasks.ClaimPending(r.Context(), req.Limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if claimed == nil {
		claimed = []*domain.ClaimedTask{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"tasks": claimed})
}

func (h *Handler) listDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.devices.ListDevices(r.Context(), ownerID(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if devices == nil {
		devices = []*domain.Device{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"devices": devices})
}

func (h *Handler) saveDevice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MACAddress string `json:"mac_address"`
		Label      string `json:"label"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, errMalformedBody)
		return
	}

	device, err := h.devices.SaveDevice(r.Context(), req.MACAddress, req.Label, ownerID(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{"device": device})
}

func (h *Handler) deleteDevice(w http.ResponseWriter, r *http.Request) {
	if err := h.devices.DeleteDevice(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) wakeDevice(w http.ResponseWriter, r *http.Request) {
	task, err := h.devices.WakeDevice(r.Context(), chi.URLParam(r, "id"), ownerID(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{"task": task})
}

func (h *Handler) listAgents(w http.ResponseWriter, r *http.Request) {
	if h.agents == nil {
		h.writeJSON(w, http.StatusOK, map[string]any{"agents": []*domain.Agent{}})
		return
	}

	agents, err := h.agents.GetActiveAgents(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if agents == nil {
		agents = []*domain.Agent{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"agents": agents})
}
