package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/haydent/matchday/internal/config"
	"github.com/haydent/matchday/internal/github"
	"github.com/haydent/matchday/internal/sync"
)

// maxBodyBytes caps request bodies; league snapshots and logos are small.
const maxBodyBytes = 10 << 20

type Handler struct {
	cfg    *config.Manager
	sync   *sync.Coordinator
	status *sync.Recorder
}

func NewHandler(cfg *config.Manager, coordinator *sync.Coordinator, status *sync.Recorder) *Handler {
	return &Handler{cfg: cfg, sync: coordinator, status: status}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	var req ConnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := h.cfg.Save(req.Owner, req.Repo, req.Branch, req.Token); err != nil {
		log.Printf("[Matchday] save config: %v", err)
		http.Error(w, "could not persist config", http.StatusInternalServerError)
		return
	}
	if !h.cfg.Connected() {
		// Stored but unusable: surface it so the caller can fix the form.
		respondJSON(w, http.StatusOK, ConnectStatus{Connected: false})
		return
	}
	respondJSON(w, http.StatusOK, ConnectStatus{Connected: true})
}

func (h *Handler) ConnectionStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ConnectStatus{Connected: h.cfg.Connected()})
}

func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	if err := h.cfg.Clear(); err != nil {
		log.Printf("[Matchday] clear config: %v", err)
		http.Error(w, "could not clear config", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, ConnectStatus{Connected: false})
}

func (h *Handler) Test(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.sync.TestConnection(r.Context()))
}

func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "could not read body", http.StatusBadRequest)
		return
	}
	if !json.Valid(body) {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := h.sync.SyncData(r.Context(), body); err != nil {
		writeSyncError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) UploadAsset(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "could not read body", http.StatusBadRequest)
		return
	}
	url, err := h.sync.UploadAsset(r.Context(), data, filename)
	if err != nil {
		writeSyncError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, AssetResponse{URL: url})
}

func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	data, exists, err := h.sync.LoadSnapshot(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !exists {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	event, ok := h.status.Last()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondJSON(w, http.StatusOK, event)
}

func writeSyncError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sync.ErrNotConnected):
		http.Error(w, "not connected", http.StatusConflict)
	case errors.Is(err, github.ErrConflict):
		http.Error(w, "remote changed, try again", http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
