package handlers

import (
	"net/http"
	"time"

	"utec-gateway/internal/common/errors"
)

// GetDevices runs a live discovery against the vendor API.
func (h *Handlers) GetDevices(w http.ResponseWriter, r *http.Request) {
	found, err := h.client.Discover(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"devices": found,
		"count":   len(found),
	})
}

type deviceRequest struct {
	ID string `json:"id"`
}

// QueryStatus fetches the live status of one device.
func (h *Handlers) QueryStatus(w http.ResponseWriter, r *http.Request) {
	var req deviceRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	if req.ID == "" {
		h.respondError(w, errors.ValidationError("device id is required"))
		return
	}

	status, err := h.client.QueryStatus(r.Context(), []string{req.ID})
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, status)
}

// LatestStatus returns the cached poll snapshot without touching the vendor
// API.
func (h *Handlers) LatestStatus(w http.ResponseWriter, r *http.Request) {
	snap := h.cache.Snapshot()
	if snap == nil {
		h.respondJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"devices": []interface{}{},
			"message": "no poll has completed yet",
		})
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"devices":    snap.Devices,
		"raw_status": snap.RawStatus,
		"updated_at": snap.UpdatedAt.Format(time.RFC3339),
	})
}

// LockDevice sends a lock command.
func (h *Handlers) LockDevice(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, "lock")
}

// UnlockDevice sends an unlock command.
func (h *Handlers) UnlockDevice(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, "unlock")
}

func (h *Handlers) command(w http.ResponseWriter, r *http.Request, name string) {
	var req deviceRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	if req.ID == "" {
		h.respondError(w, errors.ValidationError("device id is required"))
		return
	}

	var result interface{}
	var err error
	if name == "lock" {
		result, err = h.client.Lock(r.Context(), req.ID)
	} else {
		result, err = h.client.Unlock(r.Context(), req.ID)
	}
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}
