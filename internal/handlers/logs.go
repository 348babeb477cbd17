package handlers

import (
	"net/http"
	"os"
)

// GetLogs serves the gateway log file as plain text.
func (h *Handlers) GetLogs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if h.logPath == "" {
		w.Write([]byte("file logging is disabled\n"))
		return
	}

	data, err := os.ReadFile(h.logPath)
	if err != nil {
		if os.IsNotExist(err) {
			w.Write([]byte("no logs available\n"))
			return
		}
		http.Error(w, "failed to read log file", http.StatusInternalServerError)
		return
	}
	w.Write(data)
}

// ClearLogs truncates the gateway log file.
func (h *Handlers) ClearLogs(w http.ResponseWriter, r *http.Request) {
	if h.logPath == "" {
		h.respondJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"message": "file logging is disabled",
		})
		return
	}

	if err := os.Truncate(h.logPath, 0); err != nil && !os.IsNotExist(err) {
		h.logger.Error("Failed to clear log file", err)
		http.Error(w, "failed to clear log file", http.StatusInternalServerError)
		return
	}

	h.logger.Info("Log file cleared")
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"message": "logs cleared",
	})
}
