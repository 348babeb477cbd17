package handlers

import (
	"embed"
	"net/http"
)

//go:embed web/index.html
var webFS embed.FS

// ControlPanel serves the embedded HTML control panel.
func (h *Handlers) ControlPanel(w http.ResponseWriter, r *http.Request) {
	content, err := webFS.ReadFile("web/index.html")
	if err != nil {
		http.Error(w, "control panel not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/html")
	w.Write(content)
}
