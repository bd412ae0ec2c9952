package api

import (
	"net/http"

	"github.com/nerrad567/wink-bridge/internal/bridge"
)

// handleMessages returns the recent broker-traffic ring, oldest first.
func (s *Server) handleMessages(w http.ResponseWriter, _ *http.Request) {
	entries := []bridge.Message{}
	if log := s.engine.Messages(); log != nil {
		entries = log.Snapshot()
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": entries, "count": len(entries)})
}
