package api

import (
	"encoding/json"
	"net/http"

	"github.com/dgallion1/docrank/internal/embed"
)

func (s *Server) handleEmbedStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		jsonError(w, "embedding stats unavailable", http.StatusServiceUnavailable)
		return
	}

	body := map[string]any{
		"embedder":    s.provider.Name(),
		"queue_depth": s.orchestrator.QueueDepth(),
		"stats":       s.stats.Snapshot(),
	}
	if hits, misses, ok := embed.CacheCounts(s.provider); ok {
		body["cache"] = map[string]int{"hits": hits, "misses": misses}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}
