package server

import (
	"encoding/json"
	"net/http"

	"github.com/alpweather/meteoswiss-mcp/pkg/cache"
)

type healthResponse struct {
	Status   string      `json:"status"`
	Cache    cache.Stats `json:"cache"`
	Sessions int         `json:"sessions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:   "ok",
		Cache:    s.cache.GetStats(),
		Sessions: s.registry.Len(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Error("writing health response", "err", err)
	}
}
