package server

import (
	"net/http"

	"github.com/jonwraymond/chatops/auth"
	"github.com/jonwraymond/chatops/cache"
	"github.com/jonwraymond/chatops/observe"
)

type clearResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// clearCache empties the cache. Unlike the other cache operations a clear
// failure reaches the caller, as a 500.
func clearCache(c *cache.Facade, logger observe.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := ""
		if id := auth.IdentityFromContext(r.Context()); id != nil {
			principal = id.Principal
		}
		if err := c.Clear(r.Context()); err != nil {
			writeError(w, r, http.StatusInternalServerError, "CACHE_CLEAR_FAILED", "cache clear failed")
			return
		}
		logger.Info(r.Context(), "cache cleared",
			observe.F("principal", principal),
			observe.F("request_id", RequestIDFromContext(r.Context())),
		)
		writeJSON(w, http.StatusOK, clearResponse{Status: "success", Message: "cache cleared"})
	}
}
