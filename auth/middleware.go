package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jonwraymond/chatops/observe"
)

// RoleAdmin is required for the admin routes.
const RoleAdmin = "admin"

// Middleware authenticates requests and requires role when non-empty.
// Failures answer 401, or 403 for a valid token without the role.
func Middleware(a *JWTAuthenticator, role string, logger observe.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = observe.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := a.Authenticate(r.Header.Get("Authorization"))
			if err == nil && role != "" && !id.HasRole(role) {
				err = ErrForbidden
			}
			if err != nil {
				logger.Warn(r.Context(), "admin request rejected",
					observe.F("path", r.URL.Path),
					observe.Err(err),
				)
				writeAuthError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func writeAuthError(w http.ResponseWriter, err error) {
	status, code := http.StatusUnauthorized, "UNAUTHORIZED"
	if errors.Is(err, ErrForbidden) {
		status, code = http.StatusForbidden, "FORBIDDEN"
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="admin"`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "error",
		"code":    code,
		"message": err.Error(),
	})
}
