// internal/handlers/utils.go
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jason-s-yu/onecard/internal/auth"
	"github.com/jason-s-yu/onecard/internal/gamestore"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// sessionFromRequest resolves the {id} path value to a live session and,
// when required, verifies the caller's bearer token against it. On failure
// it writes the response itself and returns ok=false.
func (s *Server) sessionFromRequest(w http.ResponseWriter, r *http.Request, requireToken bool) (*gamestore.Session, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown game")
		return nil, false
	}
	session, ok := s.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown game")
		return nil, false
	}
	if requireToken {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return nil, false
		}
		if err := auth.AuthenticateGameToken(token, session.ID); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return nil, false
		}
	}
	return session, true
}
