package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/parley-chat/parley-backend/internal/realtime"
	"github.com/parley-chat/parley-backend/internal/services"
)

// Package-level collaborators, wired once from main.
var (
	coordinator       *realtime.Coordinator
	messageService    *services.MessageService
	socialService     *services.SocialService
	cloudinaryService *services.CloudinaryService
)

// InitRealtime wires the socket gateway and REST handlers to the realtime
// coordinator and its stores.
func InitRealtime(coord *realtime.Coordinator, messages *services.MessageService, social *services.SocialService) {
	coordinator = coord
	messageService = messages
	socialService = social
}

func extractBearerToken(header string) string {
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

// authenticatedUser resolves the session token to a user id, writing a 401
// and returning false when the request is not authenticated.
func authenticatedUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	token := extractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		http.Error(w, "missing session token", http.StatusUnauthorized)
		return uuid.Nil, false
	}
	userID, ok, err := services.ValidateSession(token)
	if err != nil || !ok {
		http.Error(w, "invalid session token", http.StatusUnauthorized)
		return uuid.Nil, false
	}
	return userID, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}
