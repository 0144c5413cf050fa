package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/parley-chat/parley-backend/internal/services"
)

// SearchUsers finds users by username prefix (?q=).
func SearchUsers(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	users, err := services.SearchUsers(r.Context(), userID.String(), r.URL.Query().Get("q"))
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "users": users})
}

// GetUserProfile returns another user's public profile (?user_id=).
func GetUserProfile(w http.ResponseWriter, r *http.Request) {
	if _, ok := authenticatedUser(w, r); !ok {
		return
	}

	targetID := r.URL.Query().Get("user_id")
	if targetID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	user, err := services.GetUserByID(r.Context(), targetID)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "user": user})
}

// UpdateProfile updates the caller's display name and avatar.
func UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	var req struct {
		DisplayName string `json:"display_name"`
		AvatarURL   string `json:"avatar_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := services.UpdateProfile(r.Context(), userID.String(), req.DisplayName, req.AvatarURL); err != nil {
		http.Error(w, "Failed to update profile", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// GetSettings returns the caller's privacy settings.
func GetSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	settings, err := socialService.GetSettings(r.Context(), userID.String())
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "settings": settings})
}

// UpdateSettings upserts the caller's privacy settings. Turning
// show_online_status off takes effect on the next presence transition.
func UpdateSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	var req struct {
		ShowOnlineStatus bool `json:"show_online_status"`
		ReadReceipts     bool `json:"read_receipts"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := socialService.UpdateSettings(r.Context(), userID.String(), req.ShowOnlineStatus, req.ReadReceipts); err != nil {
		http.Error(w, "Failed to update settings", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
