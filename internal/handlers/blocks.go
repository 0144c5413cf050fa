package handlers

import (
	"encoding/json"
	"net/http"
)

type blockRequest struct {
	UserID string `json:"user_id"`
}

func decodeBlockTarget(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req blockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return "", false
	}
	return req.UserID, true
}

// BlockUser blocks another user. Both parties get a blocking_update so
// open conversation views can react immediately.
func BlockUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}
	targetID, ok := decodeBlockTarget(w, r)
	if !ok {
		return
	}

	if err := socialService.BlockUser(r.Context(), userID.String(), targetID); err != nil {
		http.Error(w, "Failed to block user", http.StatusBadRequest)
		return
	}
	coordinator.NotifyBlockingUpdate(r.Context(), userID.String(), targetID, true)
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// UnblockUser removes a block the caller previously placed.
func UnblockUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}
	targetID, ok := decodeBlockTarget(w, r)
	if !ok {
		return
	}

	if err := socialService.UnblockUser(r.Context(), userID.String(), targetID); err != nil {
		http.Error(w, "Failed to unblock user", http.StatusInternalServerError)
		return
	}
	coordinator.NotifyBlockingUpdate(r.Context(), userID.String(), targetID, false)
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// GetBlockedUsers lists the users the caller has blocked.
func GetBlockedUsers(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	users, err := socialService.BlockedUsers(r.Context(), userID.String())
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "users": users})
}

// MuteUser silences notifications from another user. Muting is local to
// the caller; the muted user keeps sending normally.
func MuteUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}
	targetID, ok := decodeBlockTarget(w, r)
	if !ok {
		return
	}

	if err := socialService.MuteUser(r.Context(), userID.String(), targetID); err != nil {
		http.Error(w, "Failed to mute user", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// UnmuteUser removes a mute.
func UnmuteUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}
	targetID, ok := decodeBlockTarget(w, r)
	if !ok {
		return
	}

	if err := socialService.UnmuteUser(r.Context(), userID.String(), targetID); err != nil {
		http.Error(w, "Failed to unmute user", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// GetMutedUsers lists the ids the caller has muted.
func GetMutedUsers(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	ids, err := socialService.MutedUserIDs(r.Context(), userID.String())
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "user_ids": ids})
}
