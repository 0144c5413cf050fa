package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/parley-chat/parley-backend/internal/services"
)

// AddContact adds a user to the caller's contact list by username.
func AddContact(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		http.Error(w, "username is required", http.StatusBadRequest)
		return
	}

	contactID, err := services.GetUserIDByUsername(req.Username)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	if contactID == "" {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	if contactID == userID.String() {
		http.Error(w, "cannot add yourself", http.StatusBadRequest)
		return
	}

	if err := socialService.AddContact(r.Context(), userID.String(), contactID); err != nil {
		http.Error(w, "Failed to add contact", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "contact_id": contactID})
}

// GetContacts lists the caller's contacts.
func GetContacts(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	users, err := socialService.Contacts(r.Context(), userID.String())
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "contacts": users})
}
