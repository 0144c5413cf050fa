package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/parley-chat/parley-backend/internal/services"
)

// CreateGroup creates a group with the caller as admin member.
func CreateGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || len(req.Name) > 100 {
		http.Error(w, "group name must be 1-100 characters", http.StatusBadRequest)
		return
	}

	group, err := services.CreateGroup(r.Context(), userID.String(), req.Name, req.Description)
	if err != nil {
		http.Error(w, "Failed to create group", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "group": group})
}

// JoinGroup adds the caller to a group.
func JoinGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	var req struct {
		GroupID string `json:"group_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GroupID == "" {
		http.Error(w, "group_id is required", http.StatusBadRequest)
		return
	}

	if err := services.JoinGroup(r.Context(), req.GroupID, userID.String()); err != nil {
		http.Error(w, "Failed to join group", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// LeaveGroup removes the caller from a group.
func LeaveGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	var req struct {
		GroupID string `json:"group_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GroupID == "" {
		http.Error(w, "group_id is required", http.StatusBadRequest)
		return
	}

	if err := services.LeaveGroup(r.Context(), req.GroupID, userID.String()); err != nil {
		http.Error(w, "Failed to leave group", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// GetMyGroups lists the groups the caller belongs to.
func GetMyGroups(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	groups, err := services.GroupsForUser(r.Context(), userID.String())
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "groups": groups})
}

// GetGroupDetail returns a single group's metadata (?group_id=).
func GetGroupDetail(w http.ResponseWriter, r *http.Request) {
	if _, ok := authenticatedUser(w, r); !ok {
		return
	}

	groupID := r.URL.Query().Get("group_id")
	if groupID == "" {
		http.Error(w, "group_id is required", http.StatusBadRequest)
		return
	}

	group, err := services.GetGroup(r.Context(), groupID)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	if group == nil {
		http.Error(w, "Group not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "group": group})
}

// GetGroupMembers lists a group's members (?group_id=). Member-only.
func GetGroupMembers(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	groupID := r.URL.Query().Get("group_id")
	if groupID == "" {
		http.Error(w, "group_id is required", http.StatusBadRequest)
		return
	}
	member, err := services.IsGroupMember(r.Context(), groupID, userID.String())
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	if !member {
		http.Error(w, "you must be a member of this group", http.StatusForbidden)
		return
	}

	members, err := services.GroupMembers(r.Context(), groupID)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "members": members})
}
