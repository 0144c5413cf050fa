package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/parley-chat/parley-backend/internal/services"
)

// historyParams parses the shared pagination query parameters. `before` is
// an RFC3339 timestamp; history pages backwards from it.
func historyParams(r *http.Request) (*time.Time, int64) {
	var before *time.Time
	if raw := r.URL.Query().Get("before"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			before = &t
		}
	}
	var limit int64
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			limit = n
		}
	}
	return before, limit
}

// GetDirectMessages returns paginated direct history with one peer
// (?peer_id=&before=&limit=), oldest-first.
func GetDirectMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	peerID := r.URL.Query().Get("peer_id")
	if peerID == "" {
		http.Error(w, "peer_id is required", http.StatusBadRequest)
		return
	}

	before, limit := historyParams(r)
	messages, hasMore, err := messageService.LoadDirectMessagesWithCache(r.Context(), userID.String(), peerID, before, limit)
	if err != nil {
		http.Error(w, "Failed to load messages", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"messages": messages,
		"has_more": hasMore,
	})
}

// GetGroupMessages returns paginated group history (?group_id=&before=&limit=).
// Membership is checked before any history is served.
func GetGroupMessages(w http.ResponseWriter, r *http.Request) {
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

	before, limit := historyParams(r)
	messages, hasMore, err := messageService.LoadGroupMessages(r.Context(), groupID, before, limit)
	if err != nil {
		http.Error(w, "Failed to load messages", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"messages": messages,
		"has_more": hasMore,
	})
}

// GetUnreadCounts returns per-sender unread direct message counts for the
// conversation list badges.
func GetUnreadCounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	counts, err := messageService.UnreadCounts(r.Context(), userID.String())
	if err != nil {
		http.Error(w, "Failed to load unread counts", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "unread": counts})
}

// GetPresence reports whether a user is currently connected on any
// instance (?user_id=). Respects the target's show_online_status setting.
func GetPresence(w http.ResponseWriter, r *http.Request) {
	if _, ok := authenticatedUser(w, r); !ok {
		return
	}

	targetID := r.URL.Query().Get("user_id")
	if targetID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	visible, err := socialService.ShowsOnlineStatus(r.Context(), targetID)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	online := visible && services.IsUserOnline(r.Context(), targetID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"user_id":   targetID,
		"is_online": online,
	})
}
