package handlers

import (
	"crypto/subtle"
	"net/http"
	"os"

	"github.com/parley-chat/parley-backend/internal/middleware"
)

// requireOpsToken gates operational endpoints on the ADMIN_API_TOKEN
// environment variable. With no token configured the endpoints are
// disabled outright.
func requireOpsToken(w http.ResponseWriter, r *http.Request) bool {
	expected := os.Getenv("ADMIN_API_TOKEN")
	if expected == "" {
		http.Error(w, "admin API not enabled", http.StatusForbidden)
		return false
	}
	got := r.Header.Get("X-Admin-Token")
	if subtle.ConstantTimeCompare([]byte(got), []byte(expected)) != 1 {
		http.Error(w, "invalid admin token", http.StatusForbidden)
		return false
	}
	return true
}

// UnblockIP lifts a rate-limit block placed on an IP (?ip=), for when a
// shared NAT egress gets banned by one noisy client.
func UnblockIP(w http.ResponseWriter, r *http.Request) {
	if !requireOpsToken(w, r) {
		return
	}

	ipAddress := r.URL.Query().Get("ip")
	if ipAddress == "" {
		http.Error(w, "IP address is required", http.StatusBadRequest)
		return
	}

	if err := middleware.UnblockIP(ipAddress); err != nil {
		http.Error(w, "Failed to unblock IP: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "IP address unblocked",
	})
}
