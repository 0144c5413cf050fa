package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/parley-chat/parley-backend/internal/database"
	"github.com/parley-chat/parley-backend/internal/services"
	"github.com/parley-chat/parley-backend/pkg/utils"
)

type SignupRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
	Password    string `json:"password"`
}

type SigninRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse is shared by signup and signin. CipherKey is the shared
// symmetric secret clients encrypt message content with.
type AuthResponse struct {
	Success   bool                   `json:"success"`
	Message   string                 `json:"message"`
	User      map[string]interface{} `json:"user,omitempty"`
	Token     string                 `json:"token,omitempty"`
	CipherKey string                 `json:"cipher_key,omitempty"`
}

var usernamePattern = regexp.MustCompile(`^[a-z0-9_]{3,20}$`)

// Signup handles user registration
func Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	if !usernamePattern.MatchString(req.Username) {
		http.Error(w, "Username must be 3-20 characters: lowercase letters, digits, underscore", http.StatusBadRequest)
		return
	}
	if len(req.Password) < 8 {
		http.Error(w, "Password must be at least 8 characters", http.StatusBadRequest)
		return
	}

	// Check if username is taken
	var existing string
	err := database.PostgresDB.QueryRow(`SELECT id FROM users WHERE LOWER(username) = $1`, req.Username).Scan(&existing)
	if err == nil {
		http.Error(w, "Username already taken", http.StatusConflict)
		return
	} else if err != sql.ErrNoRows {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		http.Error(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = req.Username
	}

	userID := uuid.New()
	now := time.Now().UTC()

	_, err = database.PostgresDB.Exec(`
		INSERT INTO users (id, username, display_name, password_hash, created_at, last_seen)
		VALUES ($1, $2, $3, $4, $5, $5)
	`, userID, req.Username, displayName, hashedPassword, now)
	if err != nil {
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	token, err := services.CreateSession(userID)
	if err != nil {
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{
		Success: true,
		Message: "Account created",
		User: map[string]interface{}{
			"id":           userID.String(),
			"username":     req.Username,
			"display_name": displayName,
			"created_at":   now,
		},
		Token:     token,
		CipherKey: os.Getenv("ENCRYPTION_KEY"),
	})
}

// Signin handles user login
func Signin(w http.ResponseWriter, r *http.Request) {
	var req SigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	if req.Username == "" || req.Password == "" {
		http.Error(w, "Username and password are required", http.StatusBadRequest)
		return
	}

	var (
		userID       uuid.UUID
		displayName  string
		passwordHash string
	)
	err := database.PostgresDB.QueryRow(`
		SELECT id, display_name, password_hash FROM users
		WHERE LOWER(username) = $1 AND is_active = TRUE
	`, req.Username).Scan(&userID, &displayName, &passwordHash)
	if err == sql.ErrNoRows {
		http.Error(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	ok, err := utils.VerifyPassword(req.Password, passwordHash)
	if err != nil || !ok {
		http.Error(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	token, err := services.CreateSession(userID)
	if err != nil {
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "Signed in",
		User: map[string]interface{}{
			"id":           userID.String(),
			"username":     req.Username,
			"display_name": displayName,
		},
		Token:     token,
		CipherKey: os.Getenv("ENCRYPTION_KEY"),
	})
}

// Signout invalidates the current session.
func Signout(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r.Header.Get("Authorization"))
	if token != "" {
		_ = services.InvalidateSession(token)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// GetMe returns the authenticated user's profile.
func GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	user, err := services.GetUserByID(r.Context(), userID.String())
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

// CheckUsernameAvailability reports whether a username is free.
func CheckUsernameAvailability(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))
	if !usernamePattern.MatchString(username) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"available": false, "reason": "invalid format"})
		return
	}

	id, err := services.GetUserIDByUsername(username)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"available": id == ""})
}
