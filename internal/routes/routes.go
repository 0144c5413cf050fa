package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/parley-chat/parley-backend/internal/handlers"
)

func SetupRoutes(r *chi.Mux) {
	// Auth routes
	r.Post("/api/auth/signup", handlers.Signup)
	r.Post("/api/auth/signin", handlers.Signin)
	r.Post("/api/auth/signout", handlers.Signout)
	r.Get("/api/auth/me", handlers.GetMe)
	r.Post("/api/auth/check-username", handlers.CheckUsernameAvailability)

	// User profile and search
	r.Get("/api/users/search", handlers.SearchUsers)
	r.Get("/api/users/profile", handlers.GetUserProfile)
	r.Put("/api/users/profile", handlers.UpdateProfile)
	r.Get("/api/users/presence", handlers.GetPresence)

	// Privacy settings
	r.Get("/api/settings", handlers.GetSettings)
	r.Put("/api/settings", handlers.UpdateSettings)

	// Blocking and muting
	r.Post("/api/blocks", handlers.BlockUser)
	r.Delete("/api/blocks", handlers.UnblockUser)
	r.Get("/api/blocks", handlers.GetBlockedUsers)
	r.Post("/api/mutes", handlers.MuteUser)
	r.Delete("/api/mutes", handlers.UnmuteUser)
	r.Get("/api/mutes", handlers.GetMutedUsers)

	// Contacts
	r.Post("/api/contacts", handlers.AddContact)
	r.Get("/api/contacts", handlers.GetContacts)

	// Group routes
	r.Post("/api/groups", handlers.CreateGroup)
	r.Get("/api/groups", handlers.GetMyGroups)
	r.Get("/api/groups/detail", handlers.GetGroupDetail)
	r.Post("/api/groups/join", handlers.JoinGroup)
	r.Post("/api/groups/leave", handlers.LeaveGroup)
	r.Get("/api/groups/members", handlers.GetGroupMembers)

	// Chat history API (MongoDB history + Redis recent cache)
	r.Get("/api/chat/direct", handlers.GetDirectMessages)
	r.Get("/api/chat/group", handlers.GetGroupMessages)
	r.Get("/api/chat/unread", handlers.GetUnreadCounts)

	// Attachment uploads (files and voice notes)
	r.Post("/api/upload", handlers.UploadAttachment)

	// Ops (gated on ADMIN_API_TOKEN)
	r.Put("/api/admin/unblock-ip", handlers.UnblockIP)

	// WebSocket gateway: messaging, presence, indicators, call signaling
	r.Get("/ws/chat", handlers.ChatWebSocket)
}
