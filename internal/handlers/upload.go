package handlers

import (
	"net/http"
	"strings"

	"github.com/parley-chat/parley-backend/internal/config"
	"github.com/parley-chat/parley-backend/internal/services"
)

// InitCloudinaryService wires the attachment upload backend.
func InitCloudinaryService(cfg *config.Config) error {
	service, err := services.NewCloudinaryService(
		cfg.CloudinaryName,
		cfg.CloudinaryAPIKey,
		cfg.CloudinaryAPISecret,
	)
	if err != nil {
		return err
	}
	cloudinaryService = service
	return nil
}

// UploadAttachment accepts a multipart file (field "file", max 10MB) and
// returns its CDN URL. The `kind` query parameter ("file" or "voice")
// selects the upload folder; clients put the returned URL into a
// send_message attachment.
func UploadAttachment(w http.ResponseWriter, r *http.Request) {
	if _, ok := authenticatedUser(w, r); !ok {
		return
	}
	if cloudinaryService == nil {
		http.Error(w, "upload service not configured", http.StatusServiceUnavailable)
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "Failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "No file provided: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	folder := "parley/files"
	if strings.EqualFold(r.URL.Query().Get("kind"), "voice") {
		folder = "parley/voice"
	}

	url, err := cloudinaryService.UploadFileFromHeader(r.Context(), fileHeader, folder)
	if err != nil {
		http.Error(w, "Failed to upload file: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"url":      url,
		"filename": fileHeader.Filename,
		"size":     fileHeader.Size,
	})
}
