package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnblockIPRequiresOpsToken(t *testing.T) {
	t.Run("DisabledWithoutConfiguredToken", func(t *testing.T) {
		t.Setenv("ADMIN_API_TOKEN", "")

		req := httptest.NewRequest(http.MethodPut, "/api/admin/unblock-ip?ip=10.0.0.1", nil)
		req.Header.Set("X-Admin-Token", "anything")
		rec := httptest.NewRecorder()
		UnblockIP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("RejectsWrongToken", func(t *testing.T) {
		t.Setenv("ADMIN_API_TOKEN", "s3cret")

		req := httptest.NewRequest(http.MethodPut, "/api/admin/unblock-ip?ip=10.0.0.1", nil)
		req.Header.Set("X-Admin-Token", "wrong")
		rec := httptest.NewRecorder()
		UnblockIP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("RejectsMissingIP", func(t *testing.T) {
		t.Setenv("ADMIN_API_TOKEN", "s3cret")

		req := httptest.NewRequest(http.MethodPut, "/api/admin/unblock-ip", nil)
		req.Header.Set("X-Admin-Token", "s3cret")
		rec := httptest.NewRecorder()
		UnblockIP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
