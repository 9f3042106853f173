package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Varun5711/authlocal/internal/logger"
	usermodel "github.com/Varun5711/authlocal/internal/models/user"
	"github.com/Varun5711/authlocal/internal/storage"
)

type ContactHandler struct {
	groups storage.GroupStore
	log    *logger.Logger
}

func NewContactHandler(groups storage.GroupStore, log *logger.Logger) *ContactHandler {
	return &ContactHandler{
		groups: groups,
		log:    log,
	}
}

type ContactResponse struct {
	Success bool              `json:"success"`
	Contact usermodel.Contact `json:"contact"`
}

// GetContact handles GET /auth/contact with the root group owner.
func (h *ContactHandler) GetContact(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	group, err := h.groups.GetRootGroup(ctx)
	if err != nil {
		logger.FromContext(r.Context(), h.log).Error("Unexpected error: %v", err)
		respondError(w, http.StatusInternalServerError, ErrTagServer)
		return
	}

	respondJSON(w, http.StatusOK, ContactResponse{
		Success: true,
		Contact: group.Owner,
	})
}
