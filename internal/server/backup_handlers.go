package server

import (
	"context"
	"net/http"

	"github.com/aristath/folio/internal/reliability"
	"github.com/aristath/folio/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// BackupManager creates and lists remote backups
type BackupManager interface {
	CreateAndUpload(ctx context.Context) (*reliability.BackupInfo, error)
	List(ctx context.Context) ([]reliability.BackupInfo, error)
}

// BackupHandlers serves the backup endpoints
type BackupHandlers struct {
	backups BackupManager
	log     zerolog.Logger
}

// NewBackupHandlers creates new backup handlers
func NewBackupHandlers(backups BackupManager, log zerolog.Logger) *BackupHandlers {
	return &BackupHandlers{
		backups: backups,
		log:     log.With().Str("handler", "backups").Logger(),
	}
}

// RegisterRoutes registers backup routes
func (h *BackupHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/backups", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
	})
}

// HandleList handles GET /api/backups
func (h *BackupHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	backups, err := h.backups.List(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list backups")
		utils.WriteJSON(w, h.log, http.StatusBadGateway, utils.ErrorResponse{Error: err.Error()})
		return
	}

	utils.WriteJSON(w, h.log, http.StatusOK, map[string]interface{}{
		"backups": backups,
		"count":   len(backups),
	})
}

// HandleCreate handles POST /api/backups
func (h *BackupHandlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	info, err := h.backups.CreateAndUpload(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Manual backup failed")
		utils.WriteJSON(w, h.log, http.StatusBadGateway, utils.ErrorResponse{Error: err.Error()})
		return
	}

	utils.WriteJSON(w, h.log, http.StatusCreated, info)
}
