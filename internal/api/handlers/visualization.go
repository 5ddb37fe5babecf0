package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"stem-chat/internal/logger"
	"stem-chat/internal/repository/db"
)

// GetVisualizationHandler returns a stored visualization by id
func (ch *ChatHandlers) GetVisualizationHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		ch.sendError(w, http.StatusBadRequest, "visualization id is required")
		return
	}

	viz, err := ch.config.DB.GetVisualization(id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ch.sendError(w, http.StatusNotFound, "visualization not found")
			return
		}
		logger.Log.WithError(err).WithField("visualization_id", id).Error("Error loading visualization")
		ch.sendError(w, http.StatusInternalServerError, "error retrieving visualization")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(viz)
}
