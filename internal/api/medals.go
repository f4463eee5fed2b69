package api

import (
	"log/slog"
	"net/http"

	"bauwatch/internal/medals"
)

// MedalsHandler serves the service-medal report and award endpoints.
type MedalsHandler struct {
	Service *medals.Service
}

type awardRequest struct {
	UserID string `json:"user_id"`
	Type   string `json:"type"`
}

// Report handles GET /api/medals/report.
func (h *MedalsHandler) Report(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Service.Report(r.Context())
	if err != nil {
		slog.Error("medal report failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	jsonResponse(w, http.StatusOK, entries)
}

// Award handles POST /api/medals/award.
func (h *MedalsHandler) Award(w http.ResponseWriter, r *http.Request) {
	var req awardRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" || req.Type == "" {
		jsonError(w, http.StatusBadRequest, "user_id and type required")
		return
	}

	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	medal, err := h.Service.Award(r.Context(), req.UserID, req.Type, claims.Username)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	slog.Info("medal awarded", "user_id", req.UserID, "type", req.Type, "by", claims.Username)
	jsonResponse(w, http.StatusCreated, medal)
}

// Stats handles GET /api/medals/stats.
func (h *MedalsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats(r.Context())
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	jsonResponse(w, http.StatusOK, stats)
}
