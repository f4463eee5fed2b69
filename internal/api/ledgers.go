package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"bauwatch/internal/store"
)

// LedgersHandler serves read-only views of the debt ledgers and the raw
// movement log.
type LedgersHandler struct {
	DB *sql.DB
}

// ListExcesses handles GET /api/excesses. Filters: nickname, item, status.
func (h *LedgersHandler) ListExcesses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	excesses, err := store.ListExcesses(r.Context(), h.DB, q.Get("nickname"), q.Get("item"), q.Get("status"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	jsonResponse(w, http.StatusOK, excesses)
}

// GetExcess handles GET /api/excesses/{id}.
func (h *LedgersHandler) GetExcess(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid id")
		return
	}

	excess, err := store.GetExcess(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if excess == nil {
		jsonError(w, http.StatusNotFound, "excess not found")
		return
	}
	jsonResponse(w, http.StatusOK, excess)
}

// ListWeaponDebts handles GET /api/weapon-debts. Filters: nickname, item,
// status.
func (h *LedgersHandler) ListWeaponDebts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	debts, err := store.ListWeaponDebts(r.Context(), h.DB, q.Get("nickname"), q.Get("item"), q.Get("status"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	jsonResponse(w, http.StatusOK, debts)
}

// GetWeaponDebt handles GET /api/weapon-debts/{id}.
func (h *LedgersHandler) GetWeaponDebt(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid id")
		return
	}

	debt, err := store.GetWeaponDebt(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if debt == nil {
		jsonError(w, http.StatusNotFound, "weapon debt not found")
		return
	}
	jsonResponse(w, http.StatusOK, debt)
}

// ListMovements handles GET /api/movements. Filters: nickname, item, limit.
func (h *LedgersHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	movements, err := store.ListMovements(r.Context(), h.DB, q.Get("nickname"), q.Get("item"), limit)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	jsonResponse(w, http.StatusOK, movements)
}
