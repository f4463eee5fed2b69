package api

import (
	"database/sql"
	"net/http"

	"bauwatch/internal/medals"
	"bauwatch/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string, medalService *medals.Service) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	ledgersHandler := &LedgersHandler{DB: db}
	medalsHandler := &MedalsHandler{Service: medalService}

	authMW := AuthMiddleware(jwtSecret)
	requireAdmin := RequireRole(model.RoleAdmin)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))

	// Debt ledgers and the movement log (all roles, read only).
	mux.Handle("GET /api/excesses", authMW(http.HandlerFunc(ledgersHandler.ListExcesses)))
	mux.Handle("GET /api/excesses/{id}", authMW(http.HandlerFunc(ledgersHandler.GetExcess)))
	mux.Handle("GET /api/weapon-debts", authMW(http.HandlerFunc(ledgersHandler.ListWeaponDebts)))
	mux.Handle("GET /api/weapon-debts/{id}", authMW(http.HandlerFunc(ledgersHandler.GetWeaponDebt)))
	mux.Handle("GET /api/movements", authMW(http.HandlerFunc(ledgersHandler.ListMovements)))

	// Medals: report and stats for all roles, awarding is admin only.
	mux.Handle("GET /api/medals/report", authMW(http.HandlerFunc(medalsHandler.Report)))
	mux.Handle("GET /api/medals/stats", authMW(http.HandlerFunc(medalsHandler.Stats)))
	mux.Handle("POST /api/medals/award", authMW(requireAdmin(http.HandlerFunc(medalsHandler.Award))))

	return mux
}
