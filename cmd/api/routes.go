package main

import (
	"log"
	"net/http"

	httphandlers "horizon/internal/interfaces/http"
	"horizon/internal/shared/config"
	"horizon/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with middleware.
func SetupRoutes(deps *Dependencies, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", httphandlers.HandleHealth)

	// Public auth routes
	mux.HandleFunc("/api/auth/register", deps.AuthHandler.HandleRegister)
	mux.HandleFunc("/api/auth/login", deps.AuthHandler.HandleLogin)
	mux.HandleFunc("/api/auth/logout", deps.AuthHandler.HandleLogout)

	// Protected routes
	authMiddleware := middleware.Auth(deps.JWT)

	mux.Handle("/api/users/me", authMiddleware(http.HandlerFunc(deps.UserHandler.HandleMe)))
	mux.Handle("/api/users/me/device-token", authMiddleware(http.HandlerFunc(deps.UserHandler.HandleDeviceToken)))
	mux.Handle("/api/accounts", authMiddleware(http.HandlerFunc(deps.AccountHandler.HandleListAccounts)))
	mux.Handle("/api/accounts/{id}", authMiddleware(http.HandlerFunc(deps.AccountHandler.HandleAccountByID)))
	mux.Handle("/api/banks", authMiddleware(http.HandlerFunc(deps.BankHandler.HandleExchangePublicToken)))
	mux.Handle("/api/banks/link-token", authMiddleware(http.HandlerFunc(deps.BankHandler.HandleCreateLinkToken)))
	mux.Handle("/api/banks/{id}", authMiddleware(http.HandlerFunc(deps.BankHandler.HandleBankByID)))
	mux.Handle("/api/banks/{id}/update-link-token", authMiddleware(http.HandlerFunc(deps.BankHandler.HandleCreateUpdateLinkToken)))
	mux.Handle("/api/banks/{id}/reconnect", authMiddleware(http.HandlerFunc(deps.BankHandler.HandleReconnect)))
	mux.Handle("/api/transfers", authMiddleware(http.HandlerFunc(deps.TransferHandler.HandleTransfers)))

	// Apply global middleware
	handler := middleware.Logging(middleware.CORS(cfg.Server.AllowedHosts)(mux))

	// Wrap with OTel request spans when telemetry is on
	if cfg.Telemetry.Enabled {
		handler = middleware.Telemetry(middleware.Tracing(handler))
	}

	// Apply security middleware when TLS is enabled
	if cfg.TLS.Enabled {
		handler = middleware.HSTS(middleware.SecureCookies(handler))
		log.Println("TLS security middleware enabled (HSTS + SecureCookies)")
	}

	return handler
}
