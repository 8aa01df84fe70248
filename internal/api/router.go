package api

import (
	"database/sql"
	"net/http"
)

// NewRouter creates the API router with all endpoints registered. Award is
// the number of points granted to the owner on completion.
func NewRouter(db *sql.DB, jwtSecret string, award int64) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	itemsHandler := &ItemsHandler{DB: db, JWTSecret: jwtSecret}
	requestsHandler := &RequestsHandler{DB: db, Award: award}
	profileHandler := &ProfileHandler{DB: db}
	contactHandler := &ContactHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)

	// Public: registration, login, browsing, contact form.
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("GET /api/items", itemsHandler.List)
	mux.HandleFunc("GET /api/items/{id}", itemsHandler.Get)
	mux.HandleFunc("GET /api/images/{id}", itemsHandler.GetImage)
	mux.HandleFunc("GET /api/categories", itemsHandler.Categories)
	mux.HandleFunc("POST /api/contact", contactHandler.Create)

	// Account.
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("GET /api/me", authMW(http.HandlerFunc(profileHandler.Me)))

	// Items.
	mux.Handle("POST /api/items", authMW(http.HandlerFunc(itemsHandler.Create)))
	mux.Handle("DELETE /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Delete)))
	mux.Handle("POST /api/items/{id}/images", authMW(http.HandlerFunc(itemsHandler.UploadImage)))

	// Exchange lifecycle.
	mux.Handle("POST /api/items/{id}/requests", authMW(http.HandlerFunc(requestsHandler.Create)))
	mux.Handle("POST /api/items/{id}/complete", authMW(http.HandlerFunc(requestsHandler.Complete)))
	mux.Handle("GET /api/requests/incoming", authMW(http.HandlerFunc(requestsHandler.Incoming)))
	mux.Handle("GET /api/requests/mine", authMW(http.HandlerFunc(requestsHandler.Mine)))
	mux.Handle("POST /api/requests/{id}/approve", authMW(http.HandlerFunc(requestsHandler.Approve)))
	mux.Handle("POST /api/requests/{id}/reject", authMW(http.HandlerFunc(requestsHandler.Reject)))
	mux.Handle("POST /api/requests/{id}/confirm-given", authMW(http.HandlerFunc(requestsHandler.ConfirmGiven)))
	mux.Handle("POST /api/requests/{id}/confirm-received", authMW(http.HandlerFunc(requestsHandler.ConfirmReceived)))

	return mux
}
