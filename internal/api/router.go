package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/kolcson/internal/auth"
	"github.com/erazemk/kolcson/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, tokens *auth.Issuer) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, Tokens: tokens}
	itemsHandler := &ItemsHandler{DB: db}
	imagesHandler := &ImagesHandler{DB: db}
	loansHandler := &LoansHandler{DB: db}
	profilesHandler := &ProfilesHandler{DB: db}
	usersHandler := &UsersHandler{DB: db}

	authMW := AuthMiddleware(tokens, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireVerified := RequireVerified(db)

	authed := func(h http.HandlerFunc) http.Handler { return authMW(h) }
	verified := func(h http.HandlerFunc) http.Handler { return authMW(requireVerified(h)) }
	admin := func(h http.HandlerFunc) http.Handler { return authMW(requireAdmin(h)) }

	// Public: accounts.
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.Handle("POST /api/auth/logout", authed(authHandler.Logout))
	mux.Handle("PUT /api/auth/password", authed(authHandler.ChangePassword))

	// Items: browsing is public, changes are checked against the owner in the store.
	mux.HandleFunc("GET /api/items", itemsHandler.List)
	mux.HandleFunc("GET /api/items/{id}", itemsHandler.Get)
	mux.Handle("POST /api/items", authed(itemsHandler.Create))
	mux.Handle("PUT /api/items/{id}", authed(itemsHandler.Update))
	mux.Handle("DELETE /api/items/{id}", authed(itemsHandler.Delete))

	// Gallery.
	mux.HandleFunc("GET /api/items/{id}/image", imagesHandler.Main)
	mux.HandleFunc("GET /api/items/{id}/images/{imageID}", imagesHandler.Get)
	mux.Handle("POST /api/items/{id}/images", authed(imagesHandler.Upload))
	mux.Handle("PUT /api/items/{id}/images/{imageID}/cover", authed(imagesHandler.SetCover))
	mux.Handle("DELETE /api/items/{id}/images/{imageID}", authed(imagesHandler.Delete))

	// Loans.
	mux.Handle("POST /api/items/{id}/loans", authed(loansHandler.Request))
	mux.Handle("GET /api/loans", authed(loansHandler.List))
	mux.Handle("GET /api/loans/{id}", authed(loansHandler.Get))
	mux.Handle("POST /api/loans/{id}/{action}", authed(loansHandler.Transition))

	// Own account.
	mux.Handle("GET /api/me/items", authed(itemsHandler.Mine))
	mux.Handle("GET /api/me/profile", authed(profilesHandler.Me))
	mux.Handle("PUT /api/me/profile", authed(profilesHandler.UpdateMe))
	mux.Handle("PUT /api/me/avatar", authed(profilesHandler.UploadAvatar))

	// Other users, for verified users only.
	mux.Handle("GET /api/users/{username}", verified(profilesHandler.Get))
	mux.Handle("GET /api/users/{username}/items", verified(profilesHandler.Items))
	mux.Handle("GET /api/users/{username}/avatar", verified(profilesHandler.Avatar))

	// User administration.
	mux.Handle("GET /api/users", admin(usersHandler.List))
	mux.Handle("PUT /api/users/{id}/verified", admin(usersHandler.SetVerified))
	mux.Handle("DELETE /api/users/{id}", admin(usersHandler.Delete))

	return mux
}
