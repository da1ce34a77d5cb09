package server

import (
	"context"
	"net/http"

	"catering/internal/handlers"
	applog "catering/internal/log"
)

func newRouter() http.Handler {
	mux := http.NewServeMux()
	applog.Debug(context.Background(), "registering http routes")

	mux.HandleFunc("GET /healthz", handlers.Health)
	mux.HandleFunc("/login", handlers.Login)
	mux.HandleFunc("/logout", handlers.Logout)
	applog.Debug(context.Background(), "public routes registered", "paths", []string{"/healthz", "/login", "/logout"})

	protected := map[string]http.HandlerFunc{
		"GET /app/api/events/{id}/shopping-list": handlers.EventShoppingList,
		"GET /app/api/recipes/{id}/cost":         handlers.RecipeCost,
		"GET /app/api/purchasing":                handlers.Purchasing,
		"GET /app/purchasing/report":             handlers.PurchasingReport,
		"GET /app/purchasing/export.xlsx":        handlers.PurchasingExport,
	}
	for pattern, handler := range protected {
		mux.Handle(pattern, handlers.RequireAuthentication(handler))
		applog.Debug(context.Background(), "route registered", "pattern", pattern, "protected", true)
	}

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/app/purchasing/report", http.StatusSeeOther)
	})
	return mux
}
