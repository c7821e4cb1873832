package router

import (
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "goerp/docs" // Documentação Swagger gerada pelo swag
	"goerp/internal/api/form"
	"goerp/internal/api/location"
	"goerp/internal/api/stock"
	"goerp/internal/pkg/cache"
	"goerp/internal/pkg/logger"
	"goerp/internal/pkg/middleware"
)

// Handlers agrupa os Handlers já inicializados por injeção de dependências.
type Handlers struct {
	Form     *form.Handler
	Stock    *stock.Handler
	Location *location.Handler
}

// RateLimit configura o limitador por IP.
type RateLimit struct {
	MaxRequests int
	Period      time.Duration
}

// NewRouter configura e retorna o roteador HTTP principal.
func NewRouter(h Handlers, tokens middleware.TokenValidator, cacheClient cache.Client, limit RateLimit, log logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// --- 1. Rotas públicas ---
	mux.HandleFunc("GET /ping", PingHandler)
	mux.Handle("GET /swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// --- 2. Rotas autenticadas (v1) ---
	auth := middleware.NewAuthMiddleware(tokens)
	anyRole := func(fn http.HandlerFunc) http.Handler {
		return auth(fn)
	}
	editors := func(fn http.HandlerFunc) http.Handler {
		return auth(middleware.PermissionMiddleware(middleware.RoleAdmin, middleware.RoleOperator)(fn))
	}

	// Formulários de entrega e venda
	mux.Handle("POST /v1/forms", editors(h.Form.OpenHandler))
	mux.Handle("GET /v1/forms/{id}", anyRole(h.Form.GetHandler))
	mux.Handle("DELETE /v1/forms/{id}", editors(h.Form.CloseHandler))
	mux.Handle("POST /v1/forms/{id}/actions", editors(h.Form.DispatchHandler))
	mux.Handle("POST /v1/forms/{id}/items/{itemID}/stock", editors(h.Form.RefreshStockHandler))
	mux.Handle("POST /v1/forms/{id}/submit", editors(h.Form.SubmitHandler))

	// Consultas
	mux.Handle("GET /v1/stock", anyRole(h.Stock.GetSnapshotHandler))
	mux.Handle("GET /v1/locations", anyRole(h.Location.ListLocationsHandler))

	// --- 3. Middlewares globais ---
	return middleware.RateLimiter(cacheClient, limit.MaxRequests, limit.Period, log)(mux)
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
