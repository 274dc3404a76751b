package rest

import (
	"net/http"
	"strings"

	"codeinterview/internal/clock"
	"codeinterview/internal/repository"
	"codeinterview/internal/transport/rest/handler"
	"codeinterview/internal/transport/rest/middleware"
	"codeinterview/internal/transport/ws"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Container holds all dependencies for the router
type Container struct {
	Sessions       repository.SessionRepo
	WSHandler      *ws.Handler
	CreateLimiter  *middleware.RateLimiter // nil disables rate limiting
	Clock          clock.Clock
	Logger         *zap.SugaredLogger
	AllowedOrigins []string
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	sessionHandler := handler.NewSessionHandler(c.Sessions, c.Logger)
	healthHandler := handler.NewHealthHandler(c.Clock)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.AllowedOrigins))
	r.Use(middleware.Recover(c.Logger))
	r.Use(middleware.ClientIP)
	r.NotFoundHandler = corsMiddleware(c.AllowedOrigins)(http.HandlerFunc(handler.NotFound))

	r.HandleFunc("/", healthHandler.Root).Methods("GET")
	r.HandleFunc("/health", healthHandler.Health).Methods("GET")
	r.HandleFunc("/ws", c.WSHandler.ServeWS).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", healthHandler.Health).Methods("GET", "OPTIONS")

	var create http.Handler = http.HandlerFunc(sessionHandler.Create)
	if c.CreateLimiter != nil {
		create = c.CreateLimiter.Limit(create)
	}
	api.Handle("/sessions", create).Methods("POST")
	api.HandleFunc("/sessions", sessionHandler.List).Methods("GET", "OPTIONS")
	api.HandleFunc("/sessions/{id}", sessionHandler.Get).Methods("GET", "OPTIONS")
	api.HandleFunc("/sessions/{id}", sessionHandler.Delete).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/participants", sessionHandler.Participants).Methods("GET", "OPTIONS")
	api.HandleFunc("/sessions/{id}/code", sessionHandler.Code).Methods("GET", "OPTIONS")

	return r
}

// corsMiddleware echoes the request origin when it is allowed. A "*" entry
// allows any origin.
func corsMiddleware(allowed []string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); origin != "" && originAllowed(allowed, origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(allowed []string, origin string) bool {
	for _, o := range allowed {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}
