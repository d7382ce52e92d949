package routes

import (
	"net/http"
	"time"

	"rebelchat/rebelchat/controllers"
	"rebelchat/rebelchat/metrics"
	"rebelchat/rebelchat/middlewares"
	"rebelchat/rebelchat/services/tokens"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Deps is everything the HTTP surface needs.
type Deps struct {
	Tokens  *tokens.Manager
	Auth    *controllers.AuthController
	Chat    *controllers.ChatController
	Lex     *controllers.LexController
	Health  *controllers.HealthController
	Limiter *middlewares.RateLimiter
	Metrics metrics.Recorder
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
	CORSOrigin     string
	WSOrigins      []string
}

func NewRouter(d Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewares.RequestLogger(d.Metrics))
	r.Use(middleware.Recoverer)

	r.Mount("/health", HealthRoutes(d.Health))
	if d.MetricsHandler != nil {
		r.Handle("/metrics", d.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(middlewares.CORS(d.CORSOrigin))
		// attach the caller before limiting so signed-in users are keyed by sub
		api.Use(middlewares.OptionalAuth(d.Tokens))

		// the websocket outlives any request timeout
		api.Group(func(g chi.Router) {
			g.Use(limit(d.Limiter, "chat"))
			g.Mount("/chat", ChatRoutes(d.Chat, d.Tokens, d.WSOrigins))
		})

		api.Group(func(g chi.Router) {
			g.Use(middleware.Timeout(60 * time.Second))
			g.Use(limit(d.Limiter, "auth"))
			g.Mount("/auth", AuthRoutes(d.Auth, d.Tokens))
		})

		if d.Lex != nil {
			api.Group(func(g chi.Router) {
				g.Use(middleware.Timeout(60 * time.Second))
				g.Use(limit(d.Limiter, "lex"))
				g.Mount("/lex", LexRoutes(d.Lex, d.Tokens))
			})
		}
	})
	return r
}

func limit(rl *middlewares.RateLimiter, scope string) func(http.Handler) http.Handler {
	if rl == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return rl.Middleware(scope)
}
