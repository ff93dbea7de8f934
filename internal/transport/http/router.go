package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"mysns/internal/handler"
	"mysns/internal/httputil"
	"mysns/internal/logger"
	"mysns/internal/metrics"
	authmw "mysns/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	IdentityHandler     *handler.IdentityHandler
	UserHandler         *handler.UserHandler
	FollowHandler       *handler.FollowHandler
	LikeHandler         *handler.LikeHandler
	BookmarkHandler     *handler.BookmarkHandler
	PostHandler         *handler.PostHandler
	CommentHandler      *handler.CommentHandler
	ConversationHandler *handler.ConversationHandler
	MessageHandler      *handler.MessageHandler

	Verifier    *authmw.TokenVerifier
	Resolver    authmw.IdentityResolver
	RateLimiter *authmw.RateLimiter
	Logger      zerolog.Logger
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(logger.HTTPMiddleware(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	optionalAuth := authmw.OptionalAuthMiddleware(cfg.Verifier, cfg.Resolver)

	r.Route("/api", func(r chi.Router) {
		// Public reads; the viewer is attached when a token is present.
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)

			r.Get("/users/search", cfg.UserHandler.Search)
			r.Get("/users/{id}", cfg.UserHandler.GetProfile)
			r.Get("/users/{id}/followers", cfg.FollowHandler.GetFollowers)
			r.Get("/users/{id}/following", cfg.FollowHandler.GetFollowing)
			r.Get("/users/{id}/posts", cfg.PostHandler.GetUserPosts)
			r.Get("/posts/{id}", cfg.PostHandler.GetByID)
			r.Get("/posts/{id}/comments", cfg.CommentHandler.ListByPost)
		})

		r.Group(func(r chi.Router) {
			r.Use(authmw.AuthMiddleware(cfg.Verifier, cfg.Resolver))
			if cfg.RateLimiter != nil {
				r.Use(cfg.RateLimiter.Middleware)
			}

			r.Post("/sync-user", cfg.IdentityHandler.SyncUser)
			r.Patch("/users/me", cfg.UserHandler.UpdateMe)

			r.Post("/follows", cfg.FollowHandler.Toggle)

			r.Post("/likes", cfg.LikeHandler.Like)
			r.Delete("/likes", cfg.LikeHandler.Unlike)

			r.Get("/saved-posts", cfg.BookmarkHandler.List)
			r.Post("/saved-posts", cfg.BookmarkHandler.Save)
			r.Delete("/saved-posts", cfg.BookmarkHandler.Unsave)

			r.Post("/posts", cfg.PostHandler.Create)
			r.Delete("/posts/{id}", cfg.PostHandler.Delete)

			r.Post("/comments", cfg.CommentHandler.Create)
			r.Delete("/comments/{id}", cfg.CommentHandler.Delete)

			r.Get("/conversations", cfg.ConversationHandler.List)
			r.Post("/conversations", cfg.ConversationHandler.Create)
			r.Get("/conversations/{id}/unread", cfg.ConversationHandler.UnreadCount)

			r.Get("/messages", cfg.MessageHandler.List)
			r.Post("/messages", cfg.MessageHandler.Send)
		})
	})

	return r
}
