package http

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"mysns/internal/cache"
	"mysns/internal/config"
	"mysns/internal/database"
	"mysns/internal/handler"
	"mysns/internal/logger"
	"mysns/internal/queue"
	"mysns/internal/redis"
	"mysns/internal/repository"
	"mysns/internal/service"
	"mysns/internal/storage"
	"mysns/internal/tracing"
	authmw "mysns/internal/transport/http/middleware"
	"mysns/internal/worker"
)

const serviceName = "mysns-api"

// Run wires every dependency and serves until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config) error {
	log := logger.Component("server")

	if cfg.AuthJWTSecret == "" {
		return errors.New("AUTH_JWT_SECRET is required")
	}

	shutdownTracing, err := tracing.Setup(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	rdb, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		return err
	}
	defer rdb.Close()
	if err := rdb.Ping(ctx); err != nil {
		return err
	}

	media, err := storage.NewMediaStore(ctx, cfg)
	if err != nil {
		return err
	}
	publisher := queue.NewPublisher(rdb.Client)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	postRepo := repository.NewPostRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	bookmarkRepo := repository.NewBookmarkRepository(db)
	convRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	// Services
	identityService := service.NewIdentityService(userRepo, cache.NewIdentityCache(rdb.Client, cfg.IdentityCacheTTL))
	userService := service.NewUserService(userRepo, followRepo, postRepo, media, publisher, cfg.DefaultAvatarKey)
	followService := service.NewFollowService(followRepo, userRepo)
	likeService := service.NewLikeService(likeRepo, postRepo)
	commentService := service.NewCommentService(commentRepo, postRepo)
	postService := service.NewPostService(postRepo, userRepo, likeRepo, commentRepo, bookmarkRepo, media, publisher)
	bookmarkService := service.NewBookmarkService(bookmarkRepo, postRepo, postService)
	conversationService := service.NewConversationService(convRepo, userRepo, messageRepo)
	messageService := service.NewMessageService(convRepo, messageRepo, conversationService)

	router := NewRouter(RouterConfig{
		IdentityHandler:     handler.NewIdentityHandler(identityService),
		UserHandler:         handler.NewUserHandler(userService),
		FollowHandler:       handler.NewFollowHandler(followService),
		LikeHandler:         handler.NewLikeHandler(likeService),
		BookmarkHandler:     handler.NewBookmarkHandler(bookmarkService),
		PostHandler:         handler.NewPostHandler(postService),
		CommentHandler:      handler.NewCommentHandler(commentService),
		ConversationHandler: handler.NewConversationHandler(conversationService, messageService),
		MessageHandler:      handler.NewMessageHandler(messageService),
		Verifier:            authmw.NewTokenVerifier(cfg.AuthJWTSecret, cfg.AuthIssuer),
		Resolver:            identityService,
		RateLimiter:         authmw.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst),
		Logger:              logger.L(),
	})

	if cfg.EmbeddedWorker {
		manager := worker.NewManager(queue.NewConsumer(rdb.Client), worker.NewHandler(media, cfg.DefaultAvatarKey), worker.ManagerConfig{
			WorkerCount:  cfg.WorkerCount,
			BatchSize:    cfg.WorkerBatchSize,
			BlockTimeout: cfg.WorkerBlockTimeout,
		})
		if err := manager.Start(ctx); err != nil {
			return fmt.Errorf("failed to start workers: %w", err)
		}
		defer manager.Stop()
	}

	srv := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
