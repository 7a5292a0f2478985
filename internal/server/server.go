package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
)

// Server represents the HTTP server
type Server struct {
	cfg    *config.Config
	router *gin.Engine
	http   *http.Server
	db     *gorm.DB
	redis  *redis.Client
}

// New wires the services and routes. Redis and S3 are optional: without
// Redis logout does not revoke tokens and recipe creation is not throttled,
// without S3 images are stored inline.
func New(ctx context.Context, cfg *config.Config, db *gorm.DB) (*Server, error) {
	s := &Server{cfg: cfg, db: db}

	var revoker service.TokenRevoker
	var limiter *middleware.RateLimiter
	if cfg.RedisEnabled() {
		client, err := database.NewRedisClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		s.redis = client
		revoker = service.NewRedisTokenRevoker(client)
		limiter = middleware.NewRecipeCreationRateLimiter(client, cfg.RecipeCreationLimit)
	} else {
		log.Warn().Msg("Redis not configured, token revocation and rate limiting disabled")
	}

	var images service.ImageStore
	if cfg.S3Enabled() {
		s3cfg, err := config.NewS3Config(ctx, cfg)
		if err != nil {
			return nil, err
		}
		images = service.NewS3ImageStoreFromConfig(s3cfg)
		log.Info().Str("bucket", s3cfg.BucketName).Msg("Storing recipe images in S3")
	}

	router := gin.New()
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS(cfg.CORSOrigins))

	api.RegisterRoutes(router, api.Dependencies{
		DB:            db,
		Auth:          service.NewAuthService(db, cfg.JWTSecret, cfg.TokenTTL, revoker),
		Images:        images,
		RecipeLimiter: limiter,
	})

	s.router = router
	s.http = &http.Server{
		Addr:              cfg.ServerHost + ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	log.Info().Str("addr", s.http.Addr).Msg("Starting server")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server and releases the Redis client.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	if s.redis != nil {
		if cerr := s.redis.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
