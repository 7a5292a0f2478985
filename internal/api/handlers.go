package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/validation"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Dependencies are the collaborators the handlers are built from.
type Dependencies struct {
	DB     *gorm.DB
	Auth   *service.AuthService
	Images service.ImageStore
	// RecipeLimiter throttles recipe creation; nil disables it.
	RecipeLimiter *middleware.RateLimiter
}

// HealthCheck returns the health status of the API
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "Foodgram API is running",
	})
}

// RegisterRoutes registers all API routes
func RegisterRoutes(router *gin.Engine, deps Dependencies) {
	registerValidators()

	// Health check endpoint (no auth required)
	router.GET("/health", HealthCheck)

	users := service.NewUserService(deps.DB)
	subscriptions := service.NewSubscriptionService(deps.DB)
	recipes := service.NewRecipeService(deps.DB, deps.Images)

	userHandler := NewUserHandler(deps.Auth, users, subscriptions)
	authHandler := NewAuthHandler(deps.Auth)
	tagHandler := NewTagHandler(service.NewTagService(deps.DB), deps.Auth)
	ingredientHandler := NewIngredientHandler(service.NewIngredientService(deps.DB))
	recipeHandler := NewRecipeHandler(
		recipes,
		service.NewFavoriteService(deps.DB),
		service.NewShoppingCartService(deps.DB),
		service.NewShoppingListService(deps.DB),
		deps.Auth,
		deps.RecipeLimiter,
	)

	api := router.Group("/api")
	userHandler.RegisterRoutes(api)
	authHandler.RegisterRoutes(api)
	tagHandler.RegisterRoutes(api)
	ingredientHandler.RegisterRoutes(api)
	recipeHandler.RegisterRoutes(api)
}

// registerValidators installs the custom binding rules on gin's validator.
func registerValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	validatorsOnce.Do(func() {
		if err := validation.Register(v); err != nil {
			log.Fatal().Err(err).Msg("failed to register validators")
		}
	})
}
