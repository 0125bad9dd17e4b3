package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"foodgram/config"
	"foodgram/internal/api"
	"foodgram/internal/middleware"
	"foodgram/internal/service"
	"foodgram/internal/shortlink"
)

// Server wires the services and handlers into one HTTP server.
type Server struct {
	router *gin.Engine
	http   *http.Server
}

// New assembles the full application router.
func New(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, images service.ImageStore) *Server {
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.BaseURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	codec := shortlink.New(cfg.SecretKey)

	authService := service.NewAuthService(db)
	userService := service.NewUserService(db, images)
	recipeService := service.NewRecipeService(db, images, codec)
	catalogService := service.NewIngredientService(db)
	shoppingService := service.NewShoppingListService(db)

	limiter := middleware.NewLoginRateLimiter(redisClient)

	authHandler := api.NewAuthHandler(authService, limiter)
	userHandler := api.NewUserHandler(userService, authService, images, cfg.BaseURL)
	catalogHandler := api.NewCatalogHandler(catalogService)
	recipeHandler := api.NewRecipeHandler(recipeService, userService, shoppingService, authService, images, cfg.BaseURL)

	apiGroup := router.Group("/api")
	{
		authHandler.RegisterRoutes(apiGroup)
		userHandler.RegisterRoutes(apiGroup)
		catalogHandler.RegisterRoutes(apiGroup)
		recipeHandler.RegisterRoutes(apiGroup)
	}
	recipeHandler.RegisterShortLinkRoute(router)

	if cfg.StorageBackend == "local" {
		router.Static("/media", cfg.MediaRoot)
	}

	return &Server{
		router: router,
		http: &http.Server{
			Addr:    cfg.ServerHost + ":" + cfg.ServerPort,
			Handler: router,
		},
	}
}

// Router exposes the underlying engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start blocks serving HTTP until Shutdown or failure.
func (s *Server) Start() error {
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
