package server

import (
	"context"
	"net/http"
	"time"

	"adgate/internal/auth"
	"adgate/internal/config"
	"adgate/internal/ledger"
	"adgate/internal/ssv"
	"adgate/internal/wallet"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
	db     *sqlx.DB
	config *config.Config
}

func New(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())

	walletHandler := wallet.NewHandler(db)
	historyHandler := ledger.NewHandler(db)

	keys := ssv.NewKeySet(cfg.KeySetURL, rdb, time.Duration(cfg.KeyCacheSeconds)*time.Second)
	ssvService := ssv.NewService(keys, ledger.NewRepository(db))
	ssvHandler := ssv.NewHandler(ssvService)

	// Webhook path: no auth (authenticity is the signature), but rate limited
	// so a misbehaving caller cannot grind the database.
	callback := router.Group("/ssv")
	callback.Use(RateLimitMiddleware(cfg.CallbackRPS, cfg.CallbackBurst))
	{
		callback.GET("/callback", ssvHandler.HandleCallback)
		callback.POST("/callback", ssvHandler.HandleCallback)
	}

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/wallet", walletHandler.GetBalance)
		protected.GET("/rewards/history", historyHandler.GetHistory)
	}

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())

	return &Server{
		router: router,
		db:     db,
		config: cfg,
	}
}

func (s *Server) Start(port string) error {
	s.http = &http.Server{
		Addr:    ":" + port,
		Handler: s.router,
	}
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Router exposes the engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
