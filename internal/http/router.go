package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/sparhub/backend/internal/config"
	"github.com/sparhub/backend/internal/db"
	"github.com/sparhub/backend/internal/http/handlers"
	"github.com/sparhub/backend/internal/http/middleware"
	"github.com/sparhub/backend/internal/service"
)

func Router(cfg config.Config, store *db.Store, draws *service.DrawService, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Store:     store,
		Draws:     draws,
		Validator: validator.New(),
		Logger:    logger,
		AdminKey:  cfg.AdminKey,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.GET("/spars/:id", h.SparGet)
		api.GET("/spars/:id/draw", h.DrawGet)
		api.POST("/spars/:id/signups", h.SignupUpsert)
		api.POST("/ballots/:key", h.BallotSubmit)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/series", h.SeriesCreate)
		admin.GET("/series/:id", h.SeriesGet)
		admin.POST("/series/:id/members", h.MemberCreate)
		admin.GET("/series/:id/members", h.MembersList)
		admin.POST("/series/:id/spars", h.SparCreate)
		admin.GET("/series/:id/spars", h.SparsList)
		admin.POST("/spars/:id/open", h.SparSetOpen)
		admin.POST("/spars/:id/release", h.SparReleaseDraw)
		admin.GET("/spars/:id/signups", h.SignupsList)
		admin.POST("/spars/:id/draft-draws", h.DraftDrawGenerate)
		admin.GET("/draft-draws/:id", h.DraftDrawGet)
		admin.POST("/spars/:id/confirm-draw", h.DrawConfirm)
	}

	return r
}
