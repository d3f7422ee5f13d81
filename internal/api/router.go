package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"

	"github.com/orrn/batchfarm/internal/api/handlers"
	"github.com/orrn/batchfarm/internal/api/middleware"
	"github.com/orrn/batchfarm/internal/config"
	"github.com/orrn/batchfarm/internal/core"
)

// NewRouter wires the inspection API. Routes under /api require a token when
// auth is enabled.
func NewRouter(scheduler *core.Scheduler, authCfg config.AuthConfig, logger hclog.Logger) *gin.Engine {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	farm := handlers.NewFarmHandler(scheduler, logger)
	api := r.Group("/api")

	if authCfg.Enabled {
		auth := middleware.NewAuthMiddleware(authCfg)
		api.POST("/auth/login", auth.LoginHandler)
		api.POST("/auth/logout", auth.LogoutHandler)
		api.GET("/auth/status", auth.StatusHandler)
		api.Use(auth.RequireAuth())
	}

	api.GET("/farm", farm.GetFarm)
	api.GET("/machines", farm.ListMachines)
	api.GET("/machines/:index", farm.GetMachine)
	api.DELETE("/machines/:index", farm.RemoveMachine)
	api.PUT("/machines/:index/running", farm.SetRunning)
	api.GET("/jobs/:id", farm.GetJob)
	api.DELETE("/jobs/:id", farm.CancelJob)

	return r
}

func requestLogger(logger hclog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
