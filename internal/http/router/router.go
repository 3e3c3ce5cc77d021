package router

import (
	"net/http"

	apphttp "postcode_lookup/internal/http"
	"postcode_lookup/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// New builds the gin engine: shared middleware, health and metrics endpoints,
// then every module's routes under /api/v1.
func New(app *apphttp.App) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestID())
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(httpkit.CORS(app.Config))

	engine.GET("/api/health", func(c *gin.Context) {
		if app.Health != nil {
			if err := app.Health.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rc := &apphttp.RouterContext{
		Engine:            engine,
		V1:                engine.Group("/api/v1"),
		LookupRateLimiter: httpkit.NewLookupRateLimiter(app.Config, app.Logger),
	}
	for _, m := range app.Modules {
		m.RegisterRoutes(rc)
		app.Logger.Info("module routes registered", "module", m.Name())
	}

	return engine
}
