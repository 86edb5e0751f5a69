package api

import (
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options 路由层配置。
type Options struct {
	CORSOrigins []string
	// 只作用于会发起 RDAP 查询的接口
	Limiter *LimiterStore
}

// NewRouter 注册全部接口。
func NewRouter(h *Handlers, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))

	r.GET("/api/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limited := r.Group("/api")
	if opts.Limiter != nil {
		limited.Use(RateLimit(opts.Limiter))
	}
	{
		limited.POST("/check", h.Check)
		limited.POST("/recheck", h.Recheck)
		limited.GET("/whois/:domain", h.WhoisLookup)
	}

	results := r.Group("/api")
	{
		results.GET("/results", h.ListResults)
		results.DELETE("/results/:id", h.DeleteResult)
		results.POST("/results/delete", h.DeleteResults)
		results.GET("/export", h.Export)
		results.GET("/stats", h.BatchStats)
	}
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Printf("[http] method=%s path=%s status=%d ip=%s elapsed=%s",
			c.Request.Method, c.FullPath(), c.Writer.Status(), c.ClientIP(), time.Since(start).Round(time.Millisecond))
	}
}
