package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Registrar adds a handler's routes to the engine.
type Registrar interface {
	Register(r *gin.Engine)
}

// NewEngine builds the gin engine with recovery and the zap access log.
func NewEngine(mode string, log *zap.Logger, handlers ...Registrar) *gin.Engine {
	if mode != "" {
		gin.SetMode(mode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(AccessLog(log))
	for _, h := range handlers {
		h.Register(engine)
	}
	return engine
}

func AccessLog(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Int("bytes", c.Writer.Size()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		switch {
		case c.Writer.Status() >= 500:
			log.Error("http request", fields...)
		case c.Writer.Status() >= 400:
			log.Warn("http request", fields...)
		default:
			log.Info("http request", fields...)
		}
	}
}

// RateLimit rejects requests with 429 once the limiter is exhausted.
func RateLimit(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter != nil && !limiter.Allow() {
			Error(c, 429, "rate limit exceeded", nil)
			return
		}
		c.Next()
	}
}

func intQuery(c *gin.Context, key string, def int) int {
	if val := c.Query(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return def
}

func idParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		Error(c, 400, "invalid id", nil)
		return 0, false
	}
	return id, true
}
