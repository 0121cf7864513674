package app

import (
	"context"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gat-college/faqbot/internal/buildinfo"
	"github.com/gat-college/faqbot/internal/config"
	"github.com/gat-college/faqbot/internal/ctxutil"
	apperrors "github.com/gat-college/faqbot/internal/errors"
	"github.com/gat-college/faqbot/internal/pipeline"
	"github.com/gat-college/faqbot/internal/sentry"
)

// Fixed response texts.
const (
	invalidBodyDetail  = "request body must be a JSON object with a string user_message"
	rateLimitedMessage = "You're sending messages too quickly. Please wait a moment and try again."
)

type chatRequest struct {
	UserMessage string `json:"user_message"`
}

type faqItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type faqsResponse struct {
	Count int       `json:"count"`
	FAQs  []faqItem `json:"faqs"`
}

func (a *Application) newRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if sentry.IsEnabled() {
		router.Use(sentryMiddleware())
	}
	router.Use(requestIDMiddleware())
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(a.logger, a.metrics))
	router.Use(cors.New(corsConfig(a.cfg.CORSAllowedOrigins)))

	router.GET("/", a.serviceInfo)
	router.GET("/ping", a.ping)
	router.GET("/livez", a.livenessCheck)
	router.HEAD("/livez", a.livenessCheck)
	router.GET("/readyz", a.readinessCheck)
	router.HEAD("/readyz", a.readinessCheck)
	router.POST("/chat", a.rateLimitMiddleware(), a.chat)
	router.GET("/faqs", a.listFAQs)
	router.GET("/metrics",
		metricsAuthMiddleware(a.cfg.MetricsUsername, a.cfg.MetricsPassword),
		gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))

	return router
}

// chat resolves one message. Only a malformed body is rejected; an absent
// or blank message goes through the pipeline like any other.
func (a *Application) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.logger.WithError(err).Debug("Rejected chat body")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": invalidBodyDetail})
		return
	}

	res := a.resolver.Resolve(c.Request.Context(), req.UserMessage)
	c.JSON(http.StatusOK, res)
}

func (a *Application) listFAQs(c *gin.Context) {
	snap := a.faqs.Current()
	items := make([]faqItem, len(snap.Entries))
	for i, e := range snap.Entries {
		items[i] = faqItem{Question: e.Question, Answer: e.Answer}
	}
	c.JSON(http.StatusOK, faqsResponse{Count: len(items), FAQs: items})
}

func (a *Application) ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

func (a *Application) serviceInfo(c *gin.Context) {
	c.JSON(http.StatusOK, buildinfo.Get())
}

func (a *Application) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

func (a *Application) getFeatures() map[string]bool {
	return map[string]bool{
		"ai_fallback": a.assistant.Enabled(),
		"redis_cache": a.memo.HasRemote(),
		"rate_limit":  a.chatLimiter != nil,
	}
}

func (a *Application) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), config.StorePing)
	defer cancel()

	if !a.readinessState.IsReady() {
		status := a.readinessState.Status()
		a.logger.WithField("reason", status.Reason).
			WithField("elapsed_seconds", status.ElapsedSeconds).
			Debug("Readiness check: not ready")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": status.Reason,
			"progress": gin.H{
				"elapsed_seconds": status.ElapsedSeconds,
				"timeout_seconds": status.TimeoutSeconds,
			},
		})
		return
	}

	if err := a.store.Ping(ctx); err != nil {
		a.logger.WithError(err).Warn("Readiness check failed: store unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "store unavailable",
		})
		return
	}

	snap := a.faqs.Current()
	faqStats := gin.H{
		"entries":          snap.Len(),
		"refresh_failures": a.faqs.Failures(),
	}
	if !snap.LoadedAt.IsZero() {
		faqStats["loaded_at"] = snap.LoadedAt.UTC()
	}
	if err := a.faqs.LastError(); err != nil {
		faqStats["last_error"] = apperrors.GetUserMessage(err)
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"store":  a.store.Backend(),
		"faqs":   faqStats,
		"ai": gin.H{
			"in_flight":    a.assistant.InFlight(),
			"memo_entries": a.memo.Len(),
		},
		"features": a.getFeatures(),
	})
}

// rateLimitMiddleware applies the per-client chat bucket. Rejections keep
// the chat response shape so clients can render them.
func (a *Application) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.chatLimiter == nil {
			c.Next()
			return
		}

		ip := ctxutil.GetClientIP(c.Request.Context())
		if a.chatLimiter.Allow(ip) {
			c.Next()
			return
		}

		wait := a.chatLimiter.RetryAfter(ip)
		seconds := max(1, int(math.Ceil(wait.Seconds())))
		a.logger.WithField("client_ip", ip).
			WithField("retry_after", seconds).
			Debug("Chat request rate limited")
		c.Header("Retry-After", strconv.Itoa(seconds))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, pipeline.Result{
			Response: rateLimitedMessage,
			Source:   pipeline.SourceError,
		})
	}
}
