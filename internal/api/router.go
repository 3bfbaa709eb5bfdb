package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gamedeck/socialgraph/internal/cache"
	"github.com/gamedeck/socialgraph/internal/db"
	"github.com/gamedeck/socialgraph/internal/social"
	"github.com/gamedeck/socialgraph/pkg/logging"
)

// Router sets up API routes
type Router struct {
	handler *JSONRPCHandler
	engine  *social.Engine
	db      *db.DB
	cache   *cache.Cache
	limiter *RateLimiter
	logger  *zap.Logger
}

// NewRouter creates a new API router. redisCache and limiter may be nil.
func NewRouter(engine *social.Engine, database *db.DB, redisCache *cache.Cache, limiter *RateLimiter) *Router {
	router := &Router{
		handler: NewJSONRPCHandler(),
		engine:  engine,
		db:      database,
		cache:   redisCache,
		limiter: limiter,
		logger:  logging.WithComponent("api-router"),
	}

	router.registerMethods()

	return router
}

// SetupRoutes sets up all API routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	engine.GET("/health", r.healthHandler)
	engine.GET("/.well-known/healthcheck.json", r.healthHandler)

	rpc := engine.Group("/", Identity())
	if r.limiter != nil {
		rpc.Use(r.limiter.Middleware())
	}
	rpc.POST("/", r.handler.Handle)
}

// registerMethods registers all API methods
func (r *Router) registerMethods() {
	api := NewSocialAPI(r.engine)

	// Mutations act as the X-Account-Id account
	r.handler.RegisterMethod("social_api.follow", api.Follow)
	r.handler.RegisterMethod("social_api.unfollow", api.Unfollow)
	r.handler.RegisterMethod("social_api.block", api.Block)
	r.handler.RegisterMethod("social_api.unblock", api.Unblock)
	r.handler.RegisterMethod("social_api.approve_follow_request", api.ApproveFollowRequest)
	r.handler.RegisterMethod("social_api.reject_follow_request", api.RejectFollowRequest)
	r.handler.RegisterMethod("social_api.cancel_follow_request", api.CancelFollowRequest)

	// Point lookups
	r.handler.RegisterMethod("social_api.is_following", api.IsFollowing)
	r.handler.RegisterMethod("social_api.has_pending_request", api.HasPendingRequest)
	r.handler.RegisterMethod("social_api.is_blocking", api.IsBlocking)
	r.handler.RegisterMethod("social_api.is_blocked_by", api.IsBlockedBy)
	r.handler.RegisterMethod("social_api.get_relationship_status", api.GetRelationshipStatus)
	r.handler.RegisterMethod("social_api.get_follow_count", api.GetFollowCount)
	r.handler.RegisterMethod("social_api.can_view_profile", api.CanViewProfile)

	// Lists
	r.handler.RegisterMethod("social_api.list_followers", api.ListFollowers)
	r.handler.RegisterMethod("social_api.list_following", api.ListFollowing)
	r.handler.RegisterMethod("social_api.list_blocked", api.ListBlocked)
	r.handler.RegisterMethod("social_api.list_incoming_requests", api.ListIncomingRequests)
	r.handler.RegisterMethod("social_api.list_outgoing_requests", api.ListOutgoingRequests)
}

// healthHandler reports database and cache reachability
func (r *Router) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := gin.H{"database": "OK"}
	if err := r.db.Health(ctx); err != nil {
		r.logger.Warn("Database health check failed", zap.Error(err))
		checks["database"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	if r.cache != nil {
		checks["cache"] = "OK"
		if err := r.cache.Health(ctx); err != nil {
			r.logger.Warn("Cache health check failed", zap.Error(err))
			checks["cache"] = err.Error()
		}
	}

	overall := "OK"
	if status != http.StatusOK {
		overall = "DEGRADED"
	}
	c.JSON(status, gin.H{
		"status":  overall,
		"service": "socialgraph-api",
		"checks":  checks,
	})
}
