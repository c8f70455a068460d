package main

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/eclipse-sealman/sealman-ems/pkg/deny"
	"github.com/eclipse-sealman/sealman-ems/pkg/model"
	"github.com/eclipse-sealman/sealman-ems/pkg/security"
)

const (
	userContextKey     = "user"
	resolverContextKey = "resolver"
)

// requireUser authenticates the bearer token and attaches the acting user
// plus a fresh deny resolver to the request. The resolver snapshots global
// config once so every verdict in this request sees the same flags.
func (s *Server) requireUser(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		respondError(c, http.StatusUnauthorized, "missing bearer token", s.logger)
		return
	}

	var user model.User
	err := s.db.
		Preload("AccessTags").
		Preload("VpnConnections").
		Preload("Certificates").
		Where("token_hash = ? AND enabled = ?", s.hasher.HashString(token), true).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusUnauthorized, "invalid token", s.logger)
		} else {
			respondError(c, http.StatusInternalServerError, "failed to authenticate", s.logger)
		}
		return
	}

	resolver := deny.NewResolver(s.db, s.cfg.Snapshot(), &user)

	c.Set(userContextKey, &user)
	c.Set(resolverContextKey, resolver)
	c.Next()
}

func currentUser(c *gin.Context) *model.User {
	if value, ok := c.Get(userContextKey); ok {
		if user, ok := value.(*model.User); ok {
			return user
		}
	}
	return nil
}

func requestResolver(c *gin.Context) *deny.Resolver {
	if value, ok := c.Get(resolverContextKey); ok {
		if resolver, ok := value.(*deny.Resolver); ok {
			return resolver
		}
	}
	return nil
}

// requireRole gates an endpoint on a coarse role, prior to any entity-level
// deny check.
func (s *Server) requireRole(role security.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		resolver := requestResolver(c)
		if resolver == nil || !resolver.HasRole(role) {
			respondError(c, http.StatusForbidden, "insufficient role", s.logger)
			return
		}
		c.Next()
	}
}

// rateLimitedByUser applies the shared limiter keyed by the acting user.
func (s *Server) rateLimitedByUser(name string, limit int, window time.Duration, handler gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := name + ":"
		if user := currentUser(c); user != nil {
			key += user.Username
		} else {
			key += c.ClientIP()
		}
		if !s.limiter.Allow(key, limit, window) {
			respondError(c, http.StatusTooManyRequests, "rate limit exceeded", s.logger)
			return
		}
		handler(c)
	}
}
