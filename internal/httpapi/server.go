// Package httpapi implements the HTTP half of the External Surface (C7):
// a gin router exposing the login, exchange, refresh, logout, validate,
// sessions, and JWKS endpoints over JSON.
package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/arga-sso/ssoauthority/internal/middleware"
	"github.com/arga-sso/ssoauthority/internal/orchestrator"
	"github.com/arga-sso/ssoauthority/internal/tokens"
)

// Server holds the dependencies every handler needs.
type Server struct {
	orch         *orchestrator.Orchestrator
	codec        *tokens.Codec
	loginLimiter *middleware.RateLimiter
}

// NewServer builds a Server. The credential-bearing login and exchange
// routes get their own stricter per-IP limiter on top of whatever
// global rate limiting the caller applies, since those are the
// endpoints a credential-stuffing attempt would hammer.
func NewServer(orch *orchestrator.Orchestrator, codec *tokens.Codec) *Server {
	return &Server{
		orch:         orch,
		codec:        codec,
		loginLimiter: middleware.NewRateLimiter(1, 10),
	}
}

// RegisterRoutes mounts the auth surface and JWKS endpoint under group.
// The caller is expected to mount group at whatever base prefix it likes
// (e.g. "/api/v1"); the well-known JWKS path is mounted at the router's
// root separately via RegisterWellKnown, since /.well-known/ is
// conventionally unprefixed.
func (s *Server) RegisterRoutes(group *gin.RouterGroup) {
	auth := group.Group("/auth")
	limited := s.loginLimiter.Middleware()
	auth.POST("/login/email", limited, s.loginEmail)
	auth.POST("/login/firebase", limited, s.loginFirebase)
	auth.GET("/login/google", s.loginGoogleStart)
	auth.GET("/login/google/callback", s.loginGoogleCallback)
	auth.POST("/exchange", limited, s.exchange)
	auth.POST("/refresh", s.refresh)
	auth.POST("/logout", s.requireAuth(), s.logoutAll)
	auth.POST("/logout/sso", s.requireAuth(), s.logoutSSO)
	auth.POST("/logout/client", s.requireAuth(), s.logoutClient)
	auth.POST("/validate", s.requireAuth(), s.validate)
	auth.GET("/sessions", s.requireAuth(), s.sessions)
}

// RegisterWellKnown mounts the JWKS document directly on router (not a
// group), matching the unprefixed /.well-known/ convention.
func (s *Server) RegisterWellKnown(router gin.IRouter) {
	router.GET("/.well-known/jwks.json", s.jwks)
}
