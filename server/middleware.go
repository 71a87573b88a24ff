package server

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ncobase/searchsync/ctxutil"
	"github.com/ncobase/searchsync/net/resp"
	"github.com/ncobase/searchsync/security/jwt"
)

// limit rejects requests while every slot is taken.
func (s *Server) limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter == nil {
			c.Next()
			return
		}
		if !s.limiter.TryAcquire() {
			resp.Fail(c.Writer, resp.ServiceUnavailable("server busy, retry later"))
			c.Abort()
			return
		}
		defer func() {
			if err := s.limiter.Release(); err != nil {
				s.logger.Errorf(c.Request.Context(), "release request slot: %v", err)
			}
		}()
		c.Next()
	}
}

// requireAdmin accepts bearer tokens carrying the admin role. Without a
// configured secret the admin routes are closed.
func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.tokens == nil {
			resp.Fail(c.Writer, resp.Forbidden("admin endpoints are disabled"))
			c.Abort()
			return
		}

		authHeader := c.GetHeader("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			resp.Fail(c.Writer, resp.UnAuthorized("missing bearer token"))
			c.Abort()
			return
		}

		claims, err := s.tokens.DecodeToken(parts[1])
		if err != nil || !jwt.IsAccessToken(claims) {
			s.logger.Warnf(c.Request.Context(), "rejected admin token: %v", err)
			resp.Fail(c.Writer, resp.UnAuthorized("invalid token"))
			c.Abort()
			return
		}

		if !jwt.IsAdminFromToken(claims) && !jwt.HasRole(claims, s.cfg.Auth.JWT.AdminRole) {
			resp.Fail(c.Writer, resp.Forbidden("insufficient permissions"))
			c.Abort()
			return
		}

		ctx := ctxutil.WithGinContext(c.Request.Context(), c)
		ctx = ctxutil.SetUserRoles(ctx, jwt.GetRolesFromToken(claims))
		ctx = ctxutil.SetUserIsAdmin(ctx, true)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
