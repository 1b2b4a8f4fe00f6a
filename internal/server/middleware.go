package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rawnaqshop/dashboard-service/internal/access"
)

const viewerKey = "viewer"

// Identify resolves the X-User-ID header against the cached employee
// directory. An unknown or missing user yields the zero (anonymous) viewer;
// reads then serve the safe empty shape instead of failing.
func (h *Handler) Identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.Next()
			return
		}

		snap, err := h.provider.Fetch(c.Request.Context(), false)
		if err != nil {
			// Fall back to whatever is cached; identification is best-effort.
			snap, _ = h.provider.Current()
		}
		if snap == nil {
			c.Next()
			return
		}

		if profile := snap.ProfileByID(userID); profile != nil && profile.IsActive {
			c.Set(viewerKey, access.Viewer{
				UserID: profile.ID,
				Role:   access.Role(profile.Role),
			})
		}
		c.Next()
	}
}

func viewerFrom(c *gin.Context) access.Viewer {
	if v, ok := c.Get(viewerKey); ok {
		if viewer, ok := v.(access.Viewer); ok {
			return viewer
		}
	}
	return access.Viewer{}
}

// RequirePermission guards mutation routes.
func RequirePermission(perm access.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		viewer := viewerFrom(c)
		if viewer.UserID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if !viewer.Can(perm) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "permission denied"})
			return
		}
		c.Next()
	}
}

func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		viewer := viewerFrom(c)
		if viewer.UserID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if viewer.Role != access.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin only"})
			return
		}
		c.Next()
	}
}
