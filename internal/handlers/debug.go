package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chatsync/internal/session"
	"chatsync/internal/telemetry"
)

// Register wires the local inspection endpoints: health, metrics, and the
// reconciled session state.
func Register(router *gin.Engine, sess *session.Session, emitter *telemetry.AuditEmitter, debug bool) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if !debug {
		return
	}

	router.GET("/debug/state", func(c *gin.Context) {
		query := c.Query("q")
		conversations := sess.Conversations()
		if query != "" {
			conversations = sess.SearchConversations(query)
		}
		c.JSON(http.StatusOK, gin.H{
			"user":          sess.User(),
			"conversations": conversations,
			"notifications": sess.Notifications(),
			"online_count":  sess.OnlineCount(),
			"channels":      sess.OpenChannelKeys(),
		})
	})

	router.GET("/debug/audit-test", func(c *gin.Context) {
		if emitter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit emitter not configured"})
			return
		}
		userID := sess.User().ID
		emitter.Emit(c.Request.Context(), "INFO", "audit test", &userID)
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
