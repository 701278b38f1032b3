package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleSlackTest sends a probe message through the configured webhook.
// Debug aid for operators; always answers 200 so the outcome reads from the
// body, not the status line.
func (s *Server) handleSlackTest() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.slack.Configured() {
			c.JSON(http.StatusOK, gin.H{
				"ok":      false,
				"message": "SLACK_WEBHOOK_URL が未設定です。設定を確認してください。",
			})
			return
		}

		if err := s.slack.NotifyTest(c.Request.Context()); err != nil {
			s.logger.Error("slack test failed", map[string]interface{}{
				"error": err.Error(),
			})
			c.JSON(http.StatusOK, gin.H{
				"ok":      false,
				"message": "送信失敗",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"ok":      true,
			"message": "Slack にテストメッセージを送信しました。チャンネルを確認してください。",
		})
	}
}
