package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ignatzorin/offer-engine/internal/logger"
	"github.com/ignatzorin/offer-engine/internal/pkg/apperror"
	"github.com/sirupsen/logrus"
)

// ErrorLogger пишет в журнал ошибки, прикреплённые обработчиками к запросу.
// Ошибки клиента идут уровнем Info, серверные уровнем Error.
func ErrorLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		entry := logger.Log.WithFields(logrus.Fields{
			"path":     c.FullPath(),
			"method":   c.Request.Method,
			"status":   c.Writer.Status(),
			"code":     apperror.CodeOf(err),
			"duration": time.Since(start).String(),
		})
		if userID, ok := c.Get(ContextUserIDKey); ok {
			entry = entry.WithField("actor_id", userID)
		}

		if c.Writer.Status() >= 500 {
			entry.WithError(err).Error("ошибка обработки запроса")
			return
		}
		entry.WithError(err).Info("запрос отклонён")
	}
}
