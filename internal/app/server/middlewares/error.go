package middlewares

import (
	"github.com/gin-gonic/gin"

	"fulfilment/internal/app/pkg/errorx"
	"fulfilment/internal/app/pkg/ginx"
	"fulfilment/internal/app/pkg/logger"
)

// ErrorHandler 统一错误处理：panic 与未写响应的 c.Error 转为统一响应结构
func ErrorHandler(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Errorf(c.Request.Context(), "panic recovered: %v", r)
				c.Abort()
				ginx.InternalError(c, "internal error")
			}
		}()

		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		if errorx.KindOf(err) == errorx.KindInternal {
			log.Errorf(c.Request.Context(), "request failed: %v", err)
		}
		ginx.FromError(c, err)
	}
}
