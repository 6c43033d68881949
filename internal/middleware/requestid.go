package middleware

import (
	"learnpath_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestID 为每个请求分配关联 ID，向下游传播并在响应头回显。
// 客户端已携带时沿用原值，便于跨服务串联日志
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(util.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(util.RequestIDKey, id)
		c.Request = c.Request.WithContext(util.WithRequestID(c.Request.Context(), id))
		c.Writer.Header().Set(util.RequestIDHeader, id)

		c.Next()
	}
}
