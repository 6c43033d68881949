package util

import (
	"errors"
	"learnpath_backend/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Code     int         `json:"code"`
	Message  string      `json:"message"`
	Kind     string      `json:"kind,omitempty"`
	Warnings []string    `json:"warnings,omitempty"`
	Data     interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
	})
}

// CreatedPartial 降级创建：资源已落库所以仍返回201，警告放在信封里
func CreatedPartial(c *gin.Context, data interface{}, warnings []string) {
	c.JSON(http.StatusCreated, Response{
		Code:     http.StatusCreated,
		Message:  "created",
		Kind:     string(KindPartialFailure),
		Warnings: warnings,
		Data:     data,
	})
}

func Error(c *gin.Context, code int, kind ErrorKind, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
		Kind:    string(kind),
	})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, KindInvalidRequest, "Unauthorized")
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, KindInvalidRequest, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, KindNotFound, message)
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, KindInternal, "Internal server error")
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error", zap.Error(err))
	InternalServerError(c)
}

// AppErrorResponse 按错误类别映射HTTP状态码
func AppErrorResponse(c *gin.Context, err error) {
	var ae *AppError
	if !errors.As(err, &ae) {
		LogInternalError(c, err)
		return
	}

	switch ae.Kind {
	case KindInvalidRequest:
		Error(c, http.StatusBadRequest, ae.Kind, ae.Message)
	case KindNotFound:
		Error(c, http.StatusNotFound, ae.Kind, ae.Message)
	case KindInsufficientSource:
		Error(c, http.StatusUnprocessableEntity, ae.Kind, ae.Message)
	case KindServiceUnavailable:
		Error(c, http.StatusServiceUnavailable, ae.Kind, ae.Message)
	default:
		LogInternalError(c, err)
	}
}
