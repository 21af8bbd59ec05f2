package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 统一的 JSON 返回辅助。错误一律是 {"error": "..."} 加真实 HTTP 状态码，
// 前端只看状态码和短字符串，不用结构化错误码。

// ErrorBody 错误返回体
type ErrorBody struct {
	Error string `json:"error"`
}

// OK 200 成功返回
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Accepted 202 已入队（异步派发成功，不等待结果）
func Accepted(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, data)
}

// Error 按状态码返回错误
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorBody{Error: message})
}

// ParamError 400 参数错误
func ParamError(c *gin.Context, message string) {
	if message == "" {
		message = "invalid request"
	}
	Error(c, http.StatusBadRequest, message)
}

// Unauthorized 401 未认证 / 回调密钥错误
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "unauthorized"
	}
	Error(c, http.StatusUnauthorized, message)
}

// PaymentRequired 402 图片额度耗尽
func PaymentRequired(c *gin.Context, message string) {
	if message == "" {
		message = "no credits remaining"
	}
	Error(c, http.StatusPaymentRequired, message)
}

// NotFound 404 资源不存在
func NotFound(c *gin.Context, message string) {
	if message == "" {
		message = "not found"
	}
	Error(c, http.StatusNotFound, message)
}

// Conflict 409 重复创建
func Conflict(c *gin.Context, message string) {
	if message == "" {
		message = "conflict"
	}
	Error(c, http.StatusConflict, message)
}

// DailyLimit 429 聊天日上限
func DailyLimit(c *gin.Context, message string) {
	if message == "" {
		message = "daily limit reached"
	}
	Error(c, http.StatusTooManyRequests, message)
}

// ServerError 500 内部错误
func ServerError(c *gin.Context, message string) {
	if message == "" {
		message = "internal error"
	}
	Error(c, http.StatusInternalServerError, message)
}

// UpstreamError 502 外部 trigger 投递失败
func UpstreamError(c *gin.Context, message string) {
	if message == "" {
		message = "upstream unreachable"
	}
	Error(c, http.StatusBadGateway, message)
}
