package middleware

import (
	"bytes"
	"crypto/subtle"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"github.com/qs3c/persona_go_server/internal/pkg/response"
)

const CallbackSecretHeader = "X-Callback-Secret"

// CallbackAuth 工作流回调鉴权。密钥优先取 header，旧版引擎只会放在
// body 的 callback_secret 字段里，作为回退也认。body 读完后回填，
// 后续 handler 还能正常 Bind。
func CallbackAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			response.Unauthorized(c, "")
			c.Abort()
			return
		}

		got := c.GetHeader(CallbackSecretHeader)
		if got == "" {
			body, err := io.ReadAll(c.Request.Body)
			if err != nil {
				response.Unauthorized(c, "")
				c.Abort()
				return
			}
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
			got = gjson.GetBytes(body, "callback_secret").String()
		}

		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			response.Unauthorized(c, "")
			c.Abort()
			return
		}

		c.Next()
	}
}
