package middleware

import (
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/persona_go_server/internal/pkg/jwt"
	"github.com/qs3c/persona_go_server/internal/pkg/response"
	"github.com/qs3c/persona_go_server/internal/service"
)

const (
	UserIDKey = "userID"
)

// Auth 认证中间件。token 由外部身份服务签发（共享 HS256 密钥），
// 这里只校验并惰性补建本地用户行。
func Auth(jwtSecret string, users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			response.Unauthorized(c, "")
			c.Abort()
			return
		}

		claims, err := jwt.ParseToken(tokenString, jwtSecret)
		if err != nil {
			response.Unauthorized(c, "")
			c.Abort()
			return
		}

		var email *string
		if claims.Email != "" {
			email = &claims.Email
		}
		if _, err := users.Ensure(claims.Subject, email); err != nil {
			log.Printf("failed to ensure user %s: %v", claims.Subject, err)
			response.Unauthorized(c, "")
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.Subject)
		c.Next()
	}
}

// GetUserID 从上下文获取用户 ID
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return "", false
	}
	id, ok := userID.(string)
	return id, ok
}
