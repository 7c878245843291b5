package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/intake-chat/internal/auth"
	"github.com/suPer8Hu/intake-chat/internal/common"
)

const AdminSubjectKey = "admin_subject"

func AdminRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(h, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			common.AbortFail(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		sub, err := auth.ParseJWT(strings.TrimSpace(token), secret)
		if err != nil {
			common.AbortFail(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		c.Set(AdminSubjectKey, sub)
		c.Next()
	}
}
