package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// OK writes {ok:true, ...fields}.
func OK(c *gin.Context, fields gin.H) {
	body := gin.H{"ok": true}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// Fail writes {ok:false, error:msg, ...extra}.
func Fail(c *gin.Context, httpStatus int, msg string, extra gin.H) {
	body := gin.H{"ok": false, "error": msg}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(httpStatus, body)
}

// AbortFail is Fail for middleware.
func AbortFail(c *gin.Context, httpStatus int, msg string) {
	c.AbortWithStatusJSON(httpStatus, gin.H{"ok": false, "error": msg})
}
