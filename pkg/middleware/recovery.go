package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/taskboard/pkg/apperr"
)

// Recovery はパニックからの回復を行うGinミドルウェアを返す。
// パニックを未分類エラーとしてc.Errorに積み、応答はErrorHandlerに任せる。
// ErrorHandlerより内側に登録すること。
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				err, ok := r.(error)
				if !ok {
					err = fmt.Errorf("%v", r)
				}
				appErr := apperr.Wrap(fmt.Errorf("panic: %w", err)).WithStack(string(debug.Stack()))
				_ = c.Error(appErr)
				c.Abort()
			}
		}()
		c.Next()
	}
}
