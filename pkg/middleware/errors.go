package middleware

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/taskboard/pkg/apperr"
	"github.com/nao1215/taskboard/pkg/response"
)

// ErrorHandlerConfig はエラーハンドラーの設定。
type ErrorHandlerConfig struct {
	// Logger はエラーログの出力先。nilの場合はslog.Default()を使用する。
	Logger *slog.Logger
	// Production が真の場合、レスポンスにスタックトレースを含めず、ログも簡潔にする。
	Production bool
}

// ErrorHandler は処理中に積まれたエラーを統一フォーマットのレスポンスに変換するGinミドルウェアを返す。
//
// ミドルウェアチェーンの最も外側に登録すること。
// c.Errorsの最後のエラーを分類し、ERRORレベルで一度だけログ出力してから
// {"error": {...}} を書き込む。既にレスポンスが書き込まれている場合は
// ログ出力のみ行う。
func ErrorHandler(cfg ErrorHandlerConfig) gin.HandlerFunc {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil {
			return
		}

		appErr := apperr.Wrap(last.Err)
		status := apperr.Status(appErr)
		logError(c, logger, cfg.Production, appErr, status)

		if c.Writer.Written() {
			return
		}

		c.AbortWithStatusJSON(status, response.Envelope{
			Error: response.NewErrorBody(appErr, !cfg.Production),
		})
	}
}

func logError(c *gin.Context, logger *slog.Logger, production bool, e *apperr.Error, status int) {
	attrs := []any{
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.Int("status", status),
		slog.String("code", e.Code),
		slog.String("message", e.Message),
	}
	if cause := e.Unwrap(); cause != nil {
		attrs = append(attrs, slog.String("cause", cause.Error()))
	}
	if !production {
		attrs = append(attrs, slog.String("kind", e.Kind.String()), slog.String("stack", e.Stack))
	}
	logger.ErrorContext(c.Request.Context(), "request failed", attrs...)
}
