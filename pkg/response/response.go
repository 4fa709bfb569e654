// Package response はAPIレスポンスの共通エンベロープを提供する。
//
// すべてのレスポンスは {"data": ...} または {"error": {...}} のどちらか一方の形を取る。
package response

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/taskboard/pkg/apperr"
)

// TimestampLayout はエラー発生時刻のISO-8601表現（ミリ秒精度・UTC）。
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Envelope はAPIレスポンスの共通構造。
type Envelope struct {
	// Data は成功時のペイロード。
	Data any `json:"data,omitempty"`
	// Error は失敗時のエラー情報。
	Error *ErrorBody `json:"error,omitempty"`
}

// ErrorBody はエラーレスポンスの本体。
type ErrorBody struct {
	// Code は機械可読な安定したエラーコード。
	Code string `json:"code"`
	// Message は人間が読むためのメッセージ。
	Message string `json:"message"`
	// Timestamp はエラー発生時刻。
	Timestamp string `json:"timestamp"`
	// Stack は診断用スタックトレース。本番環境では出力しない。
	Stack string `json:"stack,omitempty"`
}

// OK は成功レスポンスを書き込む。
func OK(c *gin.Context, status int, data any) {
	c.JSON(status, Envelope{Data: data})
}

// NewErrorBody は型付きエラーからエラー本体を組み立てる。
// withStackがfalseの場合、Stackは常に空になる。
func NewErrorBody(e *apperr.Error, withStack bool) *ErrorBody {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	body := &ErrorBody{
		Code:      e.Code,
		Message:   e.Message,
		Timestamp: ts.UTC().Format(TimestampLayout),
	}
	if withStack {
		body.Stack = e.Stack
	}
	return body
}
