package taskboard

import (
	"errors"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/taskboard/pkg/apperr"
)

// timeLayout はレスポンスの日時表現。
const timeLayout = time.RFC3339

// bindJSON はリクエストボディをdstにバインドする。失敗した場合はVALIDATION_FAILEDを返す。
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Business(apperr.CodeValidationFailed, "request body is required")
		}
		return apperr.Businessf(apperr.CodeValidationFailed, "invalid request: %v", err)
	}
	return nil
}

// required は空白を除いた値が空の場合にVALIDATION_FAILEDを返す。
func required(field, value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", apperr.Businessf(apperr.CodeValidationFailed, "%s is required", field)
	}
	return v, nil
}

// formatTime は日時をレスポンス用の文字列に変換する。
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// splitQuery はクエリパラメータを繰り返し指定とカンマ区切りの両方で受け取る。
func splitQuery(c *gin.Context, key string) []string {
	var values []string
	for _, raw := range c.QueryArray(key) {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}
	}
	return values
}
