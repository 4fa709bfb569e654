package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/taskboard/pkg/apperr"
)

// TestRecovery はRecoveryミドルウェアを検証する。
func TestRecovery(t *testing.T) {
	t.Parallel()

	t.Run("パニック値の型に関わらず500のINTERNAL_ERRORが返ること", func(t *testing.T) {
		t.Parallel()

		for _, v := range []any{"テスト用パニック", 42, http.ErrAbortHandler} {
			router := newErrorRouter(true, &bytes.Buffer{})
			router.POST("/panic", func(_ *gin.Context) {
				panic(v)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/panic", nil))

			if w.Code != http.StatusInternalServerError {
				t.Errorf("panic(%v): ステータスコード = %d, want %d", v, w.Code, http.StatusInternalServerError)
			}
			env := decodeEnvelope(t, w)
			if env.Error == nil || env.Error.Code != apperr.CodeInternal {
				t.Errorf("panic(%v): error = %+v", v, env.Error)
			}
		}
	})

	t.Run("型付きエラーでのパニックはその分類で応答されること", func(t *testing.T) {
		t.Parallel()

		router := newErrorRouter(true, &bytes.Buffer{})
		router.GET("/panic", func(_ *gin.Context) {
			panic(apperr.Business(apperr.CodeForbidden, "forbidden"))
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnprocessableEntity)
		}
	})

	t.Run("開発環境ではパニック時のスタックが返ること", func(t *testing.T) {
		t.Parallel()

		var logs bytes.Buffer
		router := newErrorRouter(false, &logs)
		router.GET("/panic", func(_ *gin.Context) {
			panic("stack please")
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

		env := decodeEnvelope(t, w)
		if env.Error == nil || !strings.Contains(env.Error.Stack, "goroutine") {
			t.Errorf("スタックが含まれていない: %+v", env.Error)
		}
		if !strings.Contains(logs.String(), "stack please") {
			t.Error("パニックの内容がログに出力されていない")
		}
	})

	t.Run("パニック後もサーバーが次のリクエストを処理できること", func(t *testing.T) {
		t.Parallel()

		router := newErrorRouter(true, &bytes.Buffer{})
		router.GET("/panic", func(_ *gin.Context) {
			panic("パニック発生")
		})
		router.GET("/ok", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "recovered"})
		})

		w1 := httptest.NewRecorder()
		router.ServeHTTP(w1, httptest.NewRequest(http.MethodGet, "/panic", nil))
		if w1.Code != http.StatusInternalServerError {
			t.Errorf("1回目のステータスコード = %d, want %d", w1.Code, http.StatusInternalServerError)
		}

		w2 := httptest.NewRecorder()
		router.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/ok", nil))
		if w2.Code != http.StatusOK {
			t.Errorf("2回目のステータスコード = %d, want %d", w2.Code, http.StatusOK)
		}
	})
}
