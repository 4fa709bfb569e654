package httpclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// testRequest はテストサーバーが受け取ったリクエスト情報を保持する構造体。
type testRequest struct {
	// Method はHTTPメソッド。
	Method string
	// Path はリクエストパス。
	Path string
	// Body はリクエストボディ。
	Body []byte
	// Headers はリクエストヘッダー。
	Headers http.Header
}

// testPayload はテスト用のリクエスト/レスポンスペイロード。
type testPayload struct {
	// Name はテスト用の名前フィールド。
	Name string `json:"name"`
	// Value はテスト用の値フィールド。
	Value int `json:"value"`
}

// writeData は{"data": v}形式でレスポンスを書き込む。
func writeData(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"data": v})
}

// TestNew はNew関数でクライアントが正しく生成されることを検証する。
func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("クライアントが正常に生成されること", func(t *testing.T) {
		t.Parallel()

		client := New("http://localhost:8080/")
		if client.baseURL != "http://localhost:8080" {
			t.Errorf("baseURL = %q, want %q", client.baseURL, "http://localhost:8080")
		}
		if client.httpClient.Timeout != 30*time.Second {
			t.Errorf("Timeout = %v, want 30s", client.httpClient.Timeout)
		}
	})

	t.Run("オプションでタイムアウトとトークンを設定できること", func(t *testing.T) {
		t.Parallel()

		client := New("http://localhost:8080", WithTimeout(time.Second), WithToken("tkn"))
		if client.httpClient.Timeout != time.Second {
			t.Errorf("Timeout = %v, want 1s", client.httpClient.Timeout)
		}
		if client.token != "tkn" {
			t.Errorf("token = %q, want %q", client.token, "tkn")
		}
	})
}

// TestPostJSON はPostJSON関数を検証する。
func TestPostJSON(t *testing.T) {
	t.Parallel()

	t.Run("正常にPOSTリクエストを送信してdataを取得できること", func(t *testing.T) {
		t.Parallel()

		var received testRequest
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			received.Method = r.Method
			received.Path = r.URL.Path
			received.Body, _ = io.ReadAll(r.Body)
			received.Headers = r.Header
			writeData(w, http.StatusCreated, testPayload{Name: "response", Value: 200})
		}))
		defer ts.Close()

		client := New(ts.URL, WithToken("secret-token"))
		var result testPayload
		if err := client.PostJSON(context.Background(), "/api/projects", testPayload{Name: "request", Value: 100}, &result); err != nil {
			t.Fatalf("PostJSON()でエラーが発生: %v", err)
		}

		if received.Method != http.MethodPost || received.Path != "/api/projects" {
			t.Errorf("request = %s %s", received.Method, received.Path)
		}
		var sentBody testPayload
		if err := json.Unmarshal(received.Body, &sentBody); err != nil {
			t.Fatalf("リクエストボディのパースに失敗: %v", err)
		}
		if sentBody.Name != "request" || sentBody.Value != 100 {
			t.Errorf("sent = %+v", sentBody)
		}
		if got := received.Headers.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q, want %q", got, "application/json")
		}
		if got := received.Headers.Get("Authorization"); got != "Bearer secret-token" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer secret-token")
		}
		if result.Name != "response" || result.Value != 200 {
			t.Errorf("result = %+v", result)
		}
	})

	t.Run("エラーエンベロープはコード付きのAPIErrorになること", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"code":"AUTH_REQUIRED","message":"authentication required","timestamp":"2026-01-01T00:00:00.000Z"}}`))
		}))
		defer ts.Close()

		err := New(ts.URL).PostJSON(context.Background(), "/api/projects", testPayload{}, nil)
		if !IsCode(err, "AUTH_REQUIRED") {
			t.Fatalf("err = %v, want AUTH_REQUIRED", err)
		}
	})

	t.Run("エンベロープでないエラー応答もAPIErrorになること", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("bad gateway"))
		}))
		defer ts.Close()

		err := New(ts.URL).PostJSON(context.Background(), "/api/projects", testPayload{}, nil)
		apiErr, ok := err.(*APIError)
		if !ok {
			t.Fatalf("err = %T, want *APIError", err)
		}
		if apiErr.StatusCode != http.StatusBadGateway || apiErr.Code != "" {
			t.Errorf("APIError = %+v", apiErr)
		}
	})

	t.Run("キャンセルされたコンテキストでエラーが返ること", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeData(w, http.StatusOK, testPayload{})
		}))
		defer ts.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := New(ts.URL).PostJSON(ctx, "/api/projects", testPayload{}, nil); err == nil {
			t.Fatal("PostJSON()がエラーを返すべきだが、nilが返った")
		}
	})

	t.Run("シリアライズできないボディでエラーが返ること", func(t *testing.T) {
		t.Parallel()

		err := New("http://localhost:0").PostJSON(context.Background(), "/api/projects", make(chan int), nil)
		if err == nil {
			t.Fatal("PostJSON()がエラーを返すべきだが、nilが返った")
		}
	})
}

// TestGetJSON はGetJSON関数を検証する。
func TestGetJSON(t *testing.T) {
	t.Parallel()

	t.Run("GETリクエストにボディとContent-Typeが含まれないこと", func(t *testing.T) {
		t.Parallel()

		var received testRequest
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			received.Method = r.Method
			received.Body, _ = io.ReadAll(r.Body)
			received.Headers = r.Header
			writeData(w, http.StatusOK, testPayload{Name: "got", Value: 1})
		}))
		defer ts.Close()

		var result testPayload
		if err := New(ts.URL).GetJSON(context.Background(), "/api/projects", &result); err != nil {
			t.Fatalf("GetJSON()でエラーが発生: %v", err)
		}
		if received.Method != http.MethodGet {
			t.Errorf("Method = %q, want GET", received.Method)
		}
		if len(received.Body) != 0 {
			t.Errorf("GETリクエストにボディが含まれている: %s", received.Body)
		}
		if received.Headers.Get("Content-Type") != "" || received.Headers.Get("Authorization") != "" {
			t.Errorf("不要なヘッダーが送信された: %v", received.Headers)
		}
		if result.Name != "got" {
			t.Errorf("result = %+v", result)
		}
	})

	t.Run("不正なJSONレスポンスでエラーが返ること", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{invalid`))
		}))
		defer ts.Close()

		var result testPayload
		if err := New(ts.URL).GetJSON(context.Background(), "/api/projects", &result); err == nil {
			t.Fatal("GetJSON()がエラーを返すべきだが、nilが返った")
		}
	})

	t.Run("接続できないサーバーに対してエラーが返ること", func(t *testing.T) {
		t.Parallel()

		client := New("http://127.0.0.1:1", WithTimeout(time.Second))
		if err := client.GetJSON(context.Background(), "/api/hello", nil); err == nil {
			t.Fatal("GetJSON()がエラーを返すべきだが、nilが返った")
		}
	})
}

// TestHello はHello関数を検証する。
func TestHello(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/hello" {
			http.NotFound(w, r)
			return
		}
		writeData(w, http.StatusOK, map[string]any{
			"message":       "hello",
			"public_routes": []string{"/hello", "/auth/login"},
		})
	}))
	defer ts.Close()

	h, err := New(ts.URL).Hello(context.Background())
	if err != nil {
		t.Fatalf("Hello()でエラーが発生: %v", err)
	}
	if h.Message != "hello" || len(h.PublicRoutes) != 2 {
		t.Errorf("Hello = %+v", h)
	}
}
