// taskboardサーバーのエントリポイント。
// プロジェクト・タスク・ラベル・保存ビューを扱うJSON APIを提供する。
//
// 使い方:
//
//	taskboard                  サーバーを起動する
//	taskboard healthcheck      起動中のサーバーの疎通を確認する（-url で接続先を指定）
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/taskboard/internal/config"
	"github.com/nao1215/taskboard/internal/taskboard"
	"github.com/nao1215/taskboard/pkg/httpclient"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run はサブコマンドを振り分けて終了コードを返す。
func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "設定の読み込みに失敗: %v\n", err)
		return 1
	}
	logger := newLogger(cfg, stderr)

	if len(args) > 0 && args[0] == "healthcheck" {
		return healthcheck(cfg, args[1:], stdout, stderr)
	}
	if len(args) > 0 {
		fmt.Fprintf(stderr, "不明なサブコマンド: %s\n", args[0])
		return 2
	}

	if err := serve(cfg, logger); err != nil {
		logger.Error("server stopped", slog.String("error", err.Error()))
		return 1
	}
	return 0
}

// newLogger は本番環境ではJSON、それ以外ではテキスト形式のロガーを返す。
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// serve はデータベースを準備してサーバーを起動し、SIGINT/SIGTERMで停止する。
func serve(cfg *config.Config, logger *slog.Logger) error {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET is not set; authenticated requests will fail")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sqlDB, err := taskboard.OpenDB(ctx, cfg.DatabasePath, logger)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()

	return taskboard.NewServer(cfg, sqlDB, logger).Run(ctx)
}

// healthcheck はGET /api/helloを呼び出し、成功すれば0を返す。
func healthcheck(cfg *config.Config, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("healthcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	url := fs.String("url", "http://127.0.0.1:"+cfg.Port, "接続先のベースURL")
	timeout := fs.Duration("timeout", 5*time.Second, "タイムアウト")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	client := httpclient.New(*url, httpclient.WithTimeout(*timeout))
	h, err := client.Hello(context.Background())
	if err != nil {
		fmt.Fprintf(stderr, "ヘルスチェックに失敗: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "%s (public routes: %d)\n", h.Message, len(h.PublicRoutes))
	return 0
}
