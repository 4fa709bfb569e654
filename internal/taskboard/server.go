package taskboard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/taskboard/internal/config"
	tbdb "github.com/nao1215/taskboard/internal/taskboard/db"
	"github.com/nao1215/taskboard/internal/taskboard/migrations"
	"github.com/nao1215/taskboard/pkg/apperr"
	"github.com/nao1215/taskboard/pkg/middleware"
	"github.com/nao1215/taskboard/pkg/migration"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	_ "modernc.org/sqlite"
)

// shutdownTimeout はグレースフルシャットダウンの待ち時間。
const shutdownTimeout = 10 * time.Second

// Server はtaskboard APIのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// cfg は起動時に読み込んだ設定。読み取り専用。
	cfg *config.Config
	// queries はクエリ実行オブジェクト。
	queries *tbdb.Queries
	// db はSQLiteデータベース接続。
	db *sql.DB
	// logger は構造化ロガー。
	logger *slog.Logger
	// registry はPrometheusメトリクスのレジストリ。
	registry *prometheus.Registry
}

// OpenDB はSQLiteデータベースを開き、スキーマを最新にする。
// 外部キー制約とWALを有効にし、書き込みの競合を避けるため接続は1本に制限する。
func OpenDB(ctx context.Context, path string, logger *slog.Logger) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("データベースへの疎通確認に失敗: %w", err)
	}

	if _, err := migration.NewRunner(sqlDB, migrations.FS, migrations.Dir, logger).Run(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}
	return sqlDB, nil
}

// NewServer は新しいtaskboardサーバーを生成する。
// sqlDBはマイグレーション済みであること。
func NewServer(cfg *config.Config, sqlDB *sql.DB, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s := &Server{
		router:   gin.New(),
		cfg:      cfg,
		queries:  tbdb.New(sqlDB),
		db:       sqlDB,
		logger:   logger,
		registry: registry,
	}
	s.setupRoutes()
	return s
}

// Handler はHTTPハンドラーを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run はHTTPサーバーを起動し、ctxがキャンセルされるとグレースフルにシャットダウンする。
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server started", slog.String("addr", srv.Addr), slog.String("env", s.cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("シャットダウンに失敗: %w", err)
	}
	return <-errCh
}

// setupRoutes はミドルウェアとAPIルーティングを設定する。
//
// ミドルウェアの順序: Metrics → ErrorHandler → Recovery → Logger → CORS → Authenticate。
func (s *Server) setupRoutes() {
	metrics := middleware.NewMetrics(s.registry)

	s.router.Use(metrics.Handler())
	s.router.Use(middleware.ErrorHandler(middleware.ErrorHandlerConfig{
		Logger:     s.logger,
		Production: s.cfg.IsProduction(),
	}))
	s.router.Use(middleware.Recovery())
	s.router.Use(gin.Logger())
	s.router.Use(middleware.CORS(s.cfg.CORS.Enabled, s.cfg.CORS.Origins))

	api := s.router.Group("/api")
	api.Use(middleware.Authenticate(middleware.AuthConfig{
		Secret:     s.cfg.JWTSecret,
		CookieName: s.cfg.Cookie.Name,
		MountPoint: "/api",
	}))
	{
		api.GET("/hello", s.handleHello())

		auth := api.Group("/auth")
		{
			auth.POST("/signup", s.handleSignup())
			auth.POST("/login", s.handleLogin())
			auth.POST("/logout", s.handleLogout())
			auth.GET("/me", s.handleMe())
		}

		projects := api.Group("/projects")
		{
			projects.GET("", s.handleListProjects())
			projects.POST("", s.handleCreateProject())
			projects.GET("/:id", s.handleGetProject())
			projects.PATCH("/:id", s.handleUpdateProject())
			projects.DELETE("/:id", s.handleDeleteProject())

			projects.GET("/:id/members", s.handleListMembers())
			projects.POST("/:id/members", s.handleAddMember())
			projects.PATCH("/:id/members/:userID", s.handleUpdateMember())
			projects.DELETE("/:id/members/:userID", s.handleRemoveMember())

			projects.GET("/:id/tasks", s.handleListTasks())
			projects.POST("/:id/tasks", s.handleCreateTask())

			projects.GET("/:id/labels", s.handleListLabels())
			projects.POST("/:id/labels", s.handleCreateLabel())

			projects.GET("/:id/views", s.handleListViews())
			projects.POST("/:id/views", s.handleCreateView())

			projects.GET("/:id/activity", s.handleListActivity())
		}

		tasks := api.Group("/tasks")
		{
			tasks.GET("/:id", s.handleGetTask())
			tasks.PATCH("/:id", s.handleUpdateTask())
			tasks.DELETE("/:id", s.handleDeleteTask())
			tasks.POST("/:id/labels/:labelID", s.handleAttachLabel())
			tasks.DELETE("/:id/labels/:labelID", s.handleDetachLabel())
		}

		api.DELETE("/labels/:id", s.handleDeleteLabel())
		api.DELETE("/views/:id", s.handleDeleteView())
	}

	// ヘルスチェック
	s.router.GET("/health", s.handleHealth())
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	// 未登録のルートもエンベロープで応答する
	s.router.HandleMethodNotAllowed = true
	s.router.NoRoute(func(c *gin.Context) {
		_ = c.Error(apperr.Businessf(apperr.CodeRouteNotFound, "route not found: %s %s", c.Request.Method, c.Request.URL.Path))
	})
	s.router.NoMethod(func(c *gin.Context) {
		_ = c.Error(apperr.Businessf(apperr.CodeMethodNotAllowed, "method not allowed: %s %s", c.Request.Method, c.Request.URL.Path))
	})
}

// handleHealth はヘルスチェックを処理するハンドラを返す。
func (s *Server) handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.db.PingContext(c.Request.Context()); err != nil {
			_ = c.Error(fmt.Errorf("データベースに接続できません: %w", err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "taskboard"})
	}
}

// inTx はトランザクション内でfnを実行する。fnがエラーを返した場合はロールバックする。
func (s *Server) inTx(ctx context.Context, fn func(q *tbdb.Queries) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(s.queries.WithTx(tx)); err != nil {
		return err
	}
	return tx.Commit()
}
