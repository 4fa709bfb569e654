// Package config はtaskboardサーバーのプロセス全体の設定を読み込む。
//
// 設定は起動時に一度だけ構築され、以降は読み取り専用として
// 各コンポーネントにポインタで渡される。
//
// 読み込み元（優先度順）:
//  1. 環境変数
//  2. CONFIG_PATH で指定されたYAMLファイル
//  3. 構造体タグのデフォルト値
package config

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// EnvProduction は本番環境を表すENVの値。
const EnvProduction = "production"

// Config はサーバー全体の設定。
type Config struct {
	// Env は実行環境（development, test, production）。
	Env string `yaml:"env" env:"ENV" env-default:"development"`
	// Host はリッスンするホスト。
	Host string `yaml:"host" env:"HOST" env-default:"0.0.0.0"`
	// Port はリッスンするポート。
	Port string `yaml:"port" env:"PORT" env-default:"8080"`
	// DatabasePath はSQLiteデータベースファイルのパス。
	DatabasePath string `yaml:"database_path" env:"DATABASE_PATH" env-default:"taskboard.db"`
	// JWTSecret はJWT署名用の秘密鍵。未設定の場合は署名・検証時にエラーとなる。
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET"`
	// TokenTTL はトークンの有効期間。
	TokenTTL time.Duration `yaml:"token_ttl" env:"TOKEN_TTL" env-default:"168h"`
	// Cookie は認証クッキーの設定。
	Cookie CookieConfig `yaml:"cookie"`
	// CORS はCORSの設定。
	CORS CORSConfig `yaml:"cors"`
}

// CookieConfig は認証トークンを運ぶクッキーの設定。
type CookieConfig struct {
	Name     string `yaml:"name" env:"AUTH_COOKIE_NAME" env-default:"auth_token"`
	Secure   bool   `yaml:"secure" env:"COOKIE_SECURE"`
	SameSite string `yaml:"same_site" env:"COOKIE_SAME_SITE" env-default:"lax"`
	Domain   string `yaml:"domain" env:"COOKIE_DOMAIN"`
}

// CORSConfig はCORSの設定。
type CORSConfig struct {
	Enabled bool     `yaml:"enabled" env:"CORS_ENABLED"`
	Origins []string `yaml:"origins" env:"CORS_ORIGINS" env-separator:","`
}

// Addr はリッスンアドレスを返す。
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// IsProduction は本番環境かどうかを返す。
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, EnvProduction)
}

// SameSiteMode はクッキーのSameSite属性を返す。
func (c CookieConfig) SameSiteMode() http.SameSite {
	switch strings.ToLower(c.SameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// Load は設定を読み込む。CONFIG_PATHが設定されている場合はYAMLファイルも読み込む。
func Load() (*Config, error) {
	var cfg Config

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("設定ファイル %q が見つかりません: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("設定ファイルの読み込みに失敗: %w", err)
		}
		return &cfg, nil
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("環境変数の読み込みに失敗: %w", err)
	}
	return &cfg, nil
}
