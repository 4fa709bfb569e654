package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/nao1215/taskboard/pkg/apperr"
)

// tokenIssuer はJWTのissクレームに設定する値。
const tokenIssuer = "taskboard"

// DefaultTokenTTL はトークンの有効期間のデフォルト値（7日間）。
const DefaultTokenTTL = 7 * 24 * time.Hour

// Identity は認証済みユーザーの情報。トークンのペイロードとして運ばれる。
type Identity struct {
	// UserID は認証済みユーザーの一意識別子。
	UserID string `json:"user_id"`
	// Email はユーザーのメールアドレス。
	Email string `json:"email"`
	// Name はユーザーの表示名。
	Name string `json:"name"`
}

// JWTClaims はJWTトークンのクレーム（ペイロード）を表す。
// ユーザーIDはsubクレームに格納する。
type JWTClaims struct {
	jwt.RegisteredClaims
	// Email はユーザーのメールアドレス。
	Email string `json:"email"`
	// Name はユーザーの表示名。
	Name string `json:"name"`
}

// Identity はクレームから認証済みユーザー情報を取り出す。
func (c *JWTClaims) Identity() Identity {
	return Identity{
		UserID: c.Subject,
		Email:  c.Email,
		Name:   c.Name,
	}
}

// GenerateJWT はユーザー情報からJWTトークンを生成する。
// ログイン・サインアップ時に呼び出す。secretが空の場合は設定エラーを返す。
func GenerateJWT(secret string, id Identity, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", apperr.ConfigMissing()
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	now := time.Now()
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
		Email: id.Email,
		Name:  id.Name,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("JWTトークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// ParseJWT はトークンの署名と有効期限を検証し、埋め込まれたユーザー情報を返す。
// secretが空の場合は設定エラー、検証失敗の場合は不正トークンエラーを返す。
func ParseJWT(secret, tokenString string) (Identity, error) {
	if secret == "" {
		return Identity{}, apperr.ConfigMissing()
	}

	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Identity{}, apperr.InvalidToken(err)
	}
	if !token.Valid || claims.Subject == "" {
		return Identity{}, apperr.InvalidToken(errors.New("トークンにユーザーIDが含まれていません"))
	}
	return claims.Identity(), nil
}

// identityKey は認証済みユーザー情報をcontext.Contextに格納するためのキー。
type identityKey struct{}

// WithIdentity はcontextに認証済みユーザー情報を設定する。
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom はcontextから認証済みユーザー情報を取得する。
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// MustIdentity はリクエストコンテキストから認証済みユーザー情報を取得する。
// Authenticateミドルウェアを通過した保護ルートでのみ呼び出すこと。
func MustIdentity(c *gin.Context) Identity {
	id, ok := IdentityFrom(c.Request.Context())
	if !ok {
		panic("middleware: 認証済みユーザー情報がコンテキストにありません")
	}
	return id
}

// GetUserID はリクエストコンテキストからユーザーIDを取得する。
// 未認証の場合は空文字列を返す。
func GetUserID(c *gin.Context) string {
	id, _ := IdentityFrom(c.Request.Context())
	return id.UserID
}
