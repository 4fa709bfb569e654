package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/taskboard/pkg/apperr"
)

// PublicPrefixes は認証不要なAPIパスの接頭辞一覧。
// マウントポイント（/api）を除いたパスと前方一致で比較する。
// クライアント側のルートガードもこの一覧（GET /api/hello）を参照する。
var PublicPrefixes = []string{
	"/hello",
	"/auth/login",
	"/auth/logout",
	"/auth/signup",
}

// AuthConfig は認証ミドルウェアの設定。
type AuthConfig struct {
	// Secret はJWT署名用の秘密鍵。
	Secret string
	// CookieName は認証トークンを運ぶクッキー名。
	CookieName string
	// MountPoint はAPIのマウントポイント。公開ルート判定の前にパスから取り除く。
	MountPoint string
	// PublicPrefixes は認証不要なパス接頭辞。nilの場合はPublicPrefixesを使用する。
	PublicPrefixes []string
}

// IsPublicPath はマウントポイントを除いたパスが公開ルートかどうかを返す。
func IsPublicPath(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// Authenticate はリクエストを認証するGinミドルウェアを返す。
//
// 公開ルートは無条件に通過させる（ユーザー情報は付与しない）。
// それ以外はクッキー、次にAuthorization: Bearerヘッダーの順にトークンを探し、
// 検証に成功した場合はリクエストのcontext.Contextにユーザー情報を設定する。
// 失敗した場合は型付きエラーをc.Errorに積んで処理を中断する。
// レスポンスの書き込みはErrorHandlerが行う。
func Authenticate(cfg AuthConfig) gin.HandlerFunc {
	prefixes := cfg.PublicPrefixes
	if prefixes == nil {
		prefixes = PublicPrefixes
	}

	return func(c *gin.Context) {
		path := strings.TrimPrefix(c.Request.URL.Path, cfg.MountPoint)
		if IsPublicPath(path, prefixes) {
			c.Next()
			return
		}

		tokenString := extractToken(c, cfg.CookieName)
		if tokenString == "" {
			_ = c.Error(apperr.AuthRequired())
			c.Abort()
			return
		}

		id, err := ParseJWT(cfg.Secret, tokenString)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

// extractToken はクッキー、Authorizationヘッダーの順にトークンを取り出す。
func extractToken(c *gin.Context, cookieName string) string {
	if cookieName != "" {
		if v, err := c.Cookie(cookieName); err == nil && v != "" {
			return v
		}
	}

	authHeader := c.GetHeader("Authorization")
	tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
	if !found {
		return ""
	}
	return strings.TrimSpace(tokenString)
}
