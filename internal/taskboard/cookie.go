package taskboard

import (
	"github.com/gin-gonic/gin"
)

// setAuthCookie は認証トークンをHttpOnlyクッキーに設定する。有効期間はトークンと同じ。
func (s *Server) setAuthCookie(c *gin.Context, token string) {
	c.SetSameSite(s.cfg.Cookie.SameSiteMode())
	c.SetCookie(s.cfg.Cookie.Name, token, int(s.tokenTTL().Seconds()), "/", s.cfg.Cookie.Domain, s.cfg.Cookie.Secure, true)
}

// clearAuthCookie は認証クッキーを削除する。
func (s *Server) clearAuthCookie(c *gin.Context) {
	c.SetSameSite(s.cfg.Cookie.SameSiteMode())
	c.SetCookie(s.cfg.Cookie.Name, "", -1, "/", s.cfg.Cookie.Domain, s.cfg.Cookie.Secure, true)
}
