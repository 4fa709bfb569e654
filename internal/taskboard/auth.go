package taskboard

import (
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	tbdb "github.com/nao1215/taskboard/internal/taskboard/db"
	"github.com/nao1215/taskboard/pkg/apperr"
	"github.com/nao1215/taskboard/pkg/middleware"
	"github.com/nao1215/taskboard/pkg/response"
	"golang.org/x/crypto/bcrypt"
)

// minPasswordLength はパスワードの最小文字数。
const minPasswordLength = 8

// signupRequest はユーザー登録リクエストのJSON構造。
type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// loginRequest はログインリクエストのJSON構造。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userResponse はユーザーのJSONレスポンス構造。
type userResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// authResponse はログイン・ユーザー登録のJSONレスポンス構造。
type authResponse struct {
	// Token はBearerヘッダーで送るためのJWT。同じ値がクッキーにも設定される。
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

func toUserResponse(u tbdb.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: formatTime(u.CreatedAt),
	}
}

// normalizeEmail はメールアドレスを検証し、比較用に小文字化する。
func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil || addr.Name != "" {
		return "", apperr.Business(apperr.CodeValidationFailed, "email is invalid")
	}
	return strings.ToLower(addr.Address), nil
}

func (s *Server) tokenTTL() time.Duration {
	if s.cfg.TokenTTL <= 0 {
		return middleware.DefaultTokenTTL
	}
	return s.cfg.TokenTTL
}

// issueToken はユーザーのトークンを発行してクッキーに設定する。
func (s *Server) issueToken(c *gin.Context, u tbdb.User) (string, error) {
	token, err := middleware.GenerateJWT(s.cfg.JWTSecret, middleware.Identity{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
	}, s.tokenTTL())
	if err != nil {
		return "", err
	}
	s.setAuthCookie(c, token)
	return token, nil
}

// handleSignup はユーザー登録を処理するハンドラを返す。
// 登録に成功するとそのままログイン状態になる。
func (s *Server) handleSignup() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req signupRequest
		if err := bindJSON(c, &req); err != nil {
			_ = c.Error(err)
			return
		}

		email, err := normalizeEmail(req.Email)
		if err != nil {
			_ = c.Error(err)
			return
		}
		name, err := required("name", req.Name)
		if err != nil {
			_ = c.Error(err)
			return
		}
		if len(req.Password) < minPasswordLength {
			_ = c.Error(apperr.Businessf(apperr.CodeValidationFailed, "password must be at least %d characters", minPasswordLength))
			return
		}
		if s.cfg.JWTSecret == "" {
			_ = c.Error(apperr.ConfigMissing())
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			_ = c.Error(fmt.Errorf("パスワードのハッシュ化に失敗: %w", err))
			return
		}

		user := tbdb.User{
			ID:           uuid.New().String(),
			Email:        email,
			Name:         name,
			PasswordHash: string(hash),
			CreatedAt:    time.Now().UTC(),
		}
		if err := s.queries.CreateUser(c.Request.Context(), tbdb.CreateUserParams{
			ID:           user.ID,
			Email:        user.Email,
			Name:         user.Name,
			PasswordHash: user.PasswordHash,
			CreatedAt:    user.CreatedAt,
		}); err != nil {
			if tbdb.IsUniqueViolation(err) {
				_ = c.Error(apperr.Business(apperr.CodeEmailTaken, "email is already registered"))
				return
			}
			_ = c.Error(fmt.Errorf("ユーザーの作成に失敗: %w", err))
			return
		}

		token, err := s.issueToken(c, user)
		if err != nil {
			_ = c.Error(err)
			return
		}
		response.OK(c, http.StatusCreated, authResponse{Token: token, User: toUserResponse(user)})
	}
}

// handleLogin はログインを処理するハンドラを返す。
// メールアドレスの誤りとパスワードの誤りは区別せずINVALID_CREDENTIALSを返す。
func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := bindJSON(c, &req); err != nil {
			_ = c.Error(err)
			return
		}

		user, err := s.queries.GetUserByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
		if tbdb.IsNotFound(err) {
			_ = c.Error(apperr.InvalidCredentials())
			return
		}
		if err != nil {
			_ = c.Error(fmt.Errorf("ユーザーの取得に失敗: %w", err))
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
				_ = c.Error(apperr.InvalidCredentials())
				return
			}
			_ = c.Error(fmt.Errorf("パスワードの照合に失敗: %w", err))
			return
		}

		token, err := s.issueToken(c, user)
		if err != nil {
			_ = c.Error(err)
			return
		}
		response.OK(c, http.StatusOK, authResponse{Token: token, User: toUserResponse(user)})
	}
}

// handleLogout は認証クッキーを削除するハンドラを返す。
// トークン自体はサーバー側で失効させない。
func (s *Server) handleLogout() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.clearAuthCookie(c)
		response.OK(c, http.StatusOK, gin.H{"ok": true})
	}
}

// handleMe はログイン中のユーザー情報を返すハンドラを返す。
func (s *Server) handleMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := middleware.MustIdentity(c)

		user, err := s.queries.GetUserByID(c.Request.Context(), id.UserID)
		if tbdb.IsNotFound(err) {
			_ = c.Error(apperr.Business(apperr.CodeUserNotFound, "user not found"))
			return
		}
		if err != nil {
			_ = c.Error(fmt.Errorf("ユーザーの取得に失敗: %w", err))
			return
		}
		response.OK(c, http.StatusOK, toUserResponse(user))
	}
}

// handleHello は疎通確認と公開ルート一覧を返すハンドラを返す。
// クライアント側のルートガードはpublic_routesを参照する。
func (s *Server) handleHello() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.OK(c, http.StatusOK, gin.H{
			"message":       "hello",
			"public_routes": middleware.PublicPrefixes,
		})
	}
}
