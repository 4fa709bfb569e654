package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"
)

// Kind はエラーの分類を表す。
type Kind int

const (
	// KindUnclassified は分類できないエラー（想定外の失敗）を表す。
	KindUnclassified Kind = iota
	// KindAuthRequired は認証情報（トークン）が提示されていないことを表す。
	KindAuthRequired
	// KindInvalidToken はトークンが不正または期限切れであることを表す。
	KindInvalidToken
	// KindInvalidCredentials はログイン時のメールアドレス・パスワードが誤っていることを表す。
	KindInvalidCredentials
	// KindConfig はサーバー設定（JWT署名鍵など）が不足していることを表す。
	KindConfig
	// KindBusiness は業務ルール違反を表す。Codeで詳細を区別する。
	KindBusiness
)

// String はKindの名前を返す。
func (k Kind) String() string {
	switch k {
	case KindAuthRequired:
		return "auth_required"
	case KindInvalidToken:
		return "invalid_token"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindConfig:
		return "config"
	case KindBusiness:
		return "business"
	default:
		return "unclassified"
	}
}

// 安定したエラーコード。クライアントはこの値で分岐する。
const (
	CodeAuthRequired       = "AUTH_REQUIRED"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeJWTSecretMissing   = "JWT_SECRET_MISSING"
	CodeInternal           = "INTERNAL_ERROR"

	CodeValidationFailed  = "VALIDATION_FAILED"
	CodeEmailTaken        = "EMAIL_TAKEN"
	CodeForbidden         = "FORBIDDEN"
	CodeUserNotFound      = "USER_NOT_FOUND"
	CodeProjectNotFound   = "PROJECT_NOT_FOUND"
	CodeMemberNotFound    = "MEMBER_NOT_FOUND"
	CodeMemberExists      = "MEMBER_EXISTS"
	CodeOwnerImmutable    = "OWNER_IMMUTABLE"
	CodeTaskNotFound      = "TASK_NOT_FOUND"
	CodeAssigneeNotMember = "ASSIGNEE_NOT_MEMBER"
	CodeLabelNotFound     = "LABEL_NOT_FOUND"
	CodeLabelExists       = "LABEL_EXISTS"
	CodeViewNotFound      = "VIEW_NOT_FOUND"
	CodeRouteNotFound     = "NOT_FOUND"
	CodeMethodNotAllowed  = "METHOD_NOT_ALLOWED"
)

// Error は型付きエラー。発生時点で生成され、エラーハンドラーまで変更されずに伝播する。
type Error struct {
	// Kind はエラーの分類。
	Kind Kind
	// Code は機械可読な安定したエラーコード。
	Code string
	// Message は人間が読むためのメッセージ。
	Message string
	// Timestamp はエラーの生成日時（UTC）。
	Timestamp time.Time
	// Stack はエラー生成時点のスタックトレース。
	Stack string

	cause error
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap は元となったエラーを返す。
func (e *Error) Unwrap() error {
	return e.cause
}

func newError(kind Kind, code, message string, cause error) *Error {
	return &Error{
		Kind:      kind,
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC(),
		Stack:     callers(3),
		cause:     cause,
	}
}

// AuthRequired は認証情報が無いことを表すエラーを返す。
func AuthRequired() *Error {
	return newError(KindAuthRequired, CodeAuthRequired, "authentication required", nil)
}

// InvalidToken はトークン検証に失敗したことを表すエラーを返す。
func InvalidToken(cause error) *Error {
	return newError(KindInvalidToken, CodeInvalidToken, "invalid or expired token", cause)
}

// InvalidCredentials はログイン認証情報が誤っていることを表すエラーを返す。
func InvalidCredentials() *Error {
	return newError(KindInvalidCredentials, CodeInvalidCredentials, "invalid email or password", nil)
}

// ConfigMissing はJWT署名鍵が設定されていないことを表すエラーを返す。
func ConfigMissing() *Error {
	return newError(KindConfig, CodeJWTSecretMissing, "jwt secret is not configured", nil)
}

// Business は業務ルール違反を表すエラーを返す。
func Business(code, message string) *Error {
	return newError(KindBusiness, code, message, nil)
}

// Businessf はフォーマット付きメッセージで業務エラーを返す。
func Businessf(code, format string, args ...any) *Error {
	return newError(KindBusiness, code, fmt.Sprintf(format, args...), nil)
}

// Wrap は未分類エラーを型付きエラーに包む。errが既に*Errorの場合はそのまま返す。
func Wrap(err error) *Error {
	if e, ok := As(err); ok {
		return e
	}
	return newError(KindUnclassified, CodeInternal, "internal server error", err)
}

// WithStack はスタックトレースを差し替えたエラーを返す。パニック回復時に使用する。
func (e *Error) WithStack(stack string) *Error {
	e.Stack = stack
	return e
}

// As はerrのチェーンから*Errorを取り出す。
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsCode はerrが指定コードの型付きエラーかどうかを返す。
func IsCode(err error, code string) bool {
	e, ok := As(err)
	return ok && e.Code == code
}

// Status はエラーに対応するHTTPステータスコードを返す。
func Status(err error) int {
	e, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindAuthRequired, KindInvalidToken, KindInvalidCredentials:
		return http.StatusUnauthorized
	case KindConfig, KindBusiness:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func callers(skip int) string {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(skip, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var b strings.Builder
	for {
		f, more := frames.Next()
		fmt.Fprintf(&b, "%s\n\t%s:%d\n", f.Function, f.File, f.Line)
		if !more {
			break
		}
	}
	return b.String()
}
