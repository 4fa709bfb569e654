package taskboard

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	tbdb "github.com/nao1215/taskboard/internal/taskboard/db"
	"github.com/nao1215/taskboard/pkg/apperr"
	"github.com/nao1215/taskboard/pkg/event"
	"github.com/nao1215/taskboard/pkg/middleware"
	"github.com/nao1215/taskboard/pkg/response"
)

// addMemberRequest はメンバー追加リクエストのJSON構造。
type addMemberRequest struct {
	Email string `json:"email"`
	// Role は省略時member。
	Role string `json:"role"`
}

// updateMemberRequest はロール変更リクエストのJSON構造。
type updateMemberRequest struct {
	Role string `json:"role"`
}

// memberResponse はメンバーのJSONレスポンス構造。
type memberResponse struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	JoinedAt string `json:"joined_at"`
}

func toMemberResponse(m tbdb.ProjectMember) memberResponse {
	return memberResponse{
		UserID:   m.UserID,
		Email:    m.Email,
		Name:     m.Name,
		Role:     m.Role,
		JoinedAt: formatTime(m.JoinedAt),
	}
}

// handleListMembers はプロジェクトのメンバー一覧を返すハンドラを返す。
func (s *Server) handleListMembers() gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := s.requireRole(c, c.Param("id"), RoleViewer)
		if err != nil {
			_ = c.Error(err)
			return
		}

		members, err := s.queries.ListMembers(c.Request.Context(), m.ProjectID)
		if err != nil {
			_ = c.Error(fmt.Errorf("メンバー一覧の取得に失敗: %w", err))
			return
		}

		responses := make([]memberResponse, 0, len(members))
		for _, member := range members {
			responses = append(responses, toMemberResponse(member))
		}
		response.OK(c, http.StatusOK, responses)
	}
}

// handleAddMember はメールアドレスで指定したユーザーをメンバーに追加するハンドラを返す。
func (s *Server) handleAddMember() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := s.requireRole(c, c.Param("id"), RoleAdmin)
		if err != nil {
			_ = c.Error(err)
			return
		}

		var req addMemberRequest
		if err := bindJSON(c, &req); err != nil {
			_ = c.Error(err)
			return
		}
		role := strings.TrimSpace(req.Role)
		if role == "" {
			role = RoleMember
		}
		if err := checkAssignableRole(role); err != nil {
			_ = c.Error(err)
			return
		}

		user, err := s.queries.GetUserByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
		if tbdb.IsNotFound(err) {
			_ = c.Error(apperr.Business(apperr.CodeUserNotFound, "no user with that email"))
			return
		}
		if err != nil {
			_ = c.Error(fmt.Errorf("ユーザーの取得に失敗: %w", err))
			return
		}

		member := tbdb.ProjectMember{
			ProjectID: actor.ProjectID,
			UserID:    user.ID,
			Role:      role,
			JoinedAt:  time.Now().UTC(),
			Email:     user.Email,
			Name:      user.Name,
		}
		err = s.inTx(c.Request.Context(), func(q *tbdb.Queries) error {
			if err := q.AddMember(c.Request.Context(), tbdb.AddMemberParams{
				ProjectID: member.ProjectID,
				UserID:    member.UserID,
				Role:      member.Role,
				JoinedAt:  member.JoinedAt,
			}); err != nil {
				if tbdb.IsUniqueViolation(err) {
					return apperr.Business(apperr.CodeMemberExists, "user is already a member")
				}
				return fmt.Errorf("メンバーの追加に失敗: %w", err)
			}
			return record(c.Request.Context(), q, member.ProjectID, member.ProjectID, event.AggregateTypeProject,
				event.TypeMemberAdded, actor.UserID, event.MemberAddedData{UserID: member.UserID, Role: member.Role})
		})
		if err != nil {
			_ = c.Error(err)
			return
		}

		response.OK(c, http.StatusCreated, toMemberResponse(member))
	}
}

// handleUpdateMember はメンバーのロール変更を処理するハンドラを返す。
// ownerのロールは変更できず、ownerを付与することもできない。
func (s *Server) handleUpdateMember() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := s.requireRole(c, c.Param("id"), RoleAdmin)
		if err != nil {
			_ = c.Error(err)
			return
		}

		var req updateMemberRequest
		if err := bindJSON(c, &req); err != nil {
			_ = c.Error(err)
			return
		}
		role := strings.TrimSpace(req.Role)
		if err := checkAssignableRole(role); err != nil {
			_ = c.Error(err)
			return
		}

		target, err := s.targetMember(c, actor.ProjectID)
		if err != nil {
			_ = c.Error(err)
			return
		}
		if target.Role == RoleOwner {
			_ = c.Error(apperr.Business(apperr.CodeOwnerImmutable, "the owner's role cannot be changed"))
			return
		}
		if target.Role == role {
			response.OK(c, http.StatusOK, toMemberResponse(target))
			return
		}

		from := target.Role
		target.Role = role
		err = s.inTx(c.Request.Context(), func(q *tbdb.Queries) error {
			if err := q.UpdateMemberRole(c.Request.Context(), target.ProjectID, target.UserID, role); err != nil {
				return fmt.Errorf("ロールの変更に失敗: %w", err)
			}
			return record(c.Request.Context(), q, target.ProjectID, target.ProjectID, event.AggregateTypeProject,
				event.TypeMemberRoleChanged, actor.UserID, event.MemberRoleChangedData{UserID: target.UserID, From: from, To: role})
		})
		if err != nil {
			_ = c.Error(err)
			return
		}

		response.OK(c, http.StatusOK, toMemberResponse(target))
	}
}

// handleRemoveMember はメンバーをプロジェクトから外すハンドラを返す。
// admin以上は他のメンバーを、それ以外は自分自身のみ外せる。ownerは外せない。
// 外れたメンバーが担当していたタスクは担当者なしになる。
func (s *Server) handleRemoveMember() gin.HandlerFunc {
	return func(c *gin.Context) {
		self := middleware.MustIdentity(c).UserID
		actor, err := s.membership(c.Request.Context(), c.Param("id"), self)
		if err != nil {
			_ = c.Error(err)
			return
		}
		if c.Param("userID") != self && !hasRole(actor.Role, RoleAdmin) {
			_ = c.Error(apperr.Business(apperr.CodeForbidden, "admin role or higher is required"))
			return
		}

		target, err := s.targetMember(c, actor.ProjectID)
		if err != nil {
			_ = c.Error(err)
			return
		}
		if target.Role == RoleOwner {
			_ = c.Error(apperr.Business(apperr.CodeOwnerImmutable, "the owner cannot be removed"))
			return
		}

		now := time.Now().UTC()
		err = s.inTx(c.Request.Context(), func(q *tbdb.Queries) error {
			if err := q.UnassignMemberTasks(c.Request.Context(), target.ProjectID, target.UserID, now); err != nil {
				return fmt.Errorf("担当タスクの解除に失敗: %w", err)
			}
			if err := q.RemoveMember(c.Request.Context(), target.ProjectID, target.UserID); err != nil {
				return fmt.Errorf("メンバーの削除に失敗: %w", err)
			}
			return record(c.Request.Context(), q, target.ProjectID, target.ProjectID, event.AggregateTypeProject,
				event.TypeMemberRemoved, actor.UserID, event.MemberRemovedData{UserID: target.UserID})
		})
		if err != nil {
			_ = c.Error(err)
			return
		}

		response.OK(c, http.StatusOK, gin.H{"user_id": target.UserID, "removed": true})
	}
}

// targetMember はパスパラメータuserIDで指定されたメンバーを取得する。
func (s *Server) targetMember(c *gin.Context, projectID string) (tbdb.ProjectMember, error) {
	m, err := s.queries.GetMember(c.Request.Context(), projectID, c.Param("userID"))
	if tbdb.IsNotFound(err) {
		return m, apperr.Business(apperr.CodeMemberNotFound, "member not found")
	}
	if err != nil {
		return m, fmt.Errorf("メンバー情報の取得に失敗: %w", err)
	}
	return m, nil
}

func checkAssignableRole(role string) error {
	if role == RoleOwner {
		return apperr.Business(apperr.CodeOwnerImmutable, "the owner role cannot be assigned")
	}
	if !isAssignableRole(role) {
		return apperr.Businessf(apperr.CodeValidationFailed, "role must be one of admin, member, viewer: %q", role)
	}
	return nil
}
