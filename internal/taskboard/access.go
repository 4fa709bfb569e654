package taskboard

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	tbdb "github.com/nao1215/taskboard/internal/taskboard/db"
	"github.com/nao1215/taskboard/pkg/apperr"
	"github.com/nao1215/taskboard/pkg/event"
	"github.com/nao1215/taskboard/pkg/middleware"
)

// プロジェクト内のロール。
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleViewer = "viewer"
)

// roleRank はロールの強さ。値が大きいほど権限が強い。
var roleRank = map[string]int{
	RoleViewer: 1,
	RoleMember: 2,
	RoleAdmin:  3,
	RoleOwner:  4,
}

// hasRole はroleがrequired以上の権限を持つかどうかを返す。
func hasRole(role, required string) bool {
	return roleRank[role] >= roleRank[required]
}

// isAssignableRole はメンバー追加・ロール変更で指定できるロールかどうかを返す。
func isAssignableRole(role string) bool {
	return role == RoleAdmin || role == RoleMember || role == RoleViewer
}

// membership はログイン中のユーザーのプロジェクトでのメンバー情報を返す。
// メンバーでない場合はプロジェクトの存在を明かさずPROJECT_NOT_FOUNDを返す。
func (s *Server) membership(ctx context.Context, projectID, userID string) (tbdb.ProjectMember, error) {
	m, err := s.queries.GetMember(ctx, projectID, userID)
	if tbdb.IsNotFound(err) {
		return tbdb.ProjectMember{}, apperr.Business(apperr.CodeProjectNotFound, "project not found")
	}
	if err != nil {
		return tbdb.ProjectMember{}, fmt.Errorf("メンバー情報の取得に失敗: %w", err)
	}
	return m, nil
}

// requireRole はログイン中のユーザーがプロジェクトでrequired以上のロールを持つことを確認する。
func (s *Server) requireRole(c *gin.Context, projectID, required string) (tbdb.ProjectMember, error) {
	m, err := s.membership(c.Request.Context(), projectID, middleware.MustIdentity(c).UserID)
	if err != nil {
		return m, err
	}
	if !hasRole(m.Role, required) {
		return m, apperr.Businessf(apperr.CodeForbidden, "%s role or higher is required", required)
	}
	return m, nil
}

// record はアクティビティを追記する。
func record(ctx context.Context, q *tbdb.Queries, projectID, aggregateID string, aggregateType event.AggregateType, eventType event.Type, actorID string, data any) error {
	e, err := event.New(projectID, aggregateID, aggregateType, eventType, actorID, data)
	if err != nil {
		return err
	}
	if err := q.CreateActivity(ctx, tbdb.Activity{
		ID:            e.ID,
		ProjectID:     e.ProjectID,
		AggregateID:   e.AggregateID,
		AggregateType: string(e.AggregateType),
		EventType:     string(e.EventType),
		ActorID:       e.ActorID,
		Data:          string(e.Data),
		CreatedAt:     e.CreatedAt,
	}); err != nil {
		return fmt.Errorf("アクティビティの記録に失敗: %w", err)
	}
	return nil
}
