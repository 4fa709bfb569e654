package taskboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	tbdb "github.com/nao1215/taskboard/internal/taskboard/db"
	"github.com/nao1215/taskboard/pkg/apperr"
	"github.com/nao1215/taskboard/pkg/middleware"
	"github.com/nao1215/taskboard/pkg/response"
)

// createViewRequest は保存ビュー作成リクエストのJSON構造。
type createViewRequest struct {
	Name    string     `json:"name"`
	Filters taskFilter `json:"filters"`
}

// viewResponse は保存ビューのJSONレスポンス構造。
type viewResponse struct {
	ID        string     `json:"id"`
	ProjectID string     `json:"project_id"`
	Name      string     `json:"name"`
	Filters   taskFilter `json:"filters"`
	CreatedAt string     `json:"created_at"`
}

func toViewResponse(v tbdb.View) (viewResponse, error) {
	var f taskFilter
	if err := json.Unmarshal([]byte(v.Filters), &f); err != nil {
		return viewResponse{}, fmt.Errorf("保存ビュー %s の条件の読み込みに失敗: %w", v.ID, err)
	}
	return viewResponse{
		ID:        v.ID,
		ProjectID: v.ProjectID,
		Name:      v.Name,
		Filters:   f,
		CreatedAt: formatTime(v.CreatedAt),
	}, nil
}

// ownView はuserIDが作成した保存ビューを取得する。他人のビューは存在しないものとして扱う。
func (s *Server) ownView(ctx context.Context, viewID, userID string) (tbdb.View, error) {
	v, err := s.queries.GetViewByID(ctx, viewID)
	if tbdb.IsNotFound(err) || (err == nil && v.UserID != userID) {
		return tbdb.View{}, apperr.Business(apperr.CodeViewNotFound, "view not found")
	}
	if err != nil {
		return tbdb.View{}, fmt.Errorf("保存ビューの取得に失敗: %w", err)
	}
	return v, nil
}

// handleListViews はログイン中のユーザーがプロジェクトに保存したビュー一覧を返すハンドラを返す。
func (s *Server) handleListViews() gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := s.requireRole(c, c.Param("id"), RoleViewer)
		if err != nil {
			_ = c.Error(err)
			return
		}

		views, err := s.queries.ListViews(c.Request.Context(), m.ProjectID, m.UserID)
		if err != nil {
			_ = c.Error(fmt.Errorf("保存ビュー一覧の取得に失敗: %w", err))
			return
		}

		responses := make([]viewResponse, 0, len(views))
		for _, v := range views {
			res, err := toViewResponse(v)
			if err != nil {
				_ = c.Error(err)
				return
			}
			responses = append(responses, res)
		}
		response.OK(c, http.StatusOK, responses)
	}
}

// handleCreateView は保存ビュー作成を処理するハンドラを返す。
// ビューは作成したユーザーにのみ見える。
func (s *Server) handleCreateView() gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := s.requireRole(c, c.Param("id"), RoleViewer)
		if err != nil {
			_ = c.Error(err)
			return
		}

		var req createViewRequest
		if err := bindJSON(c, &req); err != nil {
			_ = c.Error(err)
			return
		}
		name, err := required("name", req.Name)
		if err != nil {
			_ = c.Error(err)
			return
		}
		if err := req.Filters.validate(); err != nil {
			_ = c.Error(err)
			return
		}

		filters, err := json.Marshal(req.Filters)
		if err != nil {
			_ = c.Error(fmt.Errorf("条件のシリアライズに失敗: %w", err))
			return
		}
		v := tbdb.View{
			ID:        uuid.New().String(),
			ProjectID: m.ProjectID,
			UserID:    m.UserID,
			Name:      name,
			Filters:   string(filters),
			CreatedAt: time.Now().UTC(),
		}
		if err := s.queries.CreateView(c.Request.Context(), v); err != nil {
			_ = c.Error(fmt.Errorf("保存ビューの作成に失敗: %w", err))
			return
		}

		response.OK(c, http.StatusCreated, viewResponse{
			ID:        v.ID,
			ProjectID: v.ProjectID,
			Name:      v.Name,
			Filters:   req.Filters,
			CreatedAt: formatTime(v.CreatedAt),
		})
	}
}

// handleDeleteView は保存ビュー削除を処理するハンドラを返す。
func (s *Server) handleDeleteView() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := s.ownView(c.Request.Context(), c.Param("id"), middleware.MustIdentity(c).UserID)
		if err != nil {
			_ = c.Error(err)
			return
		}

		if err := s.queries.DeleteView(c.Request.Context(), v.ID); err != nil {
			_ = c.Error(fmt.Errorf("保存ビューの削除に失敗: %w", err))
			return
		}
		response.OK(c, http.StatusOK, gin.H{"id": v.ID, "deleted": true})
	}
}
