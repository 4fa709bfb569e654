package taskboard

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	tbdb "github.com/nao1215/taskboard/internal/taskboard/db"
	"github.com/nao1215/taskboard/pkg/event"
	"github.com/nao1215/taskboard/pkg/middleware"
	"github.com/nao1215/taskboard/pkg/response"
)

// createProjectRequest はプロジェクト作成リクエストのJSON構造。
type createProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// updateProjectRequest はプロジェクト更新リクエストのJSON構造。省略した項目は変更しない。
type updateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// projectResponse はプロジェクトのJSONレスポンス構造。
type projectResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	OwnerID     string `json:"owner_id"`
	// Role はログイン中のユーザーのロール。
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toProjectResponse(p tbdb.Project, role string) projectResponse {
	return projectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		OwnerID:     p.OwnerID,
		Role:        role,
		CreatedAt:   formatTime(p.CreatedAt),
		UpdatedAt:   formatTime(p.UpdatedAt),
	}
}

// handleCreateProject はプロジェクト作成を処理するハンドラを返す。
// 作成者はownerとしてメンバーに登録される。
func (s *Server) handleCreateProject() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := middleware.MustIdentity(c)

		var req createProjectRequest
		if err := bindJSON(c, &req); err != nil {
			_ = c.Error(err)
			return
		}
		name, err := required("name", req.Name)
		if err != nil {
			_ = c.Error(err)
			return
		}

		now := time.Now().UTC()
		project := tbdb.Project{
			ID:          uuid.New().String(),
			Name:        name,
			Description: strings.TrimSpace(req.Description),
			OwnerID:     id.UserID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		err = s.inTx(c.Request.Context(), func(q *tbdb.Queries) error {
			if err := q.CreateProject(c.Request.Context(), tbdb.CreateProjectParams{
				ID:          project.ID,
				Name:        project.Name,
				Description: project.Description,
				OwnerID:     project.OwnerID,
				CreatedAt:   project.CreatedAt,
			}); err != nil {
				return fmt.Errorf("プロジェクトの作成に失敗: %w", err)
			}
			if err := q.AddMember(c.Request.Context(), tbdb.AddMemberParams{
				ProjectID: project.ID,
				UserID:    id.UserID,
				Role:      RoleOwner,
				JoinedAt:  now,
			}); err != nil {
				return fmt.Errorf("オーナーの登録に失敗: %w", err)
			}
			return record(c.Request.Context(), q, project.ID, project.ID, event.AggregateTypeProject,
				event.TypeProjectCreated, id.UserID, event.ProjectCreatedData{Name: project.Name})
		})
		if err != nil {
			_ = c.Error(err)
			return
		}

		response.OK(c, http.StatusCreated, toProjectResponse(project, RoleOwner))
	}
}

// handleListProjects はログイン中のユーザーが所属するプロジェクト一覧を返すハンドラを返す。
func (s *Server) handleListProjects() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := middleware.MustIdentity(c)

		projects, err := s.queries.ListProjectsByUserID(c.Request.Context(), id.UserID)
		if err != nil {
			_ = c.Error(fmt.Errorf("プロジェクト一覧の取得に失敗: %w", err))
			return
		}

		responses := make([]projectResponse, 0, len(projects))
		for _, p := range projects {
			responses = append(responses, toProjectResponse(p.Project, p.Role))
		}
		response.OK(c, http.StatusOK, responses)
	}
}

// handleGetProject はプロジェクト詳細を返すハンドラを返す。
func (s *Server) handleGetProject() gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := s.requireRole(c, c.Param("id"), RoleViewer)
		if err != nil {
			_ = c.Error(err)
			return
		}

		p, err := s.queries.GetProjectByID(c.Request.Context(), m.ProjectID)
		if err != nil {
			_ = c.Error(fmt.Errorf("プロジェクトの取得に失敗: %w", err))
			return
		}
		response.OK(c, http.StatusOK, toProjectResponse(p, m.Role))
	}
}

// handleUpdateProject はプロジェクトの名前・説明の更新を処理するハンドラを返す。
func (s *Server) handleUpdateProject() gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := s.requireRole(c, c.Param("id"), RoleAdmin)
		if err != nil {
			_ = c.Error(err)
			return
		}

		var req updateProjectRequest
		if err := bindJSON(c, &req); err != nil {
			_ = c.Error(err)
			return
		}

		p, err := s.queries.GetProjectByID(c.Request.Context(), m.ProjectID)
		if err != nil {
			_ = c.Error(fmt.Errorf("プロジェクトの取得に失敗: %w", err))
			return
		}

		if req.Name != nil {
			name, err := required("name", *req.Name)
			if err != nil {
				_ = c.Error(err)
				return
			}
			p.Name = name
		}
		if req.Description != nil {
			p.Description = strings.TrimSpace(*req.Description)
		}
		p.UpdatedAt = time.Now().UTC()

		err = s.inTx(c.Request.Context(), func(q *tbdb.Queries) error {
			if err := q.UpdateProject(c.Request.Context(), tbdb.UpdateProjectParams{
				Name:        p.Name,
				Description: p.Description,
				UpdatedAt:   p.UpdatedAt,
				ID:          p.ID,
			}); err != nil {
				return fmt.Errorf("プロジェクトの更新に失敗: %w", err)
			}
			return record(c.Request.Context(), q, p.ID, p.ID, event.AggregateTypeProject,
				event.TypeProjectUpdated, m.UserID, event.ProjectUpdatedData{Name: p.Name, Description: p.Description})
		})
		if err != nil {
			_ = c.Error(err)
			return
		}

		response.OK(c, http.StatusOK, toProjectResponse(p, m.Role))
	}
}

// handleDeleteProject はプロジェクト削除を処理するハンドラを返す。
// タスク・ラベル・ビュー・アクティビティもすべて削除される。
func (s *Server) handleDeleteProject() gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := s.requireRole(c, c.Param("id"), RoleOwner)
		if err != nil {
			_ = c.Error(err)
			return
		}

		if err := s.queries.DeleteProject(c.Request.Context(), m.ProjectID); err != nil {
			_ = c.Error(fmt.Errorf("プロジェクトの削除に失敗: %w", err))
			return
		}
		response.OK(c, http.StatusOK, gin.H{"id": m.ProjectID, "deleted": true})
	}
}
