package taskboard

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	tbdb "github.com/nao1215/taskboard/internal/taskboard/db"
	"github.com/nao1215/taskboard/pkg/apperr"
	"github.com/nao1215/taskboard/pkg/event"
	"github.com/nao1215/taskboard/pkg/response"
)

// colorPattern はラベル色の形式（#rrggbb）。
var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// createLabelRequest はラベル作成リクエストのJSON構造。
type createLabelRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// labelResponse はラベルのJSONレスポンス構造。
type labelResponse struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	CreatedAt string `json:"created_at"`
}

func toLabelResponse(l tbdb.Label) labelResponse {
	return labelResponse{
		ID:        l.ID,
		ProjectID: l.ProjectID,
		Name:      l.Name,
		Color:     l.Color,
		CreatedAt: formatTime(l.CreatedAt),
	}
}

// handleListLabels はプロジェクトのラベル一覧を返すハンドラを返す。
func (s *Server) handleListLabels() gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := s.requireRole(c, c.Param("id"), RoleViewer)
		if err != nil {
			_ = c.Error(err)
			return
		}

		labels, err := s.queries.ListLabelsByProject(c.Request.Context(), m.ProjectID)
		if err != nil {
			_ = c.Error(fmt.Errorf("ラベル一覧の取得に失敗: %w", err))
			return
		}

		responses := make([]labelResponse, 0, len(labels))
		for _, l := range labels {
			responses = append(responses, toLabelResponse(l))
		}
		response.OK(c, http.StatusOK, responses)
	}
}

// handleCreateLabel はラベル作成を処理するハンドラを返す。
// ラベル名はプロジェクト内で一意。
func (s *Server) handleCreateLabel() gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := s.requireRole(c, c.Param("id"), RoleMember)
		if err != nil {
			_ = c.Error(err)
			return
		}

		var req createLabelRequest
		if err := bindJSON(c, &req); err != nil {
			_ = c.Error(err)
			return
		}
		name, err := required("name", req.Name)
		if err != nil {
			_ = c.Error(err)
			return
		}
		color := strings.TrimSpace(req.Color)
		if color != "" && !colorPattern.MatchString(color) {
			_ = c.Error(apperr.Business(apperr.CodeValidationFailed, "color must be #rrggbb"))
			return
		}

		label := tbdb.Label{
			ID:        uuid.New().String(),
			ProjectID: m.ProjectID,
			Name:      name,
			Color:     strings.ToLower(color),
			CreatedAt: time.Now().UTC(),
		}
		if err := s.queries.CreateLabel(c.Request.Context(), label); err != nil {
			if tbdb.IsUniqueViolation(err) {
				_ = c.Error(apperr.Businessf(apperr.CodeLabelExists, "label %q already exists", name))
				return
			}
			_ = c.Error(fmt.Errorf("ラベルの作成に失敗: %w", err))
			return
		}
		response.OK(c, http.StatusCreated, toLabelResponse(label))
	}
}

// handleDeleteLabel はラベル削除を処理するハンドラを返す。
// メンバーでないプロジェクトのラベルは存在しないものとして扱う。
func (s *Server) handleDeleteLabel() gin.HandlerFunc {
	return func(c *gin.Context) {
		l, err := s.queries.GetLabelByID(c.Request.Context(), c.Param("id"))
		if tbdb.IsNotFound(err) {
			_ = c.Error(apperr.Business(apperr.CodeLabelNotFound, "label not found"))
			return
		}
		if err != nil {
			_ = c.Error(fmt.Errorf("ラベルの取得に失敗: %w", err))
			return
		}

		if _, err := s.requireRole(c, l.ProjectID, RoleAdmin); err != nil {
			if apperr.IsCode(err, apperr.CodeProjectNotFound) {
				err = apperr.Business(apperr.CodeLabelNotFound, "label not found")
			}
			_ = c.Error(err)
			return
		}

		if err := s.queries.DeleteLabel(c.Request.Context(), l.ID); err != nil {
			_ = c.Error(fmt.Errorf("ラベルの削除に失敗: %w", err))
			return
		}
		response.OK(c, http.StatusOK, gin.H{"id": l.ID, "deleted": true})
	}
}

// handleAttachLabel はタスクへのラベル付与を処理するハンドラを返す。
func (s *Server) handleAttachLabel() gin.HandlerFunc {
	return s.changeLabel(true)
}

// handleDetachLabel はタスクからのラベル解除を処理するハンドラを返す。
func (s *Server) handleDetachLabel() gin.HandlerFunc {
	return s.changeLabel(false)
}

// changeLabel はラベルの付与・解除の共通処理。
// ラベルはタスクと同じプロジェクトのものでなければならない。
// 状態が変わらない付与・解除は成功として扱い、アクティビティを記録しない。
func (s *Server) changeLabel(attach bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, m, err := s.loadTask(c, RoleMember)
		if err != nil {
			_ = c.Error(err)
			return
		}

		l, err := s.queries.GetLabelByID(c.Request.Context(), c.Param("labelID"))
		if tbdb.IsNotFound(err) || (err == nil && l.ProjectID != t.ProjectID) {
			_ = c.Error(apperr.Business(apperr.CodeLabelNotFound, "label not found"))
			return
		}
		if err != nil {
			_ = c.Error(fmt.Errorf("ラベルの取得に失敗: %w", err))
			return
		}

		now := time.Now().UTC()
		err = s.inTx(c.Request.Context(), func(q *tbdb.Queries) error {
			eventType := event.TypeLabelAttached
			var (
				changed bool
				err     error
			)
			if attach {
				if changed, err = q.AttachLabel(c.Request.Context(), t.ID, l.ID, now); err != nil {
					return fmt.Errorf("ラベルの付与に失敗: %w", err)
				}
			} else {
				eventType = event.TypeLabelDetached
				if changed, err = q.DetachLabel(c.Request.Context(), t.ID, l.ID); err != nil {
					return fmt.Errorf("ラベルの解除に失敗: %w", err)
				}
			}
			// 付与済み・未付与で状態が変わらない場合は記録しない
			if !changed {
				return nil
			}
			return record(c.Request.Context(), q, t.ProjectID, t.ID, event.AggregateTypeTask,
				eventType, m.UserID, event.LabelChangedData{LabelID: l.ID, Name: l.Name})
		})
		if err != nil {
			_ = c.Error(err)
			return
		}

		labels, err := s.taskLabels(c.Request.Context(), t.ID)
		if err != nil {
			_ = c.Error(err)
			return
		}
		response.OK(c, http.StatusOK, toTaskResponse(t, labels))
	}
}
