package taskboard

import (
	"cmp"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	tbdb "github.com/nao1215/taskboard/internal/taskboard/db"
	"github.com/nao1215/taskboard/pkg/apperr"
	"github.com/nao1215/taskboard/pkg/event"
	"github.com/nao1215/taskboard/pkg/response"
)

// タスクのステータス。
const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
)

// タスクの優先度。
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

var (
	validStatuses   = []string{StatusTodo, StatusInProgress, StatusDone}
	validPriorities = []string{PriorityLow, PriorityMedium, PriorityHigh}
)

// assigneeMe はタスク一覧のassigneeでログイン中のユーザーを表す値。
const assigneeMe = "me"

// createTaskRequest はタスク作成リクエストのJSON構造。
type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	// Status は省略時todo。
	Status string `json:"status"`
	// Priority は省略時medium。
	Priority   string `json:"priority"`
	AssigneeID string `json:"assignee_id"`
	// DueDate はRFC3339または2006-01-02形式。
	DueDate string `json:"due_date"`
}

// updateTaskRequest はタスク更新リクエストのJSON構造。
// 省略した項目は変更しない。assignee_idとdue_dateは空文字列で解除する。
type updateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	AssigneeID  *string `json:"assignee_id"`
	DueDate     *string `json:"due_date"`
}

// taskResponse はタスクのJSONレスポンス構造。
type taskResponse struct {
	ID          string          `json:"id"`
	ProjectID   string          `json:"project_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Status      string          `json:"status"`
	Priority    string          `json:"priority"`
	AssigneeID  *string         `json:"assignee_id"`
	CreatedBy   string          `json:"created_by"`
	DueDate     *string         `json:"due_date"`
	CompletedAt *string         `json:"completed_at"`
	Labels      []labelResponse `json:"labels"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
}

func toTaskResponse(t tbdb.Task, labels []tbdb.Label) taskResponse {
	res := taskResponse{
		ID:          t.ID,
		ProjectID:   t.ProjectID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		CreatedBy:   t.CreatedBy,
		Labels:      make([]labelResponse, 0, len(labels)),
		CreatedAt:   formatTime(t.CreatedAt),
		UpdatedAt:   formatTime(t.UpdatedAt),
	}
	if t.AssigneeID.Valid {
		res.AssigneeID = &t.AssigneeID.String
	}
	if t.DueDate.Valid {
		v := formatTime(t.DueDate.Time)
		res.DueDate = &v
	}
	if t.CompletedAt.Valid {
		v := formatTime(t.CompletedAt.Time)
		res.CompletedAt = &v
	}
	for _, l := range labels {
		res.Labels = append(res.Labels, toLabelResponse(l))
	}
	return res
}

// taskFilter はタスク一覧の絞り込み条件。保存ビューにもこの形で保存する。
type taskFilter struct {
	Status   []string `json:"status,omitempty"`
	Assignee string   `json:"assignee,omitempty"`
	Labels   []string `json:"labels,omitempty"`
	Q        string   `json:"q,omitempty"`
}

// validate は条件の値を検証する。
func (f taskFilter) validate() error {
	for _, st := range f.Status {
		if !slices.Contains(validStatuses, st) {
			return apperr.Businessf(apperr.CodeValidationFailed, "unknown status %q", st)
		}
	}
	return nil
}

// merge はoverの空でない条件でfを上書きした条件を返す。
func (f taskFilter) merge(over taskFilter) taskFilter {
	if len(over.Status) > 0 {
		f.Status = over.Status
	}
	if over.Assignee != "" {
		f.Assignee = over.Assignee
	}
	if len(over.Labels) > 0 {
		f.Labels = over.Labels
	}
	if over.Q != "" {
		f.Q = over.Q
	}
	return f
}

// toQuery はクエリ用の条件に変換する。assigneeのmeはuserIDに置き換える。
func (f taskFilter) toQuery(projectID, userID string) tbdb.TaskFilter {
	assignee := f.Assignee
	if assignee == assigneeMe {
		assignee = userID
	}
	return tbdb.TaskFilter{
		ProjectID:  projectID,
		Statuses:   f.Status,
		AssigneeID: assignee,
		LabelIDs:   f.Labels,
		Query:      f.Q,
	}
}

// parseDueDate は期限を解釈する。空文字列は期限なし。
func parseDueDate(raw string) (sql.NullTime, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return sql.NullTime{}, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return sql.NullTime{Time: t.UTC(), Valid: true}, nil
		}
	}
	return sql.NullTime{}, apperr.Businessf(apperr.CodeValidationFailed, "due_date must be RFC3339 or YYYY-MM-DD: %q", raw)
}

func checkStatus(status string) error {
	if !slices.Contains(validStatuses, status) {
		return apperr.Businessf(apperr.CodeValidationFailed, "status must be one of %s", strings.Join(validStatuses, ", "))
	}
	return nil
}

func checkPriority(priority string) error {
	if !slices.Contains(validPriorities, priority) {
		return apperr.Businessf(apperr.CodeValidationFailed, "priority must be one of %s", strings.Join(validPriorities, ", "))
	}
	return nil
}

// applyStatus はステータスを変更し、完了日時を合わせる。
// doneになった時点で完了日時を設定し、doneから戻った場合は解除する。
func applyStatus(t *tbdb.Task, status string, now time.Time) {
	if t.Status != StatusDone && status == StatusDone {
		t.CompletedAt = sql.NullTime{Time: now, Valid: true}
	}
	if status != StatusDone {
		t.CompletedAt = sql.NullTime{}
	}
	t.Status = status
}

// checkAssignee は担当者がプロジェクトのメンバーであることを確認する。
func (s *Server) checkAssignee(ctx context.Context, projectID, assigneeID string) error {
	if assigneeID == "" {
		return nil
	}
	_, err := s.queries.GetMember(ctx, projectID, assigneeID)
	if tbdb.IsNotFound(err) {
		return apperr.Business(apperr.CodeAssigneeNotMember, "assignee is not a member of the project")
	}
	if err != nil {
		return fmt.Errorf("担当者の確認に失敗: %w", err)
	}
	return nil
}

// loadTask はタスクとそのプロジェクトでのログイン中のユーザーのメンバー情報を取得する。
// タスクが存在しない場合とメンバーでない場合はどちらもTASK_NOT_FOUNDを返す。
func (s *Server) loadTask(c *gin.Context, required string) (tbdb.Task, tbdb.ProjectMember, error) {
	t, err := s.queries.GetTaskByID(c.Request.Context(), c.Param("id"))
	if tbdb.IsNotFound(err) {
		return t, tbdb.ProjectMember{}, apperr.Business(apperr.CodeTaskNotFound, "task not found")
	}
	if err != nil {
		return t, tbdb.ProjectMember{}, fmt.Errorf("タスクの取得に失敗: %w", err)
	}

	m, err := s.requireRole(c, t.ProjectID, required)
	if apperr.IsCode(err, apperr.CodeProjectNotFound) {
		return t, m, apperr.Business(apperr.CodeTaskNotFound, "task not found")
	}
	return t, m, err
}

// taskLabels はタスクに付与されたラベルを取得する。
func (s *Server) taskLabels(ctx context.Context, taskID string) ([]tbdb.Label, error) {
	tls, err := s.queries.ListTaskLabels(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("タスクのラベル取得に失敗: %w", err)
	}
	labels := make([]tbdb.Label, 0, len(tls))
	for _, tl := range tls {
		labels = append(labels, tl.Label)
	}
	return labels, nil
}

// handleCreateTask はタスク作成を処理するハンドラを返す。viewerは作成できない。
func (s *Server) handleCreateTask() gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := s.requireRole(c, c.Param("id"), RoleMember)
		if err != nil {
			_ = c.Error(err)
			return
		}

		var req createTaskRequest
		if err := bindJSON(c, &req); err != nil {
			_ = c.Error(err)
			return
		}
		title, err := required("title", req.Title)
		if err != nil {
			_ = c.Error(err)
			return
		}
		status := cmp.Or(strings.TrimSpace(req.Status), StatusTodo)
		if err := checkStatus(status); err != nil {
			_ = c.Error(err)
			return
		}
		priority := cmp.Or(strings.TrimSpace(req.Priority), PriorityMedium)
		if err := checkPriority(priority); err != nil {
			_ = c.Error(err)
			return
		}
		due, err := parseDueDate(req.DueDate)
		if err != nil {
			_ = c.Error(err)
			return
		}
		assignee := strings.TrimSpace(req.AssigneeID)
		if err := s.checkAssignee(c.Request.Context(), m.ProjectID, assignee); err != nil {
			_ = c.Error(err)
			return
		}

		now := time.Now().UTC()
		task := tbdb.Task{
			ID:          uuid.New().String(),
			ProjectID:   m.ProjectID,
			Title:       title,
			Description: strings.TrimSpace(req.Description),
			Status:      StatusTodo,
			Priority:    priority,
			AssigneeID:  tbdb.NullString(assignee),
			CreatedBy:   m.UserID,
			DueDate:     due,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		applyStatus(&task, status, now)

		err = s.inTx(c.Request.Context(), func(q *tbdb.Queries) error {
			if err := q.CreateTask(c.Request.Context(), task); err != nil {
				return fmt.Errorf("タスクの作成に失敗: %w", err)
			}
			return record(c.Request.Context(), q, task.ProjectID, task.ID, event.AggregateTypeTask,
				event.TypeTaskCreated, m.UserID, event.TaskCreatedData{Title: task.Title, Status: task.Status})
		})
		if err != nil {
			_ = c.Error(err)
			return
		}

		response.OK(c, http.StatusCreated, toTaskResponse(task, nil))
	}
}

// handleListTasks はプロジェクトのタスク一覧を返すハンドラを返す。
//
// クエリパラメータ:
//   - status: ステータス（カンマ区切りで複数指定可）
//   - assignee: 担当者のユーザーID、me（自分）、none（担当者なし）
//   - label: ラベルID（複数指定時はすべて付与されたタスク）
//   - q: タイトル・説明の部分一致
//   - view: 保存ビューのID。ビューの条件を基に、他のパラメータで上書きする
func (s *Server) handleListTasks() gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := s.requireRole(c, c.Param("id"), RoleViewer)
		if err != nil {
			_ = c.Error(err)
			return
		}

		var filter taskFilter
		if viewID := c.Query("view"); viewID != "" {
			v, err := s.ownView(c.Request.Context(), viewID, m.UserID)
			if err != nil {
				_ = c.Error(err)
				return
			}
			if v.ProjectID != m.ProjectID {
				_ = c.Error(apperr.Business(apperr.CodeViewNotFound, "view not found"))
				return
			}
			if err := json.Unmarshal([]byte(v.Filters), &filter); err != nil {
				_ = c.Error(fmt.Errorf("保存ビューの条件の読み込みに失敗: %w", err))
				return
			}
		}
		filter = filter.merge(taskFilter{
			Status:   splitQuery(c, "status"),
			Assignee: strings.TrimSpace(c.Query("assignee")),
			Labels:   splitQuery(c, "label"),
			Q:        c.Query("q"),
		})
		if err := filter.validate(); err != nil {
			_ = c.Error(err)
			return
		}

		tasks, err := s.queries.ListTasks(c.Request.Context(), filter.toQuery(m.ProjectID, m.UserID))
		if err != nil {
			_ = c.Error(fmt.Errorf("タスク一覧の取得に失敗: %w", err))
			return
		}
		tls, err := s.queries.ListTaskLabelsByProject(c.Request.Context(), m.ProjectID)
		if err != nil {
			_ = c.Error(fmt.Errorf("ラベルの取得に失敗: %w", err))
			return
		}
		byTask := make(map[string][]tbdb.Label)
		for _, tl := range tls {
			byTask[tl.TaskID] = append(byTask[tl.TaskID], tl.Label)
		}

		responses := make([]taskResponse, 0, len(tasks))
		for _, t := range tasks {
			responses = append(responses, toTaskResponse(t, byTask[t.ID]))
		}
		response.OK(c, http.StatusOK, responses)
	}
}

// handleGetTask はタスク詳細を返すハンドラを返す。
func (s *Server) handleGetTask() gin.HandlerFunc {
	return func(c *gin.Context) {
		t, _, err := s.loadTask(c, RoleViewer)
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

// handleUpdateTask はタスク更新を処理するハンドラを返す。
// ステータスの変更はTaskStatusChanged、それ以外の項目の変更はTaskUpdatedとして記録する。
func (s *Server) handleUpdateTask() gin.HandlerFunc {
	return func(c *gin.Context) {
		t, m, err := s.loadTask(c, RoleMember)
		if err != nil {
			_ = c.Error(err)
			return
		}

		var req updateTaskRequest
		if err := bindJSON(c, &req); err != nil {
			_ = c.Error(err)
			return
		}

		now := time.Now().UTC()
		var fields []string
		if req.Title != nil {
			title, err := required("title", *req.Title)
			if err != nil {
				_ = c.Error(err)
				return
			}
			if title != t.Title {
				t.Title = title
				fields = append(fields, "title")
			}
		}
		if req.Description != nil {
			if d := strings.TrimSpace(*req.Description); d != t.Description {
				t.Description = d
				fields = append(fields, "description")
			}
		}
		if req.Priority != nil {
			if err := checkPriority(*req.Priority); err != nil {
				_ = c.Error(err)
				return
			}
			if *req.Priority != t.Priority {
				t.Priority = *req.Priority
				fields = append(fields, "priority")
			}
		}
		if req.AssigneeID != nil {
			assignee := strings.TrimSpace(*req.AssigneeID)
			if err := s.checkAssignee(c.Request.Context(), t.ProjectID, assignee); err != nil {
				_ = c.Error(err)
				return
			}
			if next := tbdb.NullString(assignee); next != t.AssigneeID {
				t.AssigneeID = next
				fields = append(fields, "assignee_id")
			}
		}
		if req.DueDate != nil {
			due, err := parseDueDate(*req.DueDate)
			if err != nil {
				_ = c.Error(err)
				return
			}
			if due.Valid != t.DueDate.Valid || !due.Time.Equal(t.DueDate.Time) {
				t.DueDate = due
				fields = append(fields, "due_date")
			}
		}
		from := t.Status
		if req.Status != nil {
			if err := checkStatus(*req.Status); err != nil {
				_ = c.Error(err)
				return
			}
			if *req.Status != t.Status {
				applyStatus(&t, *req.Status, now)
			}
		}

		if len(fields) == 0 && from == t.Status {
			labels, err := s.taskLabels(c.Request.Context(), t.ID)
			if err != nil {
				_ = c.Error(err)
				return
			}
			response.OK(c, http.StatusOK, toTaskResponse(t, labels))
			return
		}

		t.UpdatedAt = now
		err = s.inTx(c.Request.Context(), func(q *tbdb.Queries) error {
			if err := q.UpdateTask(c.Request.Context(), t); err != nil {
				return fmt.Errorf("タスクの更新に失敗: %w", err)
			}
			if len(fields) > 0 {
				if err := record(c.Request.Context(), q, t.ProjectID, t.ID, event.AggregateTypeTask,
					event.TypeTaskUpdated, m.UserID, event.TaskUpdatedData{Fields: fields}); err != nil {
					return err
				}
			}
			if from != t.Status {
				return record(c.Request.Context(), q, t.ProjectID, t.ID, event.AggregateTypeTask,
					event.TypeTaskStatusChanged, m.UserID, event.TaskStatusChangedData{From: from, To: t.Status})
			}
			return nil
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

// handleDeleteTask はタスク削除を処理するハンドラを返す。
// 作成者本人（member以上）またはadmin以上のみ削除できる。
func (s *Server) handleDeleteTask() gin.HandlerFunc {
	return func(c *gin.Context) {
		t, m, err := s.loadTask(c, RoleMember)
		if err != nil {
			_ = c.Error(err)
			return
		}
		if t.CreatedBy != m.UserID && !hasRole(m.Role, RoleAdmin) {
			_ = c.Error(apperr.Business(apperr.CodeForbidden, "only the creator or an admin can delete the task"))
			return
		}

		err = s.inTx(c.Request.Context(), func(q *tbdb.Queries) error {
			if err := q.DeleteTask(c.Request.Context(), t.ID); err != nil {
				return fmt.Errorf("タスクの削除に失敗: %w", err)
			}
			return record(c.Request.Context(), q, t.ProjectID, t.ID, event.AggregateTypeTask,
				event.TypeTaskDeleted, m.UserID, event.TaskDeletedData{Title: t.Title})
		})
		if err != nil {
			_ = c.Error(err)
			return
		}
		response.OK(c, http.StatusOK, gin.H{"id": t.ID, "deleted": true})
	}
}
