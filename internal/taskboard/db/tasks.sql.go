package db

import (
	"context"
	"database/sql"
	"strings"
)

const taskColumns = `t.id, t.project_id, t.title, t.description, t.status, t.priority, t.assignee_id, t.created_by, t.due_date, t.completed_at, t.created_at, t.updated_at`

func scanTask(s interface{ Scan(dest ...any) error }) (Task, error) {
	var t Task
	err := s.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&t.AssigneeID, &t.CreatedBy, &t.DueDate, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

const createTask = `
INSERT INTO tasks (id, project_id, title, description, status, priority, assignee_id, created_by, due_date, completed_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// CreateTask はタスクを作成する。
func (q *Queries) CreateTask(ctx context.Context, t Task) error {
	_, err := q.db.ExecContext(ctx, createTask, t.ID, t.ProjectID, t.Title, t.Description, t.Status, t.Priority,
		t.AssigneeID, t.CreatedBy, t.DueDate, t.CompletedAt, t.CreatedAt, t.UpdatedAt)
	return err
}

const getTaskByID = `SELECT ` + taskColumns + ` FROM tasks t WHERE t.id = ?`

// GetTaskByID はIDでタスクを取得する。
func (q *Queries) GetTaskByID(ctx context.Context, id string) (Task, error) {
	return scanTask(q.db.QueryRowContext(ctx, getTaskByID, id))
}

// TaskFilter はタスク一覧の絞り込み条件。空のフィールドは条件に含めない。
type TaskFilter struct {
	ProjectID string
	// Statuses のいずれかに一致するタスク。
	Statuses []string
	// AssigneeID が "none" の場合は担当者なしのタスク。
	AssigneeID string
	// LabelIDs のすべてが付与されたタスク。
	LabelIDs []string
	// Query はタイトル・説明の部分一致検索語。
	Query string
}

// UnassignedFilter は担当者なしを表すTaskFilter.AssigneeIDの値。
const UnassignedFilter = "none"

// ListTasks は条件に一致するプロジェクト内のタスクを作成順に取得する。
func (q *Queries) ListTasks(ctx context.Context, f TaskFilter) ([]Task, error) {
	query, args := buildListTasks(f)
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

func buildListTasks(f TaskFilter) (string, []any) {
	var b strings.Builder
	args := []any{f.ProjectID}

	b.WriteString(`SELECT ` + taskColumns + ` FROM tasks t WHERE t.project_id = ?`)

	if len(f.Statuses) > 0 {
		b.WriteString(` AND t.status IN (` + placeholders(len(f.Statuses)) + `)`)
		for _, s := range f.Statuses {
			args = append(args, s)
		}
	}

	switch f.AssigneeID {
	case "":
	case UnassignedFilter:
		b.WriteString(` AND t.assignee_id IS NULL`)
	default:
		b.WriteString(` AND t.assignee_id = ?`)
		args = append(args, f.AssigneeID)
	}

	for _, labelID := range f.LabelIDs {
		b.WriteString(` AND EXISTS (SELECT 1 FROM task_labels tl WHERE tl.task_id = t.id AND tl.label_id = ?)`)
		args = append(args, labelID)
	}

	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + escapeLike(Fold(q)) + "%"
		b.WriteString(` AND (` + FoldFunc + `(t.title) LIKE ? ESCAPE '\' OR ` + FoldFunc + `(t.description) LIKE ? ESCAPE '\')`)
		args = append(args, like, like)
	}

	b.WriteString(` ORDER BY t.created_at, t.rowid`)
	return b.String(), args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

const updateTask = `
UPDATE tasks
SET title = ?, description = ?, status = ?, priority = ?, assignee_id = ?, due_date = ?, completed_at = ?, updated_at = ?
WHERE id = ?`

// UpdateTask はタスクの編集可能な項目をすべて更新する。
func (q *Queries) UpdateTask(ctx context.Context, t Task) error {
	_, err := q.db.ExecContext(ctx, updateTask, t.Title, t.Description, t.Status, t.Priority,
		t.AssigneeID, t.DueDate, t.CompletedAt, t.UpdatedAt, t.ID)
	return err
}

const deleteTask = `DELETE FROM tasks WHERE id = ?`

// DeleteTask はタスクを削除する。
func (q *Queries) DeleteTask(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, deleteTask, id)
	return err
}

// NullString は空文字列をNULLとして扱うsql.NullStringを返す。
func NullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
