package db

import (
	"context"
	"database/sql"
	"time"
)

const labelColumns = `l.id, l.project_id, l.name, l.color, l.created_at`

const createLabel = `INSERT INTO labels (id, project_id, name, color, created_at) VALUES (?, ?, ?, ?, ?)`

// CreateLabel はラベルを作成する。同一プロジェクト内で名前が重複するとUNIQUE制約違反になる。
func (q *Queries) CreateLabel(ctx context.Context, l Label) error {
	_, err := q.db.ExecContext(ctx, createLabel, l.ID, l.ProjectID, l.Name, l.Color, l.CreatedAt)
	return err
}

const getLabelByID = `SELECT ` + labelColumns + ` FROM labels l WHERE l.id = ?`

// GetLabelByID はIDでラベルを取得する。
func (q *Queries) GetLabelByID(ctx context.Context, id string) (Label, error) {
	row := q.db.QueryRowContext(ctx, getLabelByID, id)
	var l Label
	err := row.Scan(&l.ID, &l.ProjectID, &l.Name, &l.Color, &l.CreatedAt)
	return l, err
}

const listLabelsByProject = `SELECT ` + labelColumns + ` FROM labels l WHERE l.project_id = ? ORDER BY l.name`

// ListLabelsByProject はプロジェクトのラベルを名前順に取得する。
func (q *Queries) ListLabelsByProject(ctx context.Context, projectID string) ([]Label, error) {
	rows, err := q.db.QueryContext(ctx, listLabelsByProject, projectID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Label
	for rows.Next() {
		var l Label
		if err := rows.Scan(&l.ID, &l.ProjectID, &l.Name, &l.Color, &l.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

const deleteLabel = `DELETE FROM labels WHERE id = ?`

// DeleteLabel はラベルを削除する。タスクへの付与もカスケード削除される。
func (q *Queries) DeleteLabel(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, deleteLabel, id)
	return err
}

const attachLabel = `INSERT OR IGNORE INTO task_labels (task_id, label_id, added_at) VALUES (?, ?, ?)`

// AttachLabel はタスクにラベルを付与し、新たに付与したかどうかを返す。
// 既に付与済みの場合は何もせずfalseを返す。
func (q *Queries) AttachLabel(ctx context.Context, taskID, labelID string, now time.Time) (bool, error) {
	result, err := q.db.ExecContext(ctx, attachLabel, taskID, labelID, now)
	return changed(result, err)
}

const detachLabel = `DELETE FROM task_labels WHERE task_id = ? AND label_id = ?`

// DetachLabel はタスクからラベルを外し、実際に外したかどうかを返す。
func (q *Queries) DetachLabel(ctx context.Context, taskID, labelID string) (bool, error) {
	result, err := q.db.ExecContext(ctx, detachLabel, taskID, labelID)
	return changed(result, err)
}

func changed(result sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

const listLabelsByProjectTasks = `
SELECT tl.task_id, ` + labelColumns + `
FROM task_labels tl
JOIN labels l ON l.id = tl.label_id
JOIN tasks t ON t.id = tl.task_id
WHERE t.project_id = ?
ORDER BY l.name`

// ListTaskLabelsByProject はプロジェクト内の全タスクに付与されたラベルを取得する。
func (q *Queries) ListTaskLabelsByProject(ctx context.Context, projectID string) ([]TaskLabel, error) {
	return q.listTaskLabels(ctx, listLabelsByProjectTasks, projectID)
}

const listLabelsByTask = `
SELECT tl.task_id, ` + labelColumns + `
FROM task_labels tl
JOIN labels l ON l.id = tl.label_id
WHERE tl.task_id = ?
ORDER BY l.name`

// ListTaskLabels はタスクに付与されたラベルを取得する。
func (q *Queries) ListTaskLabels(ctx context.Context, taskID string) ([]TaskLabel, error) {
	return q.listTaskLabels(ctx, listLabelsByTask, taskID)
}

func (q *Queries) listTaskLabels(ctx context.Context, query, arg string) ([]TaskLabel, error) {
	rows, err := q.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []TaskLabel
	for rows.Next() {
		var tl TaskLabel
		if err := rows.Scan(&tl.TaskID, &tl.ID, &tl.ProjectID, &tl.Name, &tl.Color, &tl.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, tl)
	}
	return items, rows.Err()
}
