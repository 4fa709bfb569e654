package db

import "context"

const createView = `INSERT INTO views (id, project_id, user_id, name, filters, created_at) VALUES (?, ?, ?, ?, ?, ?)`

// CreateView は保存ビューを作成する。
func (q *Queries) CreateView(ctx context.Context, v View) error {
	_, err := q.db.ExecContext(ctx, createView, v.ID, v.ProjectID, v.UserID, v.Name, v.Filters, v.CreatedAt)
	return err
}

const getViewByID = `SELECT id, project_id, user_id, name, filters, created_at FROM views WHERE id = ?`

// GetViewByID はIDで保存ビューを取得する。
func (q *Queries) GetViewByID(ctx context.Context, id string) (View, error) {
	row := q.db.QueryRowContext(ctx, getViewByID, id)
	var v View
	err := row.Scan(&v.ID, &v.ProjectID, &v.UserID, &v.Name, &v.Filters, &v.CreatedAt)
	return v, err
}

const listViews = `
SELECT id, project_id, user_id, name, filters, created_at
FROM views
WHERE project_id = ? AND user_id = ?
ORDER BY created_at, rowid`

// ListViews はユーザーがプロジェクトに保存したビューを取得する。
func (q *Queries) ListViews(ctx context.Context, projectID, userID string) ([]View, error) {
	rows, err := q.db.QueryContext(ctx, listViews, projectID, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []View
	for rows.Next() {
		var v View
		if err := rows.Scan(&v.ID, &v.ProjectID, &v.UserID, &v.Name, &v.Filters, &v.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, rows.Err()
}

const deleteView = `DELETE FROM views WHERE id = ?`

// DeleteView は保存ビューを削除する。
func (q *Queries) DeleteView(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, deleteView, id)
	return err
}
