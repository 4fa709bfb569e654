package db

import (
	"context"
	"time"
)

const createProject = `INSERT INTO projects (id, name, description, owner_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`

// CreateProjectParams はCreateProjectの引数。
type CreateProjectParams struct {
	ID          string
	Name        string
	Description string
	OwnerID     string
	CreatedAt   time.Time
}

// CreateProject はプロジェクトを作成する。
func (q *Queries) CreateProject(ctx context.Context, arg CreateProjectParams) error {
	_, err := q.db.ExecContext(ctx, createProject, arg.ID, arg.Name, arg.Description, arg.OwnerID, arg.CreatedAt, arg.CreatedAt)
	return err
}

const getProjectByID = `SELECT id, name, description, owner_id, created_at, updated_at FROM projects WHERE id = ?`

// GetProjectByID はIDでプロジェクトを取得する。
func (q *Queries) GetProjectByID(ctx context.Context, id string) (Project, error) {
	row := q.db.QueryRowContext(ctx, getProjectByID, id)
	var p Project
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const listProjectsByUserID = `
SELECT p.id, p.name, p.description, p.owner_id, p.created_at, p.updated_at, m.role
FROM projects p
JOIN project_members m ON m.project_id = p.id
WHERE m.user_id = ?
ORDER BY p.created_at DESC, p.rowid DESC`

// ListProjectsByUserID はユーザーが所属するプロジェクトをロール付きで取得する。
func (q *Queries) ListProjectsByUserID(ctx context.Context, userID string) ([]ProjectWithRole, error) {
	rows, err := q.db.QueryContext(ctx, listProjectsByUserID, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []ProjectWithRole
	for rows.Next() {
		var p ProjectWithRole
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt, &p.Role); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

const updateProject = `UPDATE projects SET name = ?, description = ?, updated_at = ? WHERE id = ?`

// UpdateProjectParams はUpdateProjectの引数。
type UpdateProjectParams struct {
	Name        string
	Description string
	UpdatedAt   time.Time
	ID          string
}

// UpdateProject はプロジェクトの名前と説明を更新する。
func (q *Queries) UpdateProject(ctx context.Context, arg UpdateProjectParams) error {
	_, err := q.db.ExecContext(ctx, updateProject, arg.Name, arg.Description, arg.UpdatedAt, arg.ID)
	return err
}

const deleteProject = `DELETE FROM projects WHERE id = ?`

// DeleteProject はプロジェクトを削除する。メンバー・タスク・ラベル等はカスケード削除される。
func (q *Queries) DeleteProject(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, deleteProject, id)
	return err
}
