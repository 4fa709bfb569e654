package db

import (
	"context"
	"time"
)

const addMember = `INSERT INTO project_members (project_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)`

// AddMemberParams はAddMemberの引数。
type AddMemberParams struct {
	ProjectID string
	UserID    string
	Role      string
	JoinedAt  time.Time
}

// AddMember はプロジェクトにメンバーを追加する。
func (q *Queries) AddMember(ctx context.Context, arg AddMemberParams) error {
	_, err := q.db.ExecContext(ctx, addMember, arg.ProjectID, arg.UserID, arg.Role, arg.JoinedAt)
	return err
}

const getMember = `
SELECT m.project_id, m.user_id, m.role, m.joined_at, u.email, u.name
FROM project_members m
JOIN users u ON u.id = m.user_id
WHERE m.project_id = ? AND m.user_id = ?`

// GetMember はプロジェクトのメンバーを1件取得する。
func (q *Queries) GetMember(ctx context.Context, projectID, userID string) (ProjectMember, error) {
	row := q.db.QueryRowContext(ctx, getMember, projectID, userID)
	var m ProjectMember
	err := row.Scan(&m.ProjectID, &m.UserID, &m.Role, &m.JoinedAt, &m.Email, &m.Name)
	return m, err
}

const listMembers = `
SELECT m.project_id, m.user_id, m.role, m.joined_at, u.email, u.name
FROM project_members m
JOIN users u ON u.id = m.user_id
WHERE m.project_id = ?
ORDER BY m.joined_at, m.rowid`

// ListMembers はプロジェクトのメンバー一覧を参加順に取得する。
func (q *Queries) ListMembers(ctx context.Context, projectID string) ([]ProjectMember, error) {
	rows, err := q.db.QueryContext(ctx, listMembers, projectID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []ProjectMember
	for rows.Next() {
		var m ProjectMember
		if err := rows.Scan(&m.ProjectID, &m.UserID, &m.Role, &m.JoinedAt, &m.Email, &m.Name); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

const updateMemberRole = `UPDATE project_members SET role = ? WHERE project_id = ? AND user_id = ?`

// UpdateMemberRole はメンバーのロールを変更する。
func (q *Queries) UpdateMemberRole(ctx context.Context, projectID, userID, role string) error {
	_, err := q.db.ExecContext(ctx, updateMemberRole, role, projectID, userID)
	return err
}

const removeMember = `DELETE FROM project_members WHERE project_id = ? AND user_id = ?`

// RemoveMember はメンバーをプロジェクトから外す。
func (q *Queries) RemoveMember(ctx context.Context, projectID, userID string) error {
	_, err := q.db.ExecContext(ctx, removeMember, projectID, userID)
	return err
}

const unassignMemberTasks = `UPDATE tasks SET assignee_id = NULL, updated_at = ? WHERE project_id = ? AND assignee_id = ?`

// UnassignMemberTasks はメンバーが担当しているプロジェクト内タスクの担当者を外す。
func (q *Queries) UnassignMemberTasks(ctx context.Context, projectID, userID string, now time.Time) error {
	_, err := q.db.ExecContext(ctx, unassignMemberTasks, now, projectID, userID)
	return err
}
