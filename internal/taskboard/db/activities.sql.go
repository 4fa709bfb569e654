package db

import "context"

const createActivity = `
INSERT INTO activities (id, project_id, aggregate_id, aggregate_type, event_type, actor_id, data, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

// CreateActivity はアクティビティを追記する。
func (q *Queries) CreateActivity(ctx context.Context, a Activity) error {
	_, err := q.db.ExecContext(ctx, createActivity, a.ID, a.ProjectID, a.AggregateID, a.AggregateType,
		a.EventType, a.ActorID, a.Data, a.CreatedAt)
	return err
}

const listActivities = `
SELECT id, project_id, aggregate_id, aggregate_type, event_type, actor_id, data, created_at
FROM activities
WHERE project_id = ?
ORDER BY created_at DESC, rowid DESC
LIMIT ?`

// ListActivities はプロジェクトのアクティビティを新しい順に最大limit件取得する。
func (q *Queries) ListActivities(ctx context.Context, projectID string, limit int) ([]Activity, error) {
	rows, err := q.db.QueryContext(ctx, listActivities, projectID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Activity
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.AggregateID, &a.AggregateType, &a.EventType,
			&a.ActorID, &a.Data, &a.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
