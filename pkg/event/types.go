package event

import (
	"encoding/json"
	"time"
)

// AggregateType はイベントの対象となるエンティティの種類を表す。
type AggregateType string

const (
	// AggregateTypeProject はプロジェクトエンティティを表す。
	AggregateTypeProject AggregateType = "Project"
	// AggregateTypeTask はタスクエンティティを表す。
	AggregateTypeTask AggregateType = "Task"
)

// Type はイベントの種類を表す。
type Type string

const (
	// TypeProjectCreated はプロジェクトが作成されたことを表す。
	TypeProjectCreated Type = "ProjectCreated"
	// TypeProjectUpdated はプロジェクトの名前・説明が更新されたことを表す。
	TypeProjectUpdated Type = "ProjectUpdated"
	// TypeMemberAdded はプロジェクトにメンバーが追加されたことを表す。
	TypeMemberAdded Type = "MemberAdded"
	// TypeMemberRoleChanged はメンバーのロールが変更されたことを表す。
	TypeMemberRoleChanged Type = "MemberRoleChanged"
	// TypeMemberRemoved はメンバーがプロジェクトから外れたことを表す。
	TypeMemberRemoved Type = "MemberRemoved"

	// TypeTaskCreated はタスクが作成されたことを表す。
	TypeTaskCreated Type = "TaskCreated"
	// TypeTaskUpdated はタスクのステータス以外の項目が更新されたことを表す。
	TypeTaskUpdated Type = "TaskUpdated"
	// TypeTaskStatusChanged はタスクのステータスが変わったことを表す。
	TypeTaskStatusChanged Type = "TaskStatusChanged"
	// TypeTaskDeleted はタスクが削除されたことを表す。
	TypeTaskDeleted Type = "TaskDeleted"
	// TypeLabelAttached はタスクにラベルが付与されたことを表す。
	TypeLabelAttached Type = "LabelAttached"
	// TypeLabelDetached はタスクからラベルが外されたことを表す。
	TypeLabelDetached Type = "LabelDetached"
)

// Event はプロジェクト内で起きた変更を記録する不変のアクティビティレコード。
type Event struct {
	// ID はイベントの一意識別子（UUID）。
	ID string `json:"id"`
	// ProjectID はイベントが属するプロジェクトのID。
	ProjectID string `json:"project_id"`
	// AggregateID は対象エンティティの識別子。
	AggregateID string `json:"aggregate_id"`
	// AggregateType は対象エンティティの種類。
	AggregateType AggregateType `json:"aggregate_type"`
	// EventType はイベントの種類。
	EventType Type `json:"event_type"`
	// ActorID は変更を行ったユーザーのID。
	ActorID string `json:"actor_id"`
	// Data はイベント固有のデータ（JSON形式）。
	Data json.RawMessage `json:"data"`
	// CreatedAt はイベントが作成された日時。
	CreatedAt time.Time `json:"created_at"`
}

// ProjectCreatedData はProjectCreatedイベントのデータ。
type ProjectCreatedData struct {
	Name string `json:"name"`
}

// ProjectUpdatedData はProjectUpdatedイベントのデータ。
type ProjectUpdatedData struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// MemberAddedData はMemberAddedイベントのデータ。
type MemberAddedData struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// MemberRoleChangedData はMemberRoleChangedイベントのデータ。
type MemberRoleChangedData struct {
	UserID string `json:"user_id"`
	From   string `json:"from"`
	To     string `json:"to"`
}

// MemberRemovedData はMemberRemovedイベントのデータ。
type MemberRemovedData struct {
	UserID string `json:"user_id"`
}

// TaskCreatedData はTaskCreatedイベントのデータ。
type TaskCreatedData struct {
	Title  string `json:"title"`
	Status string `json:"status"`
}

// TaskUpdatedData はTaskUpdatedイベントのデータ。
type TaskUpdatedData struct {
	// Fields は更新された項目名の一覧。
	Fields []string `json:"fields"`
}

// TaskStatusChangedData はTaskStatusChangedイベントのデータ。
type TaskStatusChangedData struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// TaskDeletedData はTaskDeletedイベントのデータ。
type TaskDeletedData struct {
	Title string `json:"title"`
}

// LabelChangedData はLabelAttached/LabelDetachedイベントのデータ。
type LabelChangedData struct {
	LabelID string `json:"label_id"`
	Name    string `json:"name"`
}
